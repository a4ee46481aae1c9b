// Package report renders the company and equipment PDF reports and the CSV
// export of bitácoras.
package report

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aleckzsalas-29/itsm2/internal/database/models"
)

var (
	// ErrInvalidFilename is returned for names that are not report files
	ErrInvalidFilename = errors.New("invalid report filename")
	// ErrReportNotFound is returned when the report file does not exist
	ErrReportNotFound = errors.New("report not found")
)

var filenamePattern = regexp.MustCompile(`^(empresa|equipo)_[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}_[0-9]{8}_[0-9]{6}\.pdf$`)

// Branding is the system identity printed in report headers
type Branding struct {
	NombreSistema string
	Logo          []byte
}

func (b Branding) name() string {
	if strings.TrimSpace(b.NombreSistema) == "" {
		return models.DefaultNombreSistema
	}
	return b.NombreSistema
}

// BrandingFrom reads the display name and logo from the configuration.
// Logos that are not base64 image data URIs are ignored.
func BrandingFrom(c *models.Configuracion) Branding {
	if c == nil {
		return Branding{}
	}
	b := Branding{NombreSistema: c.NombreSistema}
	if rest, ok := strings.CutPrefix(c.LogoURL, "data:image"); ok {
		if _, data, ok := strings.Cut(rest, ","); ok {
			if logo, err := base64.StdEncoding.DecodeString(data); err == nil {
				b.Logo = logo
			}
		}
	}
	return b
}

// EmpresaData is everything printed in a company report
type EmpresaData struct {
	Empresa   *models.Empresa
	Equipos   []*models.Equipo
	Bitacoras []*models.Bitacora
	Servicios []*models.Servicio
}

// EquipoData is everything printed in an equipment report
type EquipoData struct {
	Equipo    *models.Equipo
	Empresa   *models.Empresa
	Bitacoras []*models.Bitacora
}

// Compiler writes reports into a directory
type Compiler struct {
	outputDir     string
	defaultLayout Layout
	now           func() time.Time
	logger        *zap.Logger
}

// NewCompiler creates the output directory if needed
func NewCompiler(outputDir, defaultLayout string, logger *zap.Logger) (*Compiler, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	return &Compiler{
		outputDir:     outputDir,
		defaultLayout: ParseLayout(defaultLayout),
		now:           time.Now,
		logger:        logger,
	}, nil
}

func (c *Compiler) layout(name string) Layout {
	if strings.TrimSpace(name) == "" {
		return c.defaultLayout
	}
	return ParseLayout(name)
}

// EmpresaReport renders a company report and returns its filename
func (c *Compiler) EmpresaReport(data EmpresaData, brand Branding, layout string) (string, error) {
	now := c.now()
	doc := c.document("Reporte de Empresa - "+data.Empresa.Nombre, layout, brand, now)
	renderEmpresa(doc, data)
	return c.write(doc, "empresa", data.Empresa.ID, now)
}

// EquipoReport renders an equipment report and returns its filename
func (c *Compiler) EquipoReport(data EquipoData, brand Branding, layout string) (string, error) {
	now := c.now()
	doc := c.document("Reporte de Equipo - "+data.Equipo.Nombre, layout, brand, now)
	renderEquipo(doc, data)
	return c.write(doc, "equipo", data.Equipo.ID, now)
}

// document starts a report page stream. A logo that fails to embed is
// dropped and the report is rendered without it.
func (c *Compiler) document(title, layout string, brand Branding, now time.Time) *document {
	doc := newDocument(title, c.layout(layout), brand, now)
	if doc.logoErr != nil {
		c.logger.Warn("Rendering report without logo", zap.String("title", title), zap.Error(doc.logoErr))
	}
	return doc
}

func (c *Compiler) write(doc *document, kind string, id models.ID, now time.Time) (string, error) {
	content, err := doc.bytes()
	if err != nil {
		return "", fmt.Errorf("failed to render %s report: %w", kind, err)
	}

	filename := fmt.Sprintf("%s_%s_%s.pdf", kind, id, now.Format("20060102_150405"))
	if err := os.WriteFile(filepath.Join(c.outputDir, filename), content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s report: %w", kind, err)
	}
	return filename, nil
}

// Path resolves a report filename inside the output directory
func (c *Compiler) Path(filename string) (string, error) {
	if !filenamePattern.MatchString(filename) {
		return "", ErrInvalidFilename
	}
	path := filepath.Join(c.outputDir, filename)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", ErrReportNotFound
	}
	return path, nil
}
