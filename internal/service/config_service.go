package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/aleckzsalas-29/itsm2/internal/database"
	"github.com/aleckzsalas-29/itsm2/internal/database/models"
)

// ConfigService manages the singleton configuration record
type ConfigService struct {
	deps Deps
}

// NewConfigService creates a new configuration service
func NewConfigService(d Deps) *ConfigService {
	return &ConfigService{deps: d}
}

// PublicConfig is what the login page may see before authentication
type PublicConfig struct {
	NombreSistema string `json:"nombre_sistema"`
	LogoURL       string `json:"logo_url,omitempty"`
}

// Get returns the configuration, creating the default record on first use
func (s *ConfigService) Get(ctx context.Context) (*models.Configuracion, error) {
	c, err := s.deps.Store.GetConfiguracion(ctx)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("failed to get configuration: %w", err)
	}

	c = models.NewConfiguracion()
	if err := s.deps.Store.SaveConfiguracion(ctx, c); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			// created concurrently
			return s.deps.Store.GetConfiguracion(ctx)
		}
		return nil, fmt.Errorf("failed to create configuration: %w", err)
	}
	return c, nil
}

// Public returns the system name and logo
func (s *ConfigService) Public(ctx context.Context) (*PublicConfig, error) {
	c, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	return &PublicConfig{NombreSistema: c.NombreSistema, LogoURL: c.LogoURL}, nil
}

// schema returns the descriptors of entidad without creating the record
func (s *ConfigService) schema(ctx context.Context, entidad string) ([]models.FieldDescriptor, error) {
	c, err := s.deps.Store.GetConfiguracion(ctx)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get configuration: %w", err)
	}
	campos, _ := c.Campos(entidad)
	return campos, nil
}

// Update merges body onto the configuration
func (s *ConfigService) Update(ctx context.Context, body []byte) error {
	p, err := decodePatch(body)
	if err != nil {
		return err
	}

	c, err := s.Get(ctx)
	if err != nil {
		return err
	}
	if err := p.applyTo(c); err != nil {
		return err
	}

	if strings.TrimSpace(c.NombreSistema) == "" {
		c.NombreSistema = models.DefaultNombreSistema
	}
	if err := validate(c); err != nil {
		return err
	}
	for _, entidad := range []string{models.EntidadEquipos, models.EntidadEmpresas, models.EntidadBitacoras, models.EntidadServicios} {
		campos, _ := c.Campos(entidad)
		if err := models.ValidateDescriptors(campos); err != nil {
			return invalid("%s: %v", entidad, err)
		}
		c.SetCampos(entidad, campos)
	}

	return s.save(ctx, c)
}

// UploadLogo stores a PNG, JPEG or GIF logo as a data URI and returns it
func (s *ConfigService) UploadLogo(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", invalid("el logo está vacío")
	}
	_, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", invalid("el logo debe ser una imagen PNG, JPEG o GIF válida")
	}
	contentType := "image/" + format

	c, err := s.Get(ctx)
	if err != nil {
		return "", err
	}
	c.LogoURL = "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
	if err := s.save(ctx, c); err != nil {
		return "", err
	}
	return c.LogoURL, nil
}

// Campos returns the field descriptors of entidad
func (s *ConfigService) Campos(ctx context.Context, entidad string) ([]models.FieldDescriptor, error) {
	c, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	campos, ok := c.Campos(entidad)
	if !ok {
		return nil, invalid("entidad no válida: %s", entidad)
	}
	return campos, nil
}

// SetCampos replaces the field descriptors of entidad
func (s *ConfigService) SetCampos(ctx context.Context, entidad string, campos []models.FieldDescriptor) error {
	if err := models.ValidateDescriptors(campos); err != nil {
		return invalid("%v", err)
	}

	c, err := s.Get(ctx)
	if err != nil {
		return err
	}
	if !c.SetCampos(entidad, campos) {
		return invalid("entidad no válida: %s", entidad)
	}
	return s.save(ctx, c)
}

func (s *ConfigService) save(ctx context.Context, c *models.Configuracion) error {
	c.ActualizadoEn = models.Now()
	if err := s.deps.Store.SaveConfiguracion(ctx, c); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	return nil
}
