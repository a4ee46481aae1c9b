package report

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/aleckzsalas-29/itsm2/internal/database/models"
)

const logoName = "logo"

// column is one table column: header text, width in mm, rune limit
type column struct {
	title string
	width float64
	limit int
}

// document wraps an fpdf page stream with the selected layout
type document struct {
	pdf   *fpdf.Fpdf
	st    style
	tr    func(string) string
	title string
	// logoErr is set when the logo could not be embedded and was left out
	logoErr error
}

func newDocument(title string, layout Layout, brand Branding, generated time.Time) *document {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 18)
	pdf.SetTitle(title, true)
	pdf.SetCreator(brand.name(), true)
	pdf.AliasNbPages("")

	d := &document{
		pdf:   pdf,
		st:    layout.style(),
		tr:    pdf.UnicodeTranslatorFromDescriptor(""),
		title: title,
	}

	logoType := imageType(brand.Logo)
	if logoType != "" {
		pdf.RegisterImageOptionsReader(logoName, fpdf.ImageOptions{ImageType: logoType}, bytes.NewReader(brand.Logo))
		if err := pdf.Error(); err != nil {
			d.logoErr = err
			logoType = ""
			pdf.ClearError()
		}
	}

	pdf.SetHeaderFunc(func() { d.header(brand.name(), logoType != "", generated) })
	pdf.SetFooterFunc(d.footer)
	pdf.AddPage()
	return d
}

// imageType returns the fpdf image type for logo bytes, or "" when the
// format is not embeddable
func imageType(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	switch http.DetectContentType(data) {
	case "image/png":
		return "PNG"
	case "image/jpeg":
		return "JPG"
	case "image/gif":
		return "GIF"
	}
	return ""
}

func (d *document) header(systemName string, hasLogo bool, generated time.Time) {
	st := d.st
	pdf := d.pdf
	left, top, _, _ := pdf.GetMargins()
	pageW, _ := pdf.GetPageSize()

	if st.band {
		pdf.SetFillColor(st.header.r, st.header.g, st.header.b)
		pdf.Rect(0, 0, pageW, 4, "F")
	}
	if hasLogo {
		pdf.ImageOptions(logoName, left, top, 0, 14, false, fpdf.ImageOptions{}, 0, "")
		pdf.SetX(left + 30)
	}

	pdf.SetFont("Helvetica", "", st.bodySize-1)
	pdf.SetTextColor(st.muted.r, st.muted.g, st.muted.b)
	pdf.CellFormat(0, 4, d.tr(systemName), "", 1, st.titleAlign, false, 0, "")

	if hasLogo {
		pdf.SetX(left + 30)
	}
	pdf.SetFont("Helvetica", "B", st.titleSize)
	pdf.SetTextColor(st.ink.r, st.ink.g, st.ink.b)
	pdf.CellFormat(0, st.titleSize*0.6, d.tr(d.title), "", 1, st.titleAlign, false, 0, "")

	if hasLogo {
		pdf.SetX(left + 30)
	}
	pdf.SetFont("Helvetica", "", st.bodySize-1)
	pdf.SetTextColor(st.muted.r, st.muted.g, st.muted.b)
	pdf.CellFormat(0, 5, "Generado: "+generated.Format("02/01/2006 15:04"), "", 1, st.titleAlign, false, 0, "")

	if hasLogo && pdf.GetY() < top+16 {
		pdf.SetY(top + 16)
	}
	pdf.Ln(st.gap)
}

func (d *document) footer() {
	st := d.st
	d.pdf.SetY(-15)
	d.pdf.SetFont("Helvetica", "I", 8)
	d.pdf.SetTextColor(st.muted.r, st.muted.g, st.muted.b)
	d.pdf.CellFormat(0, 10, d.tr(fmt.Sprintf("Página %d/{nb}", d.pdf.PageNo())), "", 0, "C", false, 0, "")
}

func (d *document) section(title string) {
	st := d.st
	d.pdf.Ln(st.gap)
	d.pdf.SetFont("Helvetica", "B", st.sectionSize)
	d.pdf.SetTextColor(st.ink.r, st.ink.g, st.ink.b)
	border := ""
	if st.band {
		border = "B"
	}
	d.pdf.CellFormat(0, st.sectionSize*0.65, d.tr(title), border, 1, "L", false, 0, "")
	d.pdf.Ln(st.gap / 2)
}

// pairs prints "label: value" lines, skipping empty values
func (d *document) pairs(kv ...string) {
	st := d.st
	d.pdf.SetFont("Helvetica", "", st.bodySize)
	d.pdf.SetTextColor(st.ink.r, st.ink.g, st.ink.b)
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] == "" {
			continue
		}
		d.pdf.MultiCell(0, st.lineHeight, d.tr(kv[i]+": "+kv[i+1]), "", "L", false)
	}
}

func (d *document) note(text string) {
	d.pdf.SetFont("Helvetica", "I", d.st.bodySize)
	d.pdf.SetTextColor(d.st.muted.r, d.st.muted.g, d.st.muted.b)
	d.pdf.CellFormat(0, d.st.lineHeight+2, d.tr(text), "", 1, "L", false, 0, "")
}

func (d *document) fields(title string, f models.Fields) {
	if f.Len() == 0 {
		return
	}
	var kv []string
	for _, k := range f.Keys() {
		v, _ := f.Get(k)
		kv = append(kv, k, v.String())
	}
	d.pdf.SetFont("Helvetica", "B", d.st.bodySize)
	d.pdf.CellFormat(0, d.st.lineHeight, d.tr(title), "", 1, "L", false, 0, "")
	d.pairs(kv...)
}

// table draws rows, repeating the header row after each page break
func (d *document) table(cols []column, rows [][]string) {
	st := d.st
	pdf := d.pdf
	_, pageH := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()

	drawHeader := func() {
		pdf.SetFont("Helvetica", "B", st.tableHead)
		pdf.SetFillColor(st.header.r, st.header.g, st.header.b)
		pdf.SetTextColor(255, 255, 255)
		for _, c := range cols {
			pdf.CellFormat(c.width, st.rowHeight+1, d.tr(c.title), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", st.tableBody)
		pdf.SetTextColor(0, 0, 0)
	}

	drawHeader()
	for i, row := range rows {
		if pdf.GetY()+st.rowHeight > pageH-bottom {
			pdf.AddPage()
			drawHeader()
		}
		pdf.SetFillColor(st.zebra.r, st.zebra.g, st.zebra.b)
		for j, c := range cols {
			cell := ""
			if j < len(row) {
				cell = truncate(row[j], c.limit)
			}
			pdf.CellFormat(c.width, st.rowHeight, d.tr(cell), "1", 0, "L", i%2 == 1, 0, "")
		}
		pdf.Ln(-1)
	}
}

func (d *document) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

func money(v float64) string {
	return "$" + strconv.FormatFloat(v, 'f', 2, 64)
}

func presence(stored bool) string {
	if stored {
		return "Registrada"
	}
	return "No registrada"
}

func dateOrEmpty(t *models.Timestamp) string {
	if t == nil {
		return ""
	}
	return t.DisplayDate()
}
