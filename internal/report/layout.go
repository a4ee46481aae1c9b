package report

import "strings"

// Layout names a PDF template
type Layout string

const (
	LayoutClasico  Layout = "clasico"
	LayoutModerno  Layout = "moderno"
	LayoutCompacto Layout = "compacto"
)

// Layouts lists the available templates
var Layouts = []Layout{LayoutClasico, LayoutModerno, LayoutCompacto}

// ParseLayout returns the named layout, or clasico for unknown names
func ParseLayout(name string) Layout {
	switch l := Layout(strings.ToLower(strings.TrimSpace(name))); l {
	case LayoutClasico, LayoutModerno, LayoutCompacto:
		return l
	}
	return LayoutClasico
}

type rgb struct{ r, g, b int }

type style struct {
	titleSize   float64
	sectionSize float64
	bodySize    float64
	tableHead   float64
	tableBody   float64
	rowHeight   float64
	lineHeight  float64
	gap         float64
	titleAlign  string
	band        bool

	ink    rgb
	muted  rgb
	header rgb
	zebra  rgb
}

func (l Layout) style() style {
	switch l {
	case LayoutModerno:
		return style{
			titleSize: 18, sectionSize: 13, bodySize: 10, tableHead: 8.5, tableBody: 7.5,
			rowHeight: 7, lineHeight: 5.5, gap: 6, titleAlign: "L", band: true,
			ink: rgb{17, 24, 39}, muted: rgb{107, 114, 128}, header: rgb{13, 148, 136}, zebra: rgb{240, 253, 250},
		}
	case LayoutCompacto:
		return style{
			titleSize: 12, sectionSize: 9.5, bodySize: 7.5, tableHead: 6.5, tableBody: 6,
			rowHeight: 4.5, lineHeight: 3.8, gap: 2.5, titleAlign: "L",
			ink: rgb{0, 0, 0}, muted: rgb{82, 82, 91}, header: rgb{63, 63, 70}, zebra: rgb{244, 244, 245},
		}
	default:
		return style{
			titleSize: 16, sectionSize: 12, bodySize: 9, tableHead: 8, tableBody: 7,
			rowHeight: 6, lineHeight: 5, gap: 5, titleAlign: "C",
			ink: rgb{15, 23, 42}, muted: rgb{100, 116, 139}, header: rgb{15, 23, 42}, zebra: rgb{241, 245, 249},
		}
	}
}
