package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders the catalogue tables into one PDF document, a new
// section per table.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with a cover title and one section per
// table. Every table starts on its own page.
func (e *PDFExporter) Render(title string, tables []Table) ([]byte, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("pdf requires at least one table")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("%d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	for _, table := range tables {
		if len(table.Columns) == 0 {
			return nil, fmt.Errorf("pdf table %q has no columns", table.Title)
		}
		pdf.AddPage()

		pdf.SetFont("Arial", "B", 14)
		heading := table.Title
		if heading == "" {
			heading = title
		}
		pdf.CellFormat(0, 10, heading, "", 1, "L", false, 0, "")
		pdf.Ln(2)

		colWidth := 277.0 / float64(len(table.Columns))
		pdf.SetFont("Arial", "B", 10)
		for _, column := range table.Columns {
			pdf.CellFormat(colWidth, 8, column, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 9)
		for _, row := range table.Rows {
			for i := range table.Columns {
				value := ""
				if i < len(row) {
					value = row[i]
				}
				pdf.CellFormat(colWidth, 7, value, "1", 0, "", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
