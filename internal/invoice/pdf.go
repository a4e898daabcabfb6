package invoice

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/pater97/go-shop/internal/domain"
)

// PDFRenderer renders the classic storefront invoice: an underlined title,
// one line per purchased position, and the total.
type PDFRenderer struct{}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

func (r *PDFRenderer) Render(order *domain.Order, total float64) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "U", 26)
	pdf.CellFormat(0, 14, "Invoice", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(0, 8, "-----------------------", "", 1, "L", false, 0, "")

	for _, line := range order.Lines {
		text := fmt.Sprintf("%s - %d x $%.2f", line.Title, line.Quantity, line.Price)
		pdf.CellFormat(0, 8, text, "", 1, "L", false, 0, "")
	}

	pdf.CellFormat(0, 8, "---", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 20)
	pdf.CellFormat(0, 10, fmt.Sprintf("Total Price: $%.2f", total), "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output: %w", err)
	}
	return buf.Bytes(), nil
}
