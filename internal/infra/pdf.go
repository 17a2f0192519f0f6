package infra

// pdf.go — printing/export collaborator, implemented with go-pdf/fpdf.
// Generates A7-size thermal receipt-style tickets, A4 closure reports,
// shipping labels for online orders, and barcode label sheets.
// Output files are saved under the configured storage path.

import (
	"bytes"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"vendapos/internal/model"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// GenerateReceiptPDF renders a thermal-format receipt for a finalized sale.
// Returns the absolute path to the generated file.
func GenerateReceiptPDF(sale *model.Sale, storeName, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("receipt_%d.pdf", sale.TicketNumber)
	filePath := filepath.Join(storagePath, fileName)

	// A7 ≈ 74mm × 105mm — close to thermal receipt paper
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 74, Ht: 105},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8

	// Header
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 7, storeName, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, "Sales Receipt", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Ticket #%d", sale.TicketNumber), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, sale.CreatedAt.Format("02/01/2006  15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	// Item table
	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(contentW*0.5, 4, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(contentW*0.15, 4, "Qty", "B", 0, "R", false, 0, "")
	pdf.CellFormat(contentW*0.35, 4, "Subtotal", "B", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	for _, it := range sale.Items {
		pdf.CellFormat(contentW*0.5, 4, it.Name, "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.15, 4, fmt.Sprintf("%d", it.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(contentW*0.35, 4, it.Subtotal.StringFixed(2), "", 1, "R", false, 0, "")
	}
	pdf.Ln(1)

	if sale.DiscountTotal.IsPositive() {
		pdf.CellFormat(contentW*0.65, 4, "Discount", "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.35, 4, "-"+sale.DiscountTotal.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(contentW*0.65, 6, "TOTAL", "T", 0, "L", false, 0, "")
	pdf.CellFormat(contentW*0.35, 6, sale.Total.StringFixed(2), "T", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, fmt.Sprintf("Paid: %s", sale.PaymentMethod), "", 1, "L", false, 0, "")
	if sale.AmountReceived != nil {
		pdf.CellFormat(contentW, 4, fmt.Sprintf("Received: %s   Change: %s",
			sale.AmountReceived.StringFixed(2), sale.Change.StringFixed(2)), "", 1, "L", false, 0, "")
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write receipt: %w", err)
	}
	return filePath, nil
}

// GenerateClosurePDF renders the end-of-session closure report.
func GenerateClosurePDF(c *model.Closure, methodTotals map[string]decimal.Decimal, storeName, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("closure_%s.pdf", c.SessionID)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, storeName+" — Register Closure", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Day: "+c.Day.Format("02/01/2006"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	row := func(label string, v decimal.Decimal) {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(90, 7, label, "B", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, v.StringFixed(2), "B", 1, "R", false, 0, "")
	}

	row("Opening amount", c.OpeningAmount)
	row("Total sales", c.TotalSales)
	row("Total costs", c.TotalCosts)
	row("Total discounts", c.TotalDiscounts)
	row("Total expenses", c.TotalExpenses)
	row("Gross profit", c.GrossProfit)
	row("Net profit", c.NetProfit)

	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(90, 9, "Final cash amount", "T", 0, "L", false, 0, "")
	pdf.CellFormat(0, 9, c.FinalCashAmount.StringFixed(2), "T", 1, "R", false, 0, "")

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, "By payment method", "", 1, "L", false, 0, "")
	for _, method := range model.PaymentMethods {
		row(method, methodTotals[method])
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write closure: %w", err)
	}
	return filePath, nil
}

// GenerateShippingLabelPDF renders an address label for an online order.
func GenerateShippingLabelPDF(order *model.OnlineOrder, storeName, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("label_%s.pdf", order.Reference)
	filePath := filepath.Join(storagePath, fileName)

	// 100mm × 150mm — standard thermal shipping label
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 100, Ht: 150},
	})
	pdf.SetMargins(8, 8, 8)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 6, "From: "+storeName, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, order.Customer, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.MultiCell(0, 6, order.Address, "", "L", false)
	pdf.CellFormat(0, 6, order.City+"  "+order.ZipCode, "", 1, "L", false, 0, "")
	if order.Phone != "" {
		pdf.CellFormat(0, 6, "Phone: "+order.Phone, "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	if err := drawBarcode(pdf, order.Reference, 8, pdf.GetY(), 84, 22); err != nil {
		return "", err
	}
	pdf.SetY(pdf.GetY() + 24)
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 5, order.Reference, "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write shipping label: %w", err)
	}
	return filePath, nil
}

// GenerateBarcodeLabelsPDF renders a sheet of SKU labels, 3 columns × 8 rows
// per A4 page, one label per product in the input order.
func GenerateBarcodeLabelsPDF(products []model.Product, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	filePath := filepath.Join(storagePath, "labels.pdf")

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	const (
		labelW = 63.0
		labelH = 34.0
		cols   = 3
		rows   = 8
	)

	for i, p := range products {
		cell := i % (cols * rows)
		if i > 0 && cell == 0 {
			pdf.AddPage()
		}
		x := 10 + float64(cell%cols)*labelW
		y := 10 + float64(cell/cols)*labelH

		pdf.SetXY(x+2, y+2)
		pdf.SetFont("Helvetica", "B", 8)
		pdf.CellFormat(labelW-4, 4, p.Name, "", 2, "C", false, 0, "")
		pdf.SetFont("Helvetica", "", 8)
		pdf.CellFormat(labelW-4, 4, p.SalePrice.StringFixed(2), "", 2, "C", false, 0, "")

		if err := drawBarcode(pdf, p.SKU, x+6, y+11, labelW-12, 14); err != nil {
			return "", err
		}
		pdf.SetXY(x+2, y+26)
		pdf.SetFont("Helvetica", "", 7)
		pdf.CellFormat(labelW-4, 4, p.SKU, "", 0, "C", false, 0, "")
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write labels: %w", err)
	}
	return filePath, nil
}

// drawBarcode encodes value as Code 128, rasterizes it and places it on the
// page at (x, y) with the given size in mm.
func drawBarcode(pdf *fpdf.Fpdf, value string, x, y, w, h float64) error {
	code, err := code128.Encode(value)
	if err != nil {
		return fmt.Errorf("pdf: encode barcode %q: %w", value, err)
	}
	scaled, err := barcode.Scale(code, 400, 120)
	if err != nil {
		return fmt.Errorf("pdf: scale barcode: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return fmt.Errorf("pdf: render barcode: %w", err)
	}

	name := "bc_" + value
	pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, &buf)
	pdf.ImageOptions(name, x, y, w, h, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	return nil
}
