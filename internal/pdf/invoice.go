// Package pdf renders booking invoices.
package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/Abdullah7175/mustafabackend/internal/models"
)

// InvoiceOptions carries the rendering inputs that are not part of the
// booking itself.
type InvoiceOptions struct {
	AgencyName string
	TaxRate    float64
	AgentName  string
	IssuedAt   time.Time
}

// bookingPrice extracts the unit price and currency of a booking. Newer
// documents carry a nested package with per-occupancy pricing; older ones
// have a flat price/currency pair at the top level.
func bookingPrice(b *models.Booking) (float64, string) {
	if b.PackageDetails != nil && b.PackageDetails.PriceDouble > 0 {
		currency := b.PackageDetails.Currency
		if currency == "" {
			currency = b.Currency
		}
		return b.PackageDetails.PriceDouble, currency
	}
	return b.Price, b.Currency
}

// RenderInvoice renders a one-page invoice PDF for a booking.
func RenderInvoice(b *models.Booking, opts InvoiceOptions) ([]byte, error) {
	if b == nil {
		return nil, fmt.Errorf("cannot render invoice for nil booking")
	}

	issuedAt := opts.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = time.Now().UTC()
	}
	price, currency := bookingPrice(b)
	if currency == "" {
		currency = "USD"
	}
	travellers := b.Travellers
	if travellers < 1 {
		travellers = 1
	}
	subtotal := price * float64(travellers)
	tax := subtotal * opts.TaxRate
	total := subtotal + tax

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle(fmt.Sprintf("Invoice %s", b.ID), false)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 18)
	doc.Cell(0, 12, opts.AgencyName)
	doc.Ln(14)

	doc.SetFont("Helvetica", "", 11)
	doc.Cell(0, 7, fmt.Sprintf("Invoice: INV-%s", b.ID))
	doc.Ln(7)
	doc.Cell(0, 7, fmt.Sprintf("Date: %s", issuedAt.Format("2 Jan 2006")))
	doc.Ln(7)
	if opts.AgentName != "" {
		doc.Cell(0, 7, fmt.Sprintf("Agent: %s", opts.AgentName))
		doc.Ln(7)
	}
	doc.Ln(4)

	doc.SetFont("Helvetica", "B", 12)
	doc.Cell(0, 8, "Billed To")
	doc.Ln(8)
	doc.SetFont("Helvetica", "", 11)
	doc.Cell(0, 6, b.CustomerName)
	doc.Ln(6)
	if b.CustomerEmail != "" {
		doc.Cell(0, 6, b.CustomerEmail)
		doc.Ln(6)
	}
	if b.CustomerPhone != "" {
		doc.Cell(0, 6, b.CustomerPhone)
		doc.Ln(6)
	}
	doc.Ln(6)

	// Line item table
	doc.SetFont("Helvetica", "B", 11)
	doc.SetFillColor(235, 235, 235)
	doc.CellFormat(90, 8, "Description", "1", 0, "L", true, 0, "")
	doc.CellFormat(25, 8, "Travellers", "1", 0, "C", true, 0, "")
	doc.CellFormat(35, 8, "Unit Price", "1", 0, "R", true, 0, "")
	doc.CellFormat(35, 8, "Amount", "1", 1, "R", true, 0, "")

	description := b.PackageName
	if description == "" {
		description = "Travel booking"
	}
	doc.SetFont("Helvetica", "", 11)
	doc.CellFormat(90, 8, description, "1", 0, "L", false, 0, "")
	doc.CellFormat(25, 8, fmt.Sprintf("%d", travellers), "1", 0, "C", false, 0, "")
	doc.CellFormat(35, 8, fmt.Sprintf("%.2f %s", price, currency), "1", 0, "R", false, 0, "")
	doc.CellFormat(35, 8, fmt.Sprintf("%.2f %s", subtotal, currency), "1", 1, "R", false, 0, "")

	if b.PackageDetails != nil {
		for city, nights := range b.PackageDetails.Nights {
			hotel := b.PackageDetails.Hotels[city]
			line := fmt.Sprintf("%s: %d nights", city, nights)
			if hotel != "" {
				line = fmt.Sprintf("%s: %d nights, %s", city, nights, hotel)
			}
			doc.CellFormat(185, 7, line, "1", 1, "L", false, 0, "")
		}
	}
	doc.Ln(4)

	doc.SetFont("Helvetica", "", 11)
	doc.CellFormat(150, 7, "Subtotal", "", 0, "R", false, 0, "")
	doc.CellFormat(35, 7, fmt.Sprintf("%.2f %s", subtotal, currency), "", 1, "R", false, 0, "")
	if opts.TaxRate > 0 {
		doc.CellFormat(150, 7, fmt.Sprintf("Tax (%.1f%%)", opts.TaxRate*100), "", 0, "R", false, 0, "")
		doc.CellFormat(35, 7, fmt.Sprintf("%.2f %s", tax, currency), "", 1, "R", false, 0, "")
	}
	doc.SetFont("Helvetica", "B", 12)
	doc.CellFormat(150, 8, "Total", "", 0, "R", false, 0, "")
	doc.CellFormat(35, 8, fmt.Sprintf("%.2f %s", total, currency), "", 1, "R", false, 0, "")

	doc.Ln(10)
	doc.SetFont("Helvetica", "I", 9)
	doc.Cell(0, 6, "Thank you for booking with us.")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render invoice PDF for booking %s: %w", b.ID, err)
	}
	return buf.Bytes(), nil
}
