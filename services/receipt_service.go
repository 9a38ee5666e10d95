package services

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	config "github.com/legendaryias/ias_mentor/configs"
	"github.com/legendaryias/ias_mentor/models"
)

type ReceiptService struct {
	payments *PaymentService
}

func NewReceiptService(payments *PaymentService) *ReceiptService {
	return &ReceiptService{payments: payments}
}

// ReceiptFor renders the receipt of payment id for its requester.
func (s *ReceiptService) ReceiptFor(ctx context.Context, id, userID string) ([]byte, error) {
	payment, err := s.payments.GetForRequester(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return s.Render(payment)
}

// Render produces an A4 PDF receipt. Only confirmed payments have one.
func (s *ReceiptService) Render(p *models.Payment) ([]byte, error) {
	if p.Status != models.PaymentConfirmed {
		return nil, fmt.Errorf("%w: payment %s is %s", ErrNotConfirmed, p.ID, p.Status)
	}

	confirmed := p.UpdatedAt
	if p.ConfirmedAt != nil {
		confirmed = *p.ConfirmedAt
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Payment Receipt "+p.ID, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 10, "Legendary IAS Mentor")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 8, "Payment Receipt")
	pdf.Ln(14)

	rows := [][2]string{
		{"Receipt No.", p.ID},
		{"Date", confirmed.Format("02 Jan 2006 15:04")},
		{"Student", p.UserName},
		{"Email", p.UserEmail},
		{"Phone", p.Phone()},
		{"Product", p.ProductTitle},
		{"Category", string(p.ProductCategory)},
		{"Amount", p.Currency + " " + strconv.FormatFloat(p.Amount, 'f', 2, 64)},
		{"Paid to (UPI)", p.UPIID},
		{"Transaction Ref.", deref(p.TransactionID)},
	}
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, row := range rows {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(50, 9, row[0], "1", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(130, 9, tr(row[1]), "1", 1, "L", false, 0, "")
	}

	pdf.Ln(10)
	pdf.SetFont("Arial", "I", 9)
	pdf.MultiCell(0, 5, fmt.Sprintf(
		"This receipt was generated on %s. For queries contact us on WhatsApp at +%s.",
		time.Now().Format("02 Jan 2006"), config.WhatsAppNumber()), "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("error generating receipt PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
