package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/legendaryias/ias_mentor/models"
	"github.com/legendaryias/ias_mentor/store"
	"github.com/xuri/excelize/v2"
)

const reportSheet = "Payments"

var reportHeaders = []string{
	"Payment ID", "Date", "Status", "Student Name", "Email", "Phone",
	"Product", "Category", "Amount", "Currency", "UPI ID", "Transaction ID", "Notes",
}

type ReportService struct {
	payments store.PaymentStore
}

func NewReportService(payments store.PaymentStore) *ReportService {
	return &ReportService{payments: payments}
}

// Payments returns every payment created within [from, to], newest first.
func (s *ReportService) Payments(ctx context.Context, from, to time.Time, status models.PaymentStatus) ([]models.Payment, error) {
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, validationError("end_date is before start_date")
	}
	return s.payments.ListPayments(ctx, store.PaymentFilter{Status: status, From: from, To: to})
}

func reportRow(p models.Payment) []string {
	return []string{
		p.ID,
		p.CreatedAt.Format("2006-01-02 15:04"),
		string(p.Status),
		p.UserName,
		p.UserEmail,
		p.Phone(),
		p.ProductTitle,
		string(p.ProductCategory),
		fmt.Sprintf("%.2f", p.Amount),
		p.Currency,
		p.UPIID,
		deref(p.TransactionID),
		deref(p.Notes),
	}
}

func (s *ReportService) WriteCSV(w io.Writer, payments []models.Payment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportHeaders); err != nil {
		return err
	}
	for _, p := range payments {
		if err := cw.Write(reportRow(p)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s *ReportService) WriteXLSX(w io.Writer, payments []models.Payment) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return err
	}

	header := make([]interface{}, len(reportHeaders))
	for i, h := range reportHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(reportSheet, "A1", &header); err != nil {
		return err
	}

	for i, p := range payments {
		row := reportRow(p)
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		// numeric amount so the sheet can sum it
		values[8] = p.Amount
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(reportSheet, cell, &values); err != nil {
			return err
		}
	}

	if len(payments) > 0 {
		total, _ := excelize.CoordinatesToCellName(9, len(payments)+2)
		if err := f.SetCellFormula(reportSheet, total, "SUM(I2:I"+strconv.Itoa(len(payments)+1)+")"); err != nil {
			return err
		}
	}

	return f.Write(w)
}
