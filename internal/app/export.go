package app

import (
	"context"
	"fmt"
	"io"

	"photo-agency/internal/core"

	"github.com/gocarina/gocsv"
)

const csvDate = "2006-01-02"

// OrderCSVRow is one line of the monthly order export.
type OrderCSVRow struct {
	OrderNumber     string `csv:"order_number"`
	ScheduledDate   string `csv:"scheduled_date"`
	Status          string `csv:"status"`
	CustomerCode    string `csv:"customer_code"`
	CustomerName    string `csv:"customer_name"`
	PropertyAddress string `csv:"property_address"`
	TotalExVAT      string `csv:"total_ex_vat"`
	VATAmount       string `csv:"vat_amount"`
	TotalIncVAT     string `csv:"total_inc_vat"`
	PhotographerFee string `csv:"photographer_fee"`
	ExternalCost    string `csv:"pke"`
	InternalCost    string `csv:"pki"`
	CompanyProfit   string `csv:"company_profit"`
	MarginPercent   string `csv:"margin_percent"`
	Invoiced        bool   `csv:"invoiced"`
}

// InvoiceCSVRow is one line of the invoice export.
type InvoiceCSVRow struct {
	InvoiceNumber string `csv:"invoice_number"`
	Status        string `csv:"status"`
	CustomerName  string `csv:"customer_name"`
	IssueDate     string `csv:"issue_date"`
	DueDate       string `csv:"due_date"`
	Period        string `csv:"period"`
	OrderCount    int    `csv:"order_count"`
	Subtotal      string `csv:"subtotal"`
	VATAmount     string `csv:"vat_amount"`
	Total         string `csv:"total"`
}

func orderCSVRows(orders []core.Order) []OrderCSVRow {
	rows := make([]OrderCSVRow, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		p := core.ProfitProjectionFor(o)
		row := OrderCSVRow{
			OrderNumber:     o.OrderNumber,
			Status:          string(o.Status),
			CustomerCode:    o.CustomerCode,
			CustomerName:    o.CustomerName,
			PropertyAddress: o.PropertyAddress,
			TotalExVAT:      p.TotalExVAT.StringFixed(2),
			VATAmount:       p.VATAmount.StringFixed(2),
			TotalIncVAT:     p.TotalIncVAT.StringFixed(2),
			PhotographerFee: o.PhotographerFee.StringFixed(2),
			ExternalCost:    o.ExternalCost.StringFixed(2),
			InternalCost:    o.InternalCost.StringFixed(2),
			CompanyProfit:   p.CompanyProfit.StringFixed(2),
			MarginPercent:   p.ProfitMarginPercent.StringFixed(2),
			Invoiced:        o.IsInvoiced(),
		}
		if o.ScheduledDate != nil {
			row.ScheduledDate = o.ScheduledDate.Format(csvDate)
		}
		rows = append(rows, row)
	}
	return rows
}

func invoiceCSVRows(invoices []core.Invoice) []InvoiceCSVRow {
	rows := make([]InvoiceCSVRow, 0, len(invoices))
	for i := range invoices {
		inv := &invoices[i]
		row := InvoiceCSVRow{
			InvoiceNumber: inv.InvoiceNumber,
			Status:        string(inv.Status),
			CustomerName:  inv.CustomerName,
			IssueDate:     inv.IssueDate.Format(csvDate),
			DueDate:       inv.DueDate.Format(csvDate),
			OrderCount:    inv.OrderCount,
			Subtotal:      inv.Subtotal.StringFixed(2),
			VATAmount:     inv.VATAmount.StringFixed(2),
			Total:         inv.Total.StringFixed(2),
		}
		if inv.IsPeriodInvoice() {
			row.Period = inv.PeriodStart.Format("2006-01")
		}
		rows = append(rows, row)
	}
	return rows
}

func (s *appService) ExportOrdersCSV(ctx context.Context, w io.Writer, companyCode string, year, month int) error {
	start, end, err := core.BillingPeriod(year, month)
	if err != nil {
		return err
	}
	orders, err := s.orders.GetOrders(ctx, companyCode, core.OrderFilter{From: &start, To: &end})
	if err != nil {
		return err
	}
	if err := gocsv.Marshal(orderCSVRows(orders), w); err != nil {
		return fmt.Errorf("failed to write order CSV: %w", err)
	}
	return nil
}

func (s *appService) ExportInvoicesCSV(ctx context.Context, w io.Writer, req ListInvoicesRequest) error {
	filter, err := invoiceFilter(req)
	if err != nil {
		return err
	}
	invoices, err := s.invoices.GetInvoices(ctx, req.CompanyCode, filter)
	if err != nil {
		return err
	}
	if err := gocsv.Marshal(invoiceCSVRows(invoices), w); err != nil {
		return fmt.Errorf("failed to write invoice CSV: %w", err)
	}
	return nil
}
