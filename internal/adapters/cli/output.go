package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"photo-agency/internal/app"
	"photo-agency/internal/core"

	"github.com/spf13/cobra"
)

// print writes v as indented JSON when --json is set, otherwise calls human.
func (st *state) print(cmd *cobra.Command, v any, human func()) error {
	if st.jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	human()
	return nil
}

func rule(w io.Writer, c string) {
	fmt.Fprintln(w, strings.Repeat(c, 78))
}

func printCustomers(w io.Writer, customers []core.Customer) {
	fmt.Fprintf(w, "%-6s %-10s %-30s %-28s\n", "ID", "CODE", "NAME", "EMAIL")
	rule(w, "-")
	for _, c := range customers {
		fmt.Fprintf(w, "%-6d %-10s %-30s %-28s\n", c.ID, c.Code, c.Name, c.Email)
	}
}

func printProducts(w io.Writer, products []core.Product) {
	fmt.Fprintf(w, "%-4s %-10s %-22s %10s %5s %9s %9s %9s %s\n", "ID", "CODE", "NAME", "PRICE", "VAT", "PKE", "PKI", "FEE", "")
	rule(w, "-")
	for _, p := range products {
		inactive := ""
		if !p.IsActive {
			inactive = "(inactive)"
		}
		fmt.Fprintf(w, "%-4d %-10s %-22s %10s %5s %9s %9s %9s %s\n",
			p.ID, p.Code, p.Name, p.PriceExVAT.StringFixed(2), p.VATRate.String(),
			p.ExternalCost.StringFixed(2), p.InternalCost.StringFixed(2), p.PhotographerFee.StringFixed(2), inactive)
	}
}

func printOrders(w io.Writer, orders []core.Order) {
	fmt.Fprintf(w, "%-5s %-10s %-11s %-19s %-20s %12s %s\n", "ID", "NUMBER", "DATE", "STATUS", "CUSTOMER", "EX VAT", "INVOICED")
	rule(w, "-")
	for _, o := range orders {
		date := ""
		if o.ScheduledDate != nil {
			date = o.ScheduledDate.Format("2006-01-02")
		}
		invoiced := ""
		if o.IsInvoiced() {
			invoiced = "yes"
		}
		fmt.Fprintf(w, "%-5d %-10s %-11s %-19s %-20s %12s %s\n",
			o.ID, o.OrderNumber, date, o.Status, o.CustomerName, o.TotalAmount.StringFixed(2), invoiced)
	}
}

func printOrder(w io.Writer, res *app.OrderResult) {
	o := res.Order
	fmt.Fprintln(w)
	rule(w, "=")
	fmt.Fprintf(w, "  ORDER %s  [%s]\n", o.OrderNumber, o.Status)
	fmt.Fprintf(w, "  Customer : %s (%s)\n", o.CustomerName, o.CustomerCode)
	fmt.Fprintf(w, "  Property : %s\n", o.PropertyAddress)
	if o.ScheduledDate != nil {
		fmt.Fprintf(w, "  Scheduled: %s\n", o.ScheduledDate.Format("2006-01-02 15:04"))
	}
	rule(w, "=")
	for _, l := range o.Lines {
		fmt.Fprintf(w, "  %2d  %-10s %-28s %4d x %10s = %12s\n",
			l.LineNumber, l.ProductCode, l.ProductName, l.Quantity, l.UnitPrice.StringFixed(2), l.TotalPrice.StringFixed(2))
	}
	rule(w, "-")
	p := res.Profit
	fmt.Fprintf(w, "  %-30s %14s\n", "Total ex. VAT", p.TotalExVAT.StringFixed(2))
	fmt.Fprintf(w, "  %-30s %14s\n", "VAT", p.VATAmount.StringFixed(2))
	fmt.Fprintf(w, "  %-30s %14s\n", "Total inc. VAT", p.TotalIncVAT.StringFixed(2))
	fmt.Fprintf(w, "  %-30s %14s\n", "Photographer fee", o.PhotographerFee.StringFixed(2))
	fmt.Fprintf(w, "  %-30s %14s\n", "External cost (PKE)", o.ExternalCost.StringFixed(2))
	fmt.Fprintf(w, "  %-30s %14s\n", "Internal cost (PKI)", o.InternalCost.StringFixed(2))
	fmt.Fprintf(w, "  %-30s %14s  (%s%%)\n", "Company profit", p.CompanyProfit.StringFixed(2), p.ProfitMarginPercent.StringFixed(2))
	rule(w, "=")
}

func printInvoices(w io.Writer, invoices []core.Invoice) {
	fmt.Fprintf(w, "%-5s %-15s %-9s %-22s %-11s %-11s %12s\n", "ID", "NUMBER", "STATUS", "CUSTOMER", "ISSUED", "DUE", "TOTAL")
	rule(w, "-")
	for _, inv := range invoices {
		fmt.Fprintf(w, "%-5d %-15s %-9s %-22s %-11s %-11s %12s\n",
			inv.ID, inv.InvoiceNumber, inv.Status, inv.CustomerName,
			inv.IssueDate.Format("2006-01-02"), inv.DueDate.Format("2006-01-02"), inv.Total.StringFixed(2))
	}
}

func printInvoice(w io.Writer, inv *core.Invoice) {
	fmt.Fprintln(w)
	rule(w, "=")
	fmt.Fprintf(w, "  INVOICE %s  [%s]\n", inv.InvoiceNumber, inv.Status)
	fmt.Fprintf(w, "  Customer : %s\n", inv.CustomerName)
	if inv.IsPeriodInvoice() {
		fmt.Fprintf(w, "  Period   : %s to %s (%d orders)\n",
			inv.PeriodStart.Format("2006-01-02"), inv.PeriodEnd.Format("2006-01-02"), inv.OrderCount)
	}
	fmt.Fprintf(w, "  Issued   : %s   Due: %s\n", inv.IssueDate.Format("2006-01-02"), inv.DueDate.Format("2006-01-02"))
	rule(w, "=")
	for _, l := range inv.Lines {
		fmt.Fprintf(w, "  %2d  %-40s %4d x %10s = %12s\n",
			l.LineNumber, l.Description, l.Quantity, l.UnitPrice.StringFixed(2), l.TotalPrice.StringFixed(2))
	}
	rule(w, "-")
	fmt.Fprintf(w, "  %-30s %14s\n", "Subtotal", inv.Subtotal.StringFixed(2))
	fmt.Fprintf(w, "  %-30s %14s\n", "VAT", inv.VATAmount.StringFixed(2))
	fmt.Fprintf(w, "  %-30s %14s\n", "Total", inv.Total.StringFixed(2))
	rule(w, "=")
}

func printPeriodRun(w io.Writer, res *app.PeriodRunResult) {
	fmt.Fprintf(w, "Period %d-%02d: %d invoices created, %d failed\n", res.Year, res.Month, len(res.Invoices), len(res.Failures))
	for _, inv := range res.Invoices {
		fmt.Fprintf(w, "  %-15s %-25s %3d orders %12s\n", inv.InvoiceNumber, inv.CustomerName, inv.OrderCount, inv.Total.StringFixed(2))
	}
	for _, f := range res.Failures {
		fmt.Fprintf(w, "  FAILED company %s customer %d: %s\n", f.CompanyCode, f.CustomerID, f.Error)
	}
}

func printDashboard(w io.Writer, d *core.Dashboard) {
	fmt.Fprintln(w)
	rule(w, "=")
	fmt.Fprintf(w, "  DASHBOARD  %s  %d-%02d\n", d.CompanyCode, d.Year, d.Month)
	rule(w, "=")
	fmt.Fprintf(w, "  %-30s %14d\n", "Orders", d.OrderCount)
	for status, n := range d.OrdersByStatus {
		fmt.Fprintf(w, "    %-28s %14d\n", status, n)
	}
	fmt.Fprintf(w, "  %-30s %14s\n", "Revenue ex. VAT", d.Profit.TotalExVAT.StringFixed(2))
	fmt.Fprintf(w, "  %-30s %14s\n", "Photographer fees", d.PhotographerFee.StringFixed(2))
	fmt.Fprintf(w, "  %-30s %14s\n", "External cost (PKE)", d.ExternalCost.StringFixed(2))
	fmt.Fprintf(w, "  %-30s %14s\n", "Internal cost (PKI)", d.InternalCost.StringFixed(2))
	fmt.Fprintf(w, "  %-30s %14s  (%s%%)\n", "Company profit", d.Profit.CompanyProfit.StringFixed(2), d.Profit.ProfitMarginPercent.StringFixed(2))
	rule(w, "-")
	fmt.Fprintf(w, "  %-30s %5d %8s\n", "Uninvoiced orders", d.UninvoicedOrders, d.UninvoicedAmount.StringFixed(2))
	fmt.Fprintf(w, "  %-30s %5d %8s\n", "Outstanding invoices", d.OutstandingInvoices, d.OutstandingAmount.StringFixed(2))
	fmt.Fprintf(w, "  %-30s %14s\n", "  of which overdue", d.OverdueAmount.StringFixed(2))
	if len(d.TopProducts) > 0 {
		rule(w, "-")
		fmt.Fprintln(w, "  Top products")
		for _, p := range d.TopProducts {
			fmt.Fprintf(w, "    %-10s %-24s %5d %12s\n", p.Code, p.Name, p.Quantity, p.Revenue.StringFixed(2))
		}
	}
	rule(w, "=")
}
