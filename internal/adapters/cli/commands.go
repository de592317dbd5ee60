package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"photo-agency/internal/app"
	"photo-agency/internal/core"

	"github.com/spf13/cobra"
)

// ── Tenants & users ──────────────────────────────────────────────────────────

func newCompanyCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{Use: "company", Short: "Manage companies (tenants)"}

	var name, currency string
	create := &cobra.Command{
		Use:     "create CODE",
		Short:   "Create a company",
		Example: `  photoagency company create 1000 --name "Nordlys Foto AS"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := st.runtime(cmd.Context())
			if err != nil {
				return err
			}
			c, err := rt.Service.CreateCompany(cmd.Context(), args[0], name, currency)
			if err != nil {
				return err
			}
			return st.print(cmd, c, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "Created company %s (%s, %s)\n", c.CompanyCode, c.Name, c.Currency)
			})
		},
	}
	create.Flags().StringVar(&name, "name", "", "company name")
	create.Flags().StringVar(&currency, "currency", "NOK", "ISO currency code")
	_ = create.MarkFlagRequired("name")

	cmd.AddCommand(create)
	return cmd
}

func newUserCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "Manage back-office users"}

	var req app.CreateUserRequest
	create := &cobra.Command{
		Use:   "create USERNAME",
		Short: "Create a user for the selected company",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, code, err := st.company(cmd.Context())
			if err != nil {
				return err
			}
			req.CompanyCode = code
			req.Username = args[0]
			u, err := rt.Service.CreateUser(cmd.Context(), req)
			if err != nil {
				return err
			}
			return st.print(cmd, u, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s) in company %s\n", u.Username, u.Role, u.CompanyCode)
			})
		},
	}
	create.Flags().StringVar(&req.Email, "email", "", "email address")
	create.Flags().StringVar(&req.Password, "password", "", "initial password (min. 8 characters)")
	create.Flags().StringVar(&req.Role, "role", "ADMIN", "role")
	_ = create.MarkFlagRequired("password")

	cmd.AddCommand(create)
	return cmd
}

// ── Master data ──────────────────────────────────────────────────────────────

func newCustomerCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{Use: "customer", Short: "Manage customers"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List customers",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, code, err := st.company(cmd.Context())
			if err != nil {
				return err
			}
			res, err := rt.Service.ListCustomers(cmd.Context(), code)
			if err != nil {
				return err
			}
			return st.print(cmd, res.Customers, func() { printCustomers(cmd.OutOrStdout(), res.Customers) })
		},
	}

	var req app.CreateCustomerRequest
	var terms int
	create := &cobra.Command{
		Use:   "create CODE NAME",
		Short: "Create a customer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, code, err := st.company(cmd.Context())
			if err != nil {
				return err
			}
			req.CompanyCode, req.Code, req.Name = code, args[0], args[1]
			if cmd.Flags().Changed("terms") {
				req.PaymentTermsDays = &terms
			}
			c, err := rt.Service.CreateCustomer(cmd.Context(), req)
			if err != nil {
				return err
			}
			return st.print(cmd, c, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "Created customer %d %s %s\n", c.ID, c.Code, c.Name)
			})
		},
	}
	create.Flags().StringVar(&req.Email, "email", "", "invoice email address")
	create.Flags().StringVar(&req.Phone, "phone", "", "phone number")
	create.Flags().StringVar(&req.Address, "address", "", "postal address")
	create.Flags().IntVar(&terms, "terms", 0, "payment terms in days (defaults to the agency default)")

	cmd.AddCommand(list, create)
	return cmd
}

func newProductCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{Use: "product", Short: "Manage products"}

	var all bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List products with price and cost structure",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, code, err := st.company(cmd.Context())
			if err != nil {
				return err
			}
			res, err := rt.Service.ListProducts(cmd.Context(), code, all)
			if err != nil {
				return err
			}
			return st.print(cmd, res.Products, func() { printProducts(cmd.OutOrStdout(), res.Products) })
		},
	}
	list.Flags().BoolVar(&all, "all", false, "include inactive products")

	deactivate := &cobra.Command{
		Use:   "deactivate ID",
		Short: "Hide a product from new orders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rt, code, err := st.company(cmd.Context())
			if err != nil {
				return err
			}
			if err := rt.Service.DeactivateProduct(cmd.Context(), code, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Product %d deactivated.\n", id)
			return nil
		},
	}

	cmd.AddCommand(list, deactivate)
	return cmd
}

// ── Orders ───────────────────────────────────────────────────────────────────

func newOrderCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{Use: "order", Short: "Inspect and progress orders"}

	var req app.ListOrdersRequest
	list := &cobra.Command{
		Use:   "list",
		Short: "List orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, code, err := st.company(cmd.Context())
			if err != nil {
				return err
			}
			req.CompanyCode = code
			res, err := rt.Service.ListOrders(cmd.Context(), req)
			if err != nil {
				return err
			}
			return st.print(cmd, res.Orders, func() { printOrders(cmd.OutOrStdout(), res.Orders) })
		},
	}
	list.Flags().StringVar(&req.Status, "status", "", "filter by status")
	list.Flags().IntVar(&req.CustomerID, "customer", 0, "filter by customer ID")
	list.Flags().StringVar(&req.From, "from", "", "scheduled on or after this date")
	list.Flags().StringVar(&req.To, "to", "", "scheduled on or before this date")
	list.Flags().BoolVar(&req.Uninvoiced, "uninvoiced", false, "only orders without an invoice")

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Show an order with lines and profit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rt, code, err := st.company(cmd.Context())
			if err != nil {
				return err
			}
			res, err := rt.Service.GetOrder(cmd.Context(), code, id)
			if err != nil {
				return err
			}
			return st.print(cmd, res, func() { printOrder(cmd.OutOrStdout(), res) })
		},
	}

	status := &cobra.Command{
		Use:     "status ID STATUS",
		Short:   "Move an order to a new status",
		Example: `  photoagency order status 12 DELIVERED`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rt, code, err := st.company(cmd.Context())
			if err != nil {
				return err
			}
			res, err := rt.Service.TransitionOrder(cmd.Context(), code, id, args[1])
			if err != nil {
				return err
			}
			return st.print(cmd, res, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "Order %s is now %s\n", res.Order.OrderNumber, res.Order.Status)
			})
		},
	}

	cmd.AddCommand(list, show, status)
	return cmd
}

// ── Invoices ─────────────────────────────────────────────────────────────────

func newInvoiceCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{Use: "invoice", Short: "Create and manage invoices"}

	var year, month int
	addPeriodFlags := func(c *cobra.Command) {
		c.Flags().IntVar(&year, "year", 0, "billing year (defaults to last month's)")
		c.Flags().IntVar(&month, "month", 0, "billing month 1-12 (defaults to last month)")
	}
	period := func() (int, int) {
		if year == 0 || month == 0 {
			py, pm := core.PreviousMonth(time.Now().UTC())
			if year == 0 {
				year = py
			}
			if month == 0 {
				month = pm
			}
		}
		return year, month
	}

	var customerID int
	periodCmd := &cobra.Command{
		Use:   "period",
		Short: "Consolidate one customer's orders for a month into a single invoice",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, code, err := st.company(cmd.Context())
			if err != nil {
				return err
			}
			y, m := period()
			res, err := rt.Service.CreatePeriodInvoice(cmd.Context(), app.CreatePeriodInvoiceRequest{
				CompanyCode: code, CustomerID: customerID, Year: y, Month: m,
			})
			if err != nil {
				return err
			}
			return st.print(cmd, res.Invoice, func() { printInvoice(cmd.OutOrStdout(), res.Invoice) })
		},
	}
	addPeriodFlags(periodCmd)
	periodCmd.Flags().IntVar(&customerID, "customer", 0, "customer ID")
	_ = periodCmd.MarkFlagRequired("customer")

	run := &cobra.Command{
		Use:   "run",
		Short: "Create period invoices for every customer with eligible orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := st.runtime(cmd.Context())
			if err != nil {
				return err
			}
			y, m := period()
			res, err := rt.Service.RunPeriodInvoicing(cmd.Context(), y, m)
			if err != nil {
				return err
			}
			if err := st.print(cmd, res, func() { printPeriodRun(cmd.OutOrStdout(), res) }); err != nil {
				return err
			}
			if len(res.Failures) > 0 {
				return fmt.Errorf("%d period invoices failed", len(res.Failures))
			}
			return nil
		},
	}
	addPeriodFlags(run)

	order := &cobra.Command{
		Use:   "order ORDER_ID",
		Short: "Invoice a single order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rt, code, err := st.company(cmd.Context())
			if err != nil {
				return err
			}
			res, err := rt.Service.CreateOrderInvoice(cmd.Context(), code, id)
			if err != nil {
				return err
			}
			return st.print(cmd, res.Invoice, func() { printInvoice(cmd.OutOrStdout(), res.Invoice) })
		},
	}

	var listReq app.ListInvoicesRequest
	list := &cobra.Command{
		Use:   "list",
		Short: "List invoices",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, code, err := st.company(cmd.Context())
			if err != nil {
				return err
			}
			listReq.CompanyCode = code
			res, err := rt.Service.ListInvoices(cmd.Context(), listReq)
			if err != nil {
				return err
			}
			return st.print(cmd, res.Invoices, func() { printInvoices(cmd.OutOrStdout(), res.Invoices) })
		},
	}
	list.Flags().StringVar(&listReq.Status, "status", "", "filter by status")
	list.Flags().IntVar(&listReq.CustomerID, "customer", 0, "filter by customer ID")

	type invoiceOp func(app.ApplicationService, context.Context, string, int) (*app.InvoiceResult, error)
	lifecycle := func(use, short string, op invoiceOp) *cobra.Command {
		return &cobra.Command{
			Use:   use + " INVOICE_ID",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				rt, code, err := st.company(cmd.Context())
				if err != nil {
					return err
				}
				res, err := op(rt.Service, cmd.Context(), code, id)
				if err != nil {
					return err
				}
				return st.print(cmd, res.Invoice, func() {
					fmt.Fprintf(cmd.OutOrStdout(), "Invoice %s is now %s\n", res.Invoice.InvoiceNumber, res.Invoice.Status)
				})
			},
		}
	}
	send := lifecycle("send", "Mark an invoice as sent and mail it to the customer", app.ApplicationService.SendInvoice)
	pay := lifecycle("pay", "Mark an invoice as paid", app.ApplicationService.PayInvoice)
	cancel := lifecycle("cancel", "Cancel an invoice", app.ApplicationService.CancelInvoice)

	overdue := &cobra.Command{
		Use:   "overdue",
		Short: "Flag sent invoices past their due date as overdue",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := st.runtime(cmd.Context())
			if err != nil {
				return err
			}
			n, err := rt.Service.MarkOverdueInvoices(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d invoices marked overdue.\n", n)
			return nil
		},
	}

	cmd.AddCommand(periodCmd, run, order, list, send, pay, cancel, overdue)
	return cmd
}

// ── Reporting & export ───────────────────────────────────────────────────────

func newReportCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{Use: "report", Short: "Financial reports"}

	var year, month int
	dashboard := &cobra.Command{
		Use:   "dashboard",
		Short: "Monthly revenue, cost, profit and receivables",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, code, err := st.company(cmd.Context())
			if err != nil {
				return err
			}
			now := time.Now().UTC()
			if year == 0 {
				year = now.Year()
			}
			if month == 0 {
				month = int(now.Month())
			}
			d, err := rt.Service.GetDashboard(cmd.Context(), code, year, month)
			if err != nil {
				return err
			}
			return st.print(cmd, d, func() { printDashboard(cmd.OutOrStdout(), d) })
		},
	}
	dashboard.Flags().IntVar(&year, "year", 0, "year (defaults to current)")
	dashboard.Flags().IntVar(&month, "month", 0, "month (defaults to current)")

	cmd.AddCommand(dashboard)
	return cmd
}

func newExportCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{Use: "export", Short: "Export data as CSV to stdout"}

	var year, month int
	orders := &cobra.Command{
		Use:   "orders",
		Short: "Orders of one month with profit figures",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, code, err := st.company(cmd.Context())
			if err != nil {
				return err
			}
			return rt.Service.ExportOrdersCSV(cmd.Context(), cmd.OutOrStdout(), code, year, month)
		},
	}
	orders.Flags().IntVar(&year, "year", time.Now().Year(), "year")
	orders.Flags().IntVar(&month, "month", int(time.Now().Month()), "month")

	var status string
	invoices := &cobra.Command{
		Use:   "invoices",
		Short: "Invoice headers",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, code, err := st.company(cmd.Context())
			if err != nil {
				return err
			}
			return rt.Service.ExportInvoicesCSV(cmd.Context(), cmd.OutOrStdout(), app.ListInvoicesRequest{
				CompanyCode: code, Status: status,
			})
		},
	}
	invoices.Flags().StringVar(&status, "status", "", "filter by status")

	cmd.AddCommand(orders, invoices)
	return cmd
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid ID %q", s)
	}
	return id, nil
}
