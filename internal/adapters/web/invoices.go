package web

import (
	"context"
	"io"
	"net/http"

	"photo-agency/internal/app"
)

// apiListInvoices handles GET /api/companies/{code}/invoices?status=&customer_id=.
func (h *Handler) apiListInvoices(w http.ResponseWriter, r *http.Request) {
	req, ok := invoiceListRequest(w, r)
	if !ok {
		return
	}
	result, err := h.svc.ListInvoices(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Invoices)
}

// apiExportInvoices handles GET /api/companies/{code}/invoices/export.
func (h *Handler) apiExportInvoices(w http.ResponseWriter, r *http.Request) {
	req, ok := invoiceListRequest(w, r)
	if !ok {
		return
	}
	writeCSV(w, r, "invoices.csv", func(out io.Writer) error {
		return h.svc.ExportInvoicesCSV(r.Context(), out, req)
	})
}

func invoiceListRequest(w http.ResponseWriter, r *http.Request) (app.ListInvoicesRequest, bool) {
	customerID, ok := queryInt(w, r, "customer_id")
	if !ok {
		return app.ListInvoicesRequest{}, false
	}
	return app.ListInvoicesRequest{
		CompanyCode: companyCode(r),
		Status:      r.URL.Query().Get("status"),
		CustomerID:  customerID,
	}, true
}

// apiCreatePeriodInvoice handles POST /api/companies/{code}/invoices/period.
// Body: { customer_id, year, month }.
func (h *Handler) apiCreatePeriodInvoice(w http.ResponseWriter, r *http.Request) {
	var req app.CreatePeriodInvoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CompanyCode = companyCode(r)

	result, err := h.svc.CreatePeriodInvoice(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, result.Invoice)
}

// apiCreateOrderInvoice handles POST /api/companies/{code}/invoices/order.
// Body: { order_id }.
func (h *Handler) apiCreateOrderInvoice(w http.ResponseWriter, r *http.Request) {
	var body app.CreateOrderInvoiceRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	h.createOrderInvoice(w, r, body.OrderID)
}

func (h *Handler) createOrderInvoice(w http.ResponseWriter, r *http.Request, orderID int) {
	result, err := h.svc.CreateOrderInvoice(r.Context(), companyCode(r), orderID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, result.Invoice)
}

// apiGetInvoice handles GET /api/companies/{code}/invoices/{id}.
func (h *Handler) apiGetInvoice(w http.ResponseWriter, r *http.Request) {
	h.invoiceAction(w, r, h.svc.GetInvoice)
}

// apiSendInvoice handles POST /api/companies/{code}/invoices/{id}/send.
func (h *Handler) apiSendInvoice(w http.ResponseWriter, r *http.Request) {
	h.invoiceAction(w, r, h.svc.SendInvoice)
}

// apiPayInvoice handles POST /api/companies/{code}/invoices/{id}/pay.
func (h *Handler) apiPayInvoice(w http.ResponseWriter, r *http.Request) {
	h.invoiceAction(w, r, h.svc.PayInvoice)
}

// apiCancelInvoice handles POST /api/companies/{code}/invoices/{id}/cancel.
func (h *Handler) apiCancelInvoice(w http.ResponseWriter, r *http.Request) {
	h.invoiceAction(w, r, h.svc.CancelInvoice)
}

type invoiceOp func(ctx context.Context, companyCode string, invoiceID int) (*app.InvoiceResult, error)

func (h *Handler) invoiceAction(w http.ResponseWriter, r *http.Request, op invoiceOp) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	result, err := op(r.Context(), companyCode(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Invoice)
}
