package web

import (
	"io"
	"net/http"

	"photo-agency/internal/app"
)

// apiQuoteOrder handles POST /api/companies/{code}/quote.
// Body: { products: [{product_id, quantity}] }. Nothing is stored.
func (h *Handler) apiQuoteOrder(w http.ResponseWriter, r *http.Request) {
	var body app.QuoteRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.QuoteOrder(r.Context(), companyCode(r), body.Products)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiListOrders handles GET /api/companies/{code}/orders.
// Query: status, customer_id, from, to, uninvoiced=true.
func (h *Handler) apiListOrders(w http.ResponseWriter, r *http.Request) {
	customerID, ok := queryInt(w, r, "customer_id")
	if !ok {
		return
	}
	q := r.URL.Query()
	result, err := h.svc.ListOrders(r.Context(), app.ListOrdersRequest{
		CompanyCode: companyCode(r),
		Status:      q.Get("status"),
		CustomerID:  customerID,
		From:        q.Get("from"),
		To:          q.Get("to"),
		Uninvoiced:  q.Get("uninvoiced") == "true",
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Orders)
}

// apiGetOrder handles GET /api/companies/{code}/orders/{id}.
func (h *Handler) apiGetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.GetOrder(r.Context(), companyCode(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiCreateOrder handles POST /api/companies/{code}/orders.
func (h *Handler) apiCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req app.CreateOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CompanyCode = companyCode(r)

	result, err := h.svc.CreateOrder(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, result)
}

// apiReplaceOrderLines handles PUT /api/companies/{code}/orders/{id}/lines.
func (h *Handler) apiReplaceOrderLines(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body app.ReplaceLinesRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.ReplaceOrderLines(r.Context(), companyCode(r), id, body.Products)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiTransitionOrder handles POST /api/companies/{code}/orders/{id}/status.
// Body: { status }.
func (h *Handler) apiTransitionOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body app.TransitionRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.TransitionOrder(r.Context(), companyCode(r), id, body.Status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiInvoiceOrder handles POST /api/companies/{code}/orders/{id}/invoice.
func (h *Handler) apiInvoiceOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	h.createOrderInvoice(w, r, id)
}

// apiExportOrders handles GET /api/companies/{code}/orders/export?year=&month=.
func (h *Handler) apiExportOrders(w http.ResponseWriter, r *http.Request) {
	year, month, ok := periodQuery(w, r)
	if !ok {
		return
	}
	writeCSV(w, r, "orders.csv", func(out io.Writer) error {
		return h.svc.ExportOrdersCSV(r.Context(), out, companyCode(r), year, month)
	})
}
