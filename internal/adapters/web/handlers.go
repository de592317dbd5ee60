package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"photo-agency/internal/app"

	"github.com/go-chi/chi/v5"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	router    chi.Router
	jwtSecret string
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins, jwtSecret string) http.Handler {
	h := &Handler{
		svc:       svc,
		jwtSecret: jwtSecret,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))

	// ── Health & schemas (public) ─────────────────────────────────────────────
	r.Get("/api/health", h.health)
	r.Get("/api/schemas/{name}", h.schema)

	// ── Auth (public API) ─────────────────────────────────────────────────────
	r.With(RequestBodyLimit(1<<16)).Post("/api/auth/login", h.login)
	r.Post("/api/auth/logout", h.logout)

	// ── Protected API routes (return 401 JSON if unauthenticated) ────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		r.Get("/api/auth/me", h.me)

		r.Route("/api/companies/{code}", func(r chi.Router) {
			r.Use(h.RequireCompany)

			// ── Master data ───────────────────────────────────────────────────
			r.Get("/customers", h.apiListCustomers)
			r.Post("/customers", h.apiCreateCustomer)
			r.Get("/products", h.apiListProducts)
			r.Post("/products", h.apiCreateProduct)
			r.Put("/products/{id}", h.apiUpdateProduct)
			r.Delete("/products/{id}", h.apiDeactivateProduct)

			// ── Orders ────────────────────────────────────────────────────────
			r.Post("/quote", h.apiQuoteOrder)
			r.Get("/orders", h.apiListOrders)
			r.Post("/orders", h.apiCreateOrder)
			r.Get("/orders/export", h.apiExportOrders)
			r.Get("/orders/{id}", h.apiGetOrder)
			r.Put("/orders/{id}/lines", h.apiReplaceOrderLines)
			r.Post("/orders/{id}/status", h.apiTransitionOrder)
			r.Post("/orders/{id}/invoice", h.apiInvoiceOrder)

			// ── Invoices ──────────────────────────────────────────────────────
			r.Get("/invoices", h.apiListInvoices)
			r.Get("/invoices/export", h.apiExportInvoices)
			r.Post("/invoices/period", h.apiCreatePeriodInvoice)
			r.Post("/invoices/order", h.apiCreateOrderInvoice)
			r.Get("/invoices/{id}", h.apiGetInvoice)
			r.Post("/invoices/{id}/send", h.apiSendInvoice)
			r.Post("/invoices/{id}/pay", h.apiPayInvoice)
			r.Post("/invoices/{id}/cancel", h.apiCancelInvoice)

			// ── Reporting ─────────────────────────────────────────────────────
			r.Get("/dashboard", h.apiDashboard)
		})
	})

	h.router = r
	return r
}

// health returns service status and the loaded company code.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	company, err := h.svc.LoadDefaultCompany(r.Context())
	companyCode := ""
	if err == nil && company != nil {
		companyCode = company.CompanyCode
	}

	type response struct {
		Status  string `json:"status"`
		Company string `json:"company"`
	}

	writeJSON(w, response{Status: "ok", Company: companyCode})
}

// companyCode extracts the {code} URL parameter.
func companyCode(r *http.Request) string {
	return chi.URLParam(r, "code")
}

// pathID parses a positive integer URL parameter, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id < 1 {
		writeError(w, r, "invalid "+name+": "+chi.URLParam(r, name), "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// queryInt parses an optional integer query parameter; absent means 0.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, r, "invalid "+name+": "+raw, "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return v, true
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
