package web

import (
	"net/http"
	"sort"
	"strings"

	"photo-agency/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/invopop/jsonschema"
)

// requestSchemas are the request bodies published under /api/schemas/{name}.
var requestSchemas = map[string]any{
	"customer":       app.CreateCustomerRequest{},
	"product":        app.ProductRequest{},
	"order":          app.CreateOrderRequest{},
	"order-lines":    app.ReplaceLinesRequest{},
	"quote":          app.QuoteRequest{},
	"order-status":   app.TransitionRequest{},
	"period-invoice": app.CreatePeriodInvoiceRequest{},
	"order-invoice":  app.CreateOrderInvoiceRequest{},
	"login":          app.LoginRequest{},
}

func generateSchema(v any) *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return reflector.Reflect(v)
}

// schema handles GET /api/schemas/{name}.
func (h *Handler) schema(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	v, ok := requestSchemas[name]
	if !ok {
		names := make([]string, 0, len(requestSchemas))
		for n := range requestSchemas {
			names = append(names, n)
		}
		sort.Strings(names)
		writeError(w, r, "unknown schema "+name+"; available: "+strings.Join(names, ", "), "NOT_FOUND", http.StatusNotFound)
		return
	}
	writeJSON(w, generateSchema(v))
}
