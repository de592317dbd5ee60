package web

import (
	"net/http"

	"photo-agency/internal/app"
)

// apiListCustomers handles GET /api/companies/{code}/customers.
func (h *Handler) apiListCustomers(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListCustomers(r.Context(), companyCode(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Customers)
}

// apiCreateCustomer handles POST /api/companies/{code}/customers.
func (h *Handler) apiCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req app.CreateCustomerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CompanyCode = companyCode(r)

	customer, err := h.svc.CreateCustomer(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, customer)
}

// apiListProducts handles GET /api/companies/{code}/products?include_inactive=true.
func (h *Handler) apiListProducts(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("include_inactive") == "true"
	result, err := h.svc.ListProducts(r.Context(), companyCode(r), includeInactive)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Products)
}

// apiCreateProduct handles POST /api/companies/{code}/products.
func (h *Handler) apiCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req app.ProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CompanyCode = companyCode(r)

	product, err := h.svc.CreateProduct(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, product)
}

// apiUpdateProduct handles PUT /api/companies/{code}/products/{id}.
func (h *Handler) apiUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req app.ProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CompanyCode = companyCode(r)

	product, err := h.svc.UpdateProduct(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, product)
}

// apiDeactivateProduct handles DELETE /api/companies/{code}/products/{id}.
// Products are deactivated, never removed.
func (h *Handler) apiDeactivateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeactivateProduct(r.Context(), companyCode(r), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
