package web

import (
	"net/http"
	"time"

	"photo-agency/internal/core"
)

// apiDashboard handles GET /api/companies/{code}/dashboard?year=&month=.
// Without a period the current month is used.
func (h *Handler) apiDashboard(w http.ResponseWriter, r *http.Request) {
	year, month, ok := periodQuery(w, r)
	if !ok {
		return
	}
	d, err := h.svc.GetDashboard(r.Context(), companyCode(r), year, month)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, d)
}

// periodQuery reads year and month query parameters, defaulting to the current UTC month.
func periodQuery(w http.ResponseWriter, r *http.Request) (year, month int, ok bool) {
	now := time.Now().UTC()
	if year, ok = queryInt(w, r, "year"); !ok {
		return 0, 0, false
	}
	if month, ok = queryInt(w, r, "month"); !ok {
		return 0, 0, false
	}
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	if _, _, err := core.BillingPeriod(year, month); err != nil {
		writeServiceError(w, r, err)
		return 0, 0, false
	}
	return year, month, true
}
