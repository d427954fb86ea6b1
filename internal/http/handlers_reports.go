package http

import (
	"bytes"
	"net/http"
	"strconv"

	"financas/internal/report"
	"financas/internal/services"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	hh, err := household(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := ParsePeriodParam(r.URL.Query(), "month", s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := s.svc.Dashboard(r.Context(), hh.ID, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleMonthItems(w http.ResponseWriter, r *http.Request) {
	hh, err := household(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	p, err := ParsePeriodParam(q, "month", s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter, err := ParseItemFilter(q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, err := s.svc.MonthItems(r.Context(), hh.ID, p, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(items))
}

// handleExportCSV renders the filtered month items as a CSV download. The
// body is built before any header is sent so failures still get a JSON error.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	hh, err := household(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	p, err := ParsePeriodParam(q, "month", s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter, err := ParseItemFilter(q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := s.svc.MonthReport(r.Context(), hh, p, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, hh, rep.Items); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.Filename(p)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleComparison(w http.ResponseWriter, r *http.Request) {
	hh, err := household(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := ParsePeriodParam(r.URL.Query(), "month", s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	cmp, err := s.svc.Comparison(r.Context(), hh.ID, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	hh, err := household(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	end, err := ParsePeriodParam(q, "month", s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	months, err := ParseIntParam(q, "months", defaultTrendMonths, 1, services.MaxTrendMonths)
	if err != nil {
		writeError(w, r, err)
		return
	}
	trend, err := s.svc.Trend(r.Context(), hh.ID, end, months)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trend)
}

func (s *Server) handleFixedStatus(w http.ResponseWriter, r *http.Request) {
	hh, err := household(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := ParsePeriodParam(r.URL.Query(), "month", s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	status, err := s.svc.DueStatus(r.Context(), hh.ID, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(status))
}

func (s *Server) handleSettlementTotals(w http.ResponseWriter, r *http.Request) {
	hh, err := household(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	year, err := ParseIntParam(q, "year", s.now().Year(), 1, 9999)
	if err != nil {
		writeError(w, r, err)
		return
	}
	totals, err := s.svc.SettlementTotals(r.Context(), hh.ID, year, ParseOwnerParam(q))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}
