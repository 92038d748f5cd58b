package http

import (
	"errors"
	"html/template"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"stipendio/internal/core"
)

var monthNames = [12]string{
	"Gennaio", "Febbraio", "Marzo", "Aprile", "Maggio", "Giugno",
	"Luglio", "Agosto", "Settembre", "Ottobre", "Novembre", "Dicembre",
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	series, err := s.loadSeries(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Series load error", "error", err)
	}

	data := struct {
		CurrentMonth string
		Target       string
		Years        []int
	}{
		CurrentMonth: time.Now().Format("2006-01"),
		Target:       formatAmount(s.target),
		Years:        series.Years(),
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleUpsertSalary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "method", r.Method, "url", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Formato richiesta non valido</div>`))
		return
	}

	month := core.MonthKey(sanitizeInput(r.Form.Get("month")))
	if err := month.Validate(); err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Mese non valido (atteso AAAA-MM)</div>`))
		return
	}

	amountStr := strings.TrimSpace(r.Form.Get("amount"))
	amount, err := strconv.ParseInt(amountStr, 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Importo non valido</div>`))
		return
	}

	if err := s.store.Upsert(r.Context(), month, amount); err != nil {
		if isValidationError(err) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`<div class="error">Dati non validi: ` + template.HTMLEscapeString(err.Error()) + `</div>`))
			return
		}
		slog.ErrorContext(r.Context(), "Salary upsert error", "error", err, "month", string(month), "amount", amount)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Errore nel salvataggio</div>`))
		return
	}

	s.invalidateSeries()
	w.Header().Set("HX-Trigger", `{"salary:saved": {"month": "`+string(month)+`"}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Stipendio registrato per ` +
		template.HTMLEscapeString(string(month)) + `: ` +
		template.HTMLEscapeString(formatAmount(amount)) + `</div>`))
}

func (s *Server) handleDeleteSalary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "method", r.Method, "url", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Formato richiesta non valido</div>`))
		return
	}

	month := core.MonthKey(sanitizeInput(r.Form.Get("month")))
	if err := month.Validate(); err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Mese non valido (atteso AAAA-MM)</div>`))
		return
	}

	// Deleting an absent month is a no-op, not an error.
	if err := s.store.Delete(r.Context(), month); err != nil {
		slog.ErrorContext(r.Context(), "Salary delete error", "error", err, "month", string(month))
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Errore nella cancellazione</div>`))
		return
	}

	s.invalidateSeries()
	w.Header().Set("HX-Trigger", `{"salary:saved": {"month": "`+string(month)+`"}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Mese ` + template.HTMLEscapeString(string(month)) + ` rimosso</div>`))
}

// handleProgress renders the savings progress partial. With ?year= the bar
// measures that year's total against the target, otherwise the all-time total.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	series, err := s.loadSeries(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Progress series error", "error", err)
		_, _ = w.Write([]byte(`<section id="progress" class="progress"><div class="placeholder">Errore caricando i progressi</div></section>`))
		return
	}

	scope := "Totale"
	yearParam := ""
	total := series.Total()
	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if year, err := strconv.Atoi(v); err == nil {
			total = series.YearTotal(year)
			scope = strconv.Itoa(year)
			yearParam = scope
		}
	}

	prog := core.ComputeProgress(total, s.target)

	data := struct {
		Scope      string
		Year       string
		Total      string
		Target     string
		Percent    int
		Remaining  string
		OverTarget bool
	}{
		Scope:      scope,
		Year:       yearParam,
		Total:      formatAmount(total),
		Target:     formatAmount(s.target),
		Percent:    int(math.Round(prog.Ratio * 100)),
		OverTarget: prog.Remaining < 0,
	}
	if prog.Remaining < 0 {
		data.Remaining = formatAmount(-prog.Remaining)
	} else {
		data.Remaining = formatAmount(prog.Remaining)
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="progress" class="progress"><div class="placeholder">` + template.HTMLEscapeString(data.Total) + ` / ` + template.HTMLEscapeString(data.Target) + `</div></section>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "progress.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "progress.html")
		_, _ = w.Write([]byte(`<section id="progress" class="progress"><div class="placeholder">Errore rendering progressi</div></section>`))
	}
}

// handleYearly renders one year month by month. Absent months render blank:
// a missing record is not a zero salary.
func (s *Server) handleYearly(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	series, err := s.loadSeries(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Yearly series error", "error", err)
		_, _ = w.Write([]byte(`<section id="yearly" class="yearly"><div class="placeholder">Errore caricando il riepilogo</div></section>`))
		return
	}

	year := time.Now().Year()
	if years := series.Years(); len(years) > 0 {
		year = years[0]
	}
	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}

	skeleton := series.MonthlySkeleton(year)
	var maxAmount int64
	for _, slot := range skeleton {
		if slot != nil && *slot > maxAmount {
			maxAmount = *slot
		}
	}

	type row struct {
		Name    string
		Amount  string
		Width   int
		HasData bool
	}
	data := struct {
		Year          int
		Total         string
		MonthAvg      string
		MaxMonth      string
		Target        string
		TargetPercent int
		Rows          []row
	}{
		Year:   year,
		Total:  formatAmount(series.YearTotal(year)),
		Target: formatAmount(s.target),
	}
	// Marker only when the target sits inside the chart scale; otherwise the
	// annotated reference below the chart names it.
	if s.target > 0 && maxAmount > 0 && s.target <= maxAmount {
		data.TargetPercent = barWidth(s.target, maxAmount)
	}

	for _, summary := range series.YearlySummaries() {
		if summary.Year == year {
			data.MonthAvg = formatAmount(summary.MonthAvg)
			data.MaxMonth = formatAmount(summary.MaxMonth)
			break
		}
	}

	for i, slot := range skeleton {
		rw := row{Name: monthNames[i]}
		if slot != nil {
			rw.HasData = true
			rw.Amount = formatAmount(*slot)
			rw.Width = barWidth(*slot, maxAmount)
		}
		data.Rows = append(data.Rows, rw)
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="yearly" class="yearly"><div class="placeholder">` + template.HTMLEscapeString(data.Total) + `</div></section>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "yearly.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "yearly.html", "year", year)
		_, _ = w.Write([]byte(`<section id="yearly" class="yearly"><div class="placeholder">Errore rendering riepilogo</div></section>`))
	}
}

// handleHistory renders the ordered series with running totals plus the
// per-year summary table. ?layout=compact shows the summaries only.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	series, err := s.loadSeries(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "History series error", "error", err)
		_, _ = w.Write([]byte(`<section id="history" class="history"><div class="placeholder">Errore caricando lo storico</div></section>`))
		return
	}

	type point struct {
		Month      string
		Amount     string
		Cumulative string
	}
	type summary struct {
		Year     int
		Total    string
		MonthAvg string
		MaxMonth string
	}
	data := struct {
		Points    []point
		Summaries []summary
		Total     string
		Compact   bool
	}{
		Total:   formatAmount(series.Total()),
		Compact: r.URL.Query().Get("layout") == "compact",
	}

	// Most recent month first for reading convenience.
	if !data.Compact {
		for i := len(series) - 1; i >= 0; i-- {
			p := series[i]
			data.Points = append(data.Points, point{
				Month:      string(p.Month),
				Amount:     formatAmount(p.Amount),
				Cumulative: formatAmount(p.Cumulative),
			})
		}
	}
	for _, ys := range series.YearlySummaries() {
		data.Summaries = append(data.Summaries, summary{
			Year:     ys.Year,
			Total:    formatAmount(ys.Total),
			MonthAvg: formatAmount(ys.MonthAvg),
			MaxMonth: formatAmount(ys.MaxMonth),
		})
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="history" class="history"><div class="placeholder">Totale: ` + template.HTMLEscapeString(data.Total) + `</div></section>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "history.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "history.html")
		_, _ = w.Write([]byte(`<section id="history" class="history"><div class="placeholder">Errore rendering storico</div></section>`))
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, core.ErrInvalidMonthKey) || errors.Is(err, core.ErrNegativeAmount)
}

// barWidth converts an amount to a rounded percent of the row maximum,
// keeping tiny non-zero values visible.
func barWidth(amount, max int64) int {
	if max <= 0 || amount <= 0 {
		return 0
	}
	width := int((amount*100 + max/2) / max)
	if width > 0 && width < 2 {
		width = 2
	}
	if width > 100 {
		width = 100
	}
	return width
}

// formatAmount renders whole currency units with dot-grouped thousands.
func formatAmount(v int64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	digits := strconv.FormatInt(v, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	if neg {
		return "-€ " + b.String()
	}
	return "€ " + b.String()
}
