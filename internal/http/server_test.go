package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"stipendio/internal/memory"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s := NewServer(":0", memory.NewStore(), 1_500_000)
	t.Cleanup(func() {
		if err := s.Shutdown(context.Background()); err != nil {
			t.Errorf("shutdown: %v", err)
		}
	})
	return s
}

func postForm(s *Server, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func get(s *Server, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func TestUpsertThenProgress(t *testing.T) {
	s := newTestServer(t)

	rec := postForm(s, "/salaries", url.Values{"month": {"2024-01"}, "amount": {"750000"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("upsert status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "2024-01") {
		t.Fatalf("success message should name the month, got %s", rec.Body.String())
	}

	rec = get(s, "/ui/progress")
	if rec.Code != http.StatusOK {
		t.Fatalf("progress status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "50%") {
		t.Fatalf("progress should be at 50%%, got %s", rec.Body.String())
	}
}

func TestProgressYearScoped(t *testing.T) {
	s := newTestServer(t)

	postForm(s, "/salaries", url.Values{"month": {"2024-01"}, "amount": {"750000"}})
	postForm(s, "/salaries", url.Values{"month": {"2025-01"}, "amount": {"600000"}})

	rec := get(s, "/ui/progress?year=2024")
	if rec.Code != http.StatusOK {
		t.Fatalf("progress status = %d", rec.Code)
	}
	body := rec.Body.String()
	// The 2024 total alone against the target, not the cumulative 90%.
	if !strings.Contains(body, "50%") {
		t.Fatalf("year-scoped progress should be 50%%, got %s", body)
	}
	if !strings.Contains(body, "(2024)") {
		t.Fatalf("partial should name its year scope, got %s", body)
	}
	// The scoped partial keeps refreshing in its own scope.
	if !strings.Contains(body, "/ui/progress?year=2024") {
		t.Fatalf("partial should refresh with the year preserved, got %s", body)
	}
}

func TestIndexRendersYearTabs(t *testing.T) {
	s := newTestServer(t)

	postForm(s, "/salaries", url.Values{"month": {"2024-06"}, "amount": {"100000"}})
	postForm(s, "/salaries", url.Values{"month": {"2025-02"}, "amount": {"100000"}})

	body := get(s, "/").Body.String()
	for _, link := range []string{"/ui/yearly?year=2025", "/ui/yearly?year=2024", "/ui/progress?year=2025"} {
		if !strings.Contains(body, link) {
			t.Fatalf("index should link %s, got %s", link, body)
		}
	}
}

func TestUpsertOverwritesSameMonth(t *testing.T) {
	s := newTestServer(t)

	for _, amount := range []string{"100000", "200000"} {
		rec := postForm(s, "/salaries", url.Values{"month": {"2024-05"}, "amount": {amount}})
		if rec.Code != http.StatusOK {
			t.Fatalf("upsert %s status = %d", amount, rec.Code)
		}
	}

	rec := get(s, "/ui/history")
	body := rec.Body.String()
	if strings.Count(body, "2024-05") != 1 {
		t.Fatalf("history should list the month once, got %s", body)
	}
	if !strings.Contains(body, "200.000") {
		t.Fatalf("history should show the latest amount, got %s", body)
	}
}

func TestUpsertRejectsBadInput(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		form url.Values
	}{
		{"bad month format", url.Values{"month": {"January 2024"}, "amount": {"100"}}},
		{"month out of range", url.Values{"month": {"2024-13"}, "amount": {"100"}}},
		{"non-numeric amount", url.Values{"month": {"2024-01"}, "amount": {"lots"}}},
		{"negative amount", url.Values{"month": {"2024-01"}, "amount": {"-5"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postForm(s, "/salaries", tt.form)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422", rec.Code)
			}
		})
	}
}

func TestDeleteMissingMonthIsNoOp(t *testing.T) {
	s := newTestServer(t)

	rec := postForm(s, "/salaries/delete", url.Values{"month": {"2030-01"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d, want 200", rec.Code)
	}
}

func TestDeleteRemovesFromAggregates(t *testing.T) {
	s := newTestServer(t)

	postForm(s, "/salaries", url.Values{"month": {"2024-01"}, "amount": {"100000"}})
	postForm(s, "/salaries", url.Values{"month": {"2024-02"}, "amount": {"50000"}})
	postForm(s, "/salaries/delete", url.Values{"month": {"2024-02"}})

	body := get(s, "/ui/history").Body.String()
	if strings.Contains(body, "2024-02") {
		t.Fatalf("deleted month still in history: %s", body)
	}
}

func TestYearlyRendersBlankForAbsentMonths(t *testing.T) {
	s := newTestServer(t)

	postForm(s, "/salaries", url.Values{"month": {"2024-03"}, "amount": {"120000"}})

	rec := get(s, "/ui/yearly?year=2024")
	if rec.Code != http.StatusOK {
		t.Fatalf("yearly status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Marzo") {
		t.Fatalf("yearly should list all months, got %s", body)
	}
	// Total, month average, and best month in the summary line, plus the
	// march row. Absent months stay blank.
	if got := strings.Count(body, "120.000"); got != 4 {
		t.Fatalf("amount occurrences = %d, want 4: %s", got, body)
	}
	if strings.Contains(body, "€ 0") {
		t.Fatalf("absent months must not render as zero: %s", body)
	}
}

func TestYearlyTargetLine(t *testing.T) {
	// Target within the chart scale: the marker line renders at its
	// position relative to the best month.
	s := NewServer(":0", memory.NewStore(), 100_000)
	t.Cleanup(func() {
		if err := s.Shutdown(context.Background()); err != nil {
			t.Errorf("shutdown: %v", err)
		}
	})

	postForm(s, "/salaries", url.Values{"month": {"2024-01"}, "amount": {"200000"}})

	body := get(s, "/ui/yearly?year=2024").Body.String()
	if !strings.Contains(body, "target-line") {
		t.Fatalf("expected a target marker on the chart, got %s", body)
	}
	if !strings.Contains(body, "left: 50%") {
		t.Fatalf("target at half the best month should sit at 50%%, got %s", body)
	}
}

func TestYearlyTargetBeyondScale(t *testing.T) {
	s := newTestServer(t)

	postForm(s, "/salaries", url.Values{"month": {"2024-01"}, "amount": {"200000"}})

	body := get(s, "/ui/yearly?year=2024").Body.String()
	if strings.Contains(body, "target-line") {
		t.Fatalf("target above every bar must not draw an in-chart marker: %s", body)
	}
	// The annotated reference still names the target.
	if !strings.Contains(body, "1.500.000") {
		t.Fatalf("expected the target annotation, got %s", body)
	}
}

func TestHistoryCompactLayout(t *testing.T) {
	s := newTestServer(t)

	postForm(s, "/salaries", url.Values{"month": {"2024-01"}, "amount": {"100000"}})

	body := get(s, "/ui/history?layout=compact").Body.String()
	if strings.Contains(body, "2024-01") {
		t.Fatalf("compact layout should omit the month table: %s", body)
	}
	if !strings.Contains(body, "2024") {
		t.Fatalf("compact layout should keep the yearly summary: %s", body)
	}
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t)

	rec := get(s, "/")
	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
	} {
		if got := rec.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
}

func TestRateLimitAppliesToWrites(t *testing.T) {
	s := newTestServer(t)

	form := url.Values{"month": {"2024-01"}, "amount": {"1"}}
	var limited bool
	for i := 0; i < 61; i++ {
		if postForm(s, "/salaries", form).Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Fatal("expected a 429 within 61 writes from one client")
	}

	// Reads are never throttled.
	if rec := get(s, "/ui/progress"); rec.Code != http.StatusOK {
		t.Fatalf("read after throttling = %d, want 200", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	if rec := get(s, "/healthz"); rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rec.Code)
	}
	if rec := get(s, "/readyz"); rec.Code != http.StatusOK {
		t.Fatalf("readyz = %d", rec.Code)
	}
}

func TestUpsertRequiresPost(t *testing.T) {
	s := newTestServer(t)

	if rec := get(s, "/salaries"); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /salaries = %d, want 405", rec.Code)
	}
}
