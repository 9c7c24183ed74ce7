package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gnurante/internal/pipeline"
	"gnurante/internal/translate"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("scrape status %d", rec.Code)
	}
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(body)
}

func TestObserverAndRecorder(t *testing.T) {
	m := New()
	m.ObserveCall("llm", translate.CallOK, 120*time.Millisecond)
	m.ObserveCall("llm", translate.CallTransient, 80*time.Millisecond)
	m.ObserveUnit("llm", false)
	m.ObserveUnit("llm", true)
	m.StageCompleted(pipeline.Translated, time.Second)
	m.RunFinished(pipeline.OutcomeFailed, pipeline.Translated, 2*time.Second)
	m.UnitsSubstituted(3)
	m.RunStarted()

	body := scrape(t, m)
	for _, want := range []string{
		`gnurante_backend_calls_total{backend="llm",result="ok"} 1`,
		`gnurante_backend_calls_total{backend="llm",result="transient"} 1`,
		`gnurante_translation_units_total{backend="llm",outcome="failed"} 1`,
		`gnurante_pipeline_stage_seconds_count{stage="translated"} 1`,
		`gnurante_pipeline_runs_total{outcome="failed",stage="translated"} 1`,
		`gnurante_translation_units_substituted_total 3`,
		`gnurante_pipeline_active_runs 1`,
		`go_goroutines`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("scrape missing %q", want)
		}
	}
}

func TestRequestMiddleware(t *testing.T) {
	m := New()
	handler := RequestMiddleware(m, func(*http.Request) string { return "/v1/subtitles" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/subtitles", nil))

	unmatched := RequestMiddleware(m, nil)(http.NotFoundHandler())
	unmatched.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	body := scrape(t, m)
	for _, want := range []string{
		`gnurante_http_requests_total{code="400",route="/v1/subtitles"} 1`,
		`gnurante_http_requests_total{code="404",route="unmatched"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("scrape missing %q", want)
		}
	}
}
