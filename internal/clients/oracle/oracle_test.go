package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/starbound-health/navigator-backend/internal/classify"
	"github.com/starbound-health/navigator-backend/internal/pkg/logger"
	"github.com/starbound-health/navigator-backend/internal/taxonomy"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	logg, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return logg
}

func TestClassifyDecodesTags(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/classify" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req ClassifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(ClassifyResponse{
			Tags: []classify.DomainTag{
				{Domain: taxonomy.DomainSymptomsBodySignals, Confidence: 0.82},
			},
			Rationale: "symptom language",
		})
	}))
	defer srv.Close()

	c := NewClientWithBase(testLogger(t), srv.URL, time.Second)
	got, err := c.Classify(context.Background(), ClassifyRequest{
		EventID: uuid.New(),
		Text:    "my head hurts again",
	})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if len(got.Tags) != 1 || got.Tags[0].Domain != taxonomy.DomainSymptomsBodySignals {
		t.Fatalf("unexpected tags: %+v", got.Tags)
	}
}

func TestClassifySurfacesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClientWithBase(testLogger(t), srv.URL, time.Second)
	if _, err := c.Classify(context.Background(), ClassifyRequest{Text: "hi"}); err == nil {
		t.Fatalf("expected an error on 500")
	}
}

func TestClassifyTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClientWithBase(testLogger(t), srv.URL, 20*time.Millisecond)
	if _, err := c.Classify(context.Background(), ClassifyRequest{Text: "hi"}); err == nil {
		t.Fatalf("expected a timeout error")
	}
}
