// Package oracle is the HTTP client for the external classification
// model. The oracle only ever advises: the local pipeline validates every
// tag and candidate it returns, and degrades to local heuristics when the
// oracle is slow or down.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/starbound-health/navigator-backend/internal/classify"
	"github.com/starbound-health/navigator-backend/internal/extract"
	"github.com/starbound-health/navigator-backend/internal/pkg/logger"
	"github.com/starbound-health/navigator-backend/internal/utils"
)

type Client interface {
	Classify(ctx context.Context, req ClassifyRequest) (*ClassifyResponse, error)
}

type ClassifyRequest struct {
	EventID        uuid.UUID `json:"event_id"`
	Text           string    `json:"text"`
	ProfileSummary any       `json:"profile_summary,omitempty"`
}

type ClassifyResponse struct {
	Tags       []classify.DomainTag  `json:"tags"`
	Candidates []extract.Candidate   `json:"candidates"`
	Missing    []extract.MissingInfo `json:"missing"`
	Rationale  string                `json:"rationale,omitempty"`
}

type client struct {
	log     *logger.Logger
	http    *http.Client
	baseURL string
}

func NewClient(logg *logger.Logger) Client {
	clientLog := logg.With("service", "OracleClient")
	baseURL := utils.GetEnv("ORACLE_URL", "http://localhost:8090", logg)
	timeout := utils.GetEnvAsInt("ORACLE_TIMEOUT_MS", 2500, logg)

	return &client{
		log:     clientLog,
		baseURL: baseURL,
		http: &http.Client{
			Timeout: time.Duration(timeout) * time.Millisecond,
		},
	}
}

// NewClientWithBase is used by tests to point at a fake server.
func NewClientWithBase(logg *logger.Logger, baseURL string, timeout time.Duration) Client {
	return &client{
		log:     logg.With("service", "OracleClient"),
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *client) Classify(ctx context.Context, req ClassifyRequest) (*ClassifyResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal oracle request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/classify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build oracle request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("oracle call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oracle returned status %d", resp.StatusCode)
	}

	var out ClassifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode oracle response: %w", err)
	}
	return &out, nil
}
