package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"agriprice-lab/internal/feature"
)

// ModelScorer delegates scoring to an external inference service
// hosting the trained regression model. The model is opaque to the
// engine: one vector in, one price out, no visible state.
//
// Model metadata (version, expected input width) is fetched once and
// reused across all forecasts; Reload discards it for model-version
// upgrades. Scoring is fail-fast with no retries — an inference failure
// aborts the calling forecast.
type ModelScorer struct {
	baseURL string
	client  *http.Client

	mu   sync.Mutex
	info *modelInfo
}

// modelInfo is the inference service's model descriptor.
type modelInfo struct {
	ModelVersion string `json:"model_version"`
	InputDim     int    `json:"input_dim"`
}

type predictRequest struct {
	FeatureVector []float64 `json:"feature_vector"`
}

type predictResponse struct {
	PredictedPrice float64 `json:"predicted_price"`
	Error          string  `json:"error,omitempty"`
}

// NewModelScorer creates a scorer against the inference service at
// baseURL.
func NewModelScorer(baseURL string) *ModelScorer {
	return &ModelScorer{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Compile-time interface check.
var _ Scorer = (*ModelScorer)(nil)

// Score posts the feature vector to the inference service and returns
// the clamped prediction. The vector width is checked against the
// loaded model's input dimension first; a mismatch is a deployment
// configuration bug, not a per-request condition.
func (m *ModelScorer) Score(ctx context.Context, in Input) (float64, error) {
	info, err := m.loadInfo(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: load model info: %v", ErrScorerFailure, err)
	}

	if len(in.Features) != info.InputDim {
		return 0, fmt.Errorf("%w: vector has %d dimensions, model %s expects %d",
			feature.ErrSchemaMismatch, len(in.Features), info.ModelVersion, info.InputDim)
	}

	body, err := json.Marshal(predictRequest{FeatureVector: in.Features})
	if err != nil {
		return 0, fmt.Errorf("%w: encode request: %v", ErrScorerFailure, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("%w: build request: %v", ErrScorerFailure, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrScorerFailure, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("%w: read response: %v", ErrScorerFailure, err)
	}

	var out predictResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return 0, fmt.Errorf("%w: parse response: %v", ErrScorerFailure, err)
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error != "" {
			return 0, fmt.Errorf("%w: inference service: %s", ErrScorerFailure, out.Error)
		}
		return 0, fmt.Errorf("%w: inference service returned status %d", ErrScorerFailure, resp.StatusCode)
	}

	return clampPrice(out.PredictedPrice), nil
}

// Version returns the loaded model version, empty until the first
// successful metadata load.
func (m *ModelScorer) Version() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.info == nil {
		return ""
	}
	return m.info.ModelVersion
}

// Prime fetches the model metadata eagerly so the first forecast does
// not pay the load, and so startup fails loudly if the service is
// misconfigured.
func (m *ModelScorer) Prime(ctx context.Context) error {
	_, err := m.loadInfo(ctx)
	return err
}

// Reload discards the cached model metadata. The next score fetches it
// again; call when the inference service is upgraded to a new model
// version.
func (m *ModelScorer) Reload() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.info = nil
}

func (m *ModelScorer) loadInfo(ctx context.Context) (*modelInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.info != nil {
		return m.info, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/model", nil)
	if err != nil {
		return nil, fmt.Errorf("build model info request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch model info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch model info: unexpected status %d", resp.StatusCode)
	}

	var info modelInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("parse model info: %w", err)
	}
	if info.ModelVersion == "" || info.InputDim <= 0 {
		return nil, fmt.Errorf("invalid model info: version=%q input_dim=%d", info.ModelVersion, info.InputDim)
	}

	m.info = &info
	return m.info, nil
}
