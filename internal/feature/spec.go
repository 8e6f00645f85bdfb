package feature

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

// Spec describes the feature schema a trained model was exported with.
// The catalogs fix the one-hot dimensions, so spec and model must be
// versioned together: a catalog edit without a model re-export is a
// deployment bug surfaced as ErrSchemaMismatch.
type Spec struct {
	ModelVersion      string   `json:"model_version"`
	NumericFeatures   []string `json:"numeric_features"`
	ProductCategories []string `json:"product_categories"`
	CityCategories    []string `json:"city_categories"`
}

// Dim returns the total feature vector width for this spec.
func (s *Spec) Dim() int {
	return NumericCount + len(s.ProductCategories) + len(s.CityCategories)
}

// canonicalNumericFeatures is the only supported numeric layout.
var canonicalNumericFeatures = []string{
	"lag_1", "lag_3", "lag_7",
	"roll7_mean", "roll7_std", "roll10_mean",
	"dow", "dom", "month",
}

// Validate checks that the spec declares the canonical numeric layout
// in the canonical order. Consumers must not reorder slots.
func (s *Spec) Validate() error {
	if len(s.NumericFeatures) != len(canonicalNumericFeatures) {
		return fmt.Errorf("%w: spec declares %d numeric features, want %d",
			ErrSchemaMismatch, len(s.NumericFeatures), len(canonicalNumericFeatures))
	}
	for i, name := range canonicalNumericFeatures {
		if s.NumericFeatures[i] != name {
			return fmt.Errorf("%w: numeric feature %d is %q, want %q",
				ErrSchemaMismatch, i, s.NumericFeatures[i], name)
		}
	}
	if len(s.ProductCategories) == 0 || len(s.CityCategories) == 0 {
		return fmt.Errorf("%w: empty product or city catalog", ErrSchemaMismatch)
	}
	return nil
}

// DefaultSpec returns the catalogs the bundled model was trained on:
// 13 products and 13 cities, 9 + 13 + 13 = 35 total dimensions.
func DefaultSpec() *Spec {
	return &Spec{
		ModelVersion: "XGBoost-ONNX-v1.0",
		NumericFeatures: append([]string(nil), canonicalNumericFeatures...),
		ProductCategories: []string{
			"Apples", "Beef", "Cabbage", "Carrots", "Chicken", "Corn",
			"Cucumbers", "Pears", "Pork", "Potatoes", "Rice", "Tomatoes", "Wheat",
		},
		CityCategories: []string{
			"Changzhou", "Huai'an", "Lianyungang", "Nanjing", "Nantong",
			"Suqian", "Suzhou", "Taizhou", "Wuxi", "Xuzhou", "Yancheng",
			"Yangzhou", "Zhenjiang",
		},
	}
}

// Loader resolves the feature spec artifact from a file path or HTTP
// URL and caches it for the life of the process. Loading once and
// reusing is deliberate: the spec is read on every forecast and the
// artifact only changes on a model-version upgrade, which goes through
// Reload.
type Loader struct {
	source string // file path or http(s) URL; empty means DefaultSpec
	client *http.Client

	mu     sync.Mutex
	cached *Spec
}

// NewLoader creates a loader for the given source. An empty source
// serves the built-in default spec.
func NewLoader(source string) *Loader {
	return &Loader{
		source: source,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Load returns the cached spec, fetching it on first use.
func (l *Loader) Load(ctx context.Context) (*Spec, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cached != nil {
		return l.cached, nil
	}
	return l.reloadLocked(ctx)
}

// Reload drops the cache and fetches the spec again. Call after a
// model-version upgrade.
func (l *Loader) Reload(ctx context.Context) (*Spec, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.cached = nil
	return l.reloadLocked(ctx)
}

func (l *Loader) reloadLocked(ctx context.Context) (*Spec, error) {
	spec, err := l.fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	l.cached = spec
	return spec, nil
}

func (l *Loader) fetch(ctx context.Context) (*Spec, error) {
	if l.source == "" {
		return DefaultSpec(), nil
	}

	var data []byte
	if strings.HasPrefix(l.source, "http://") || strings.HasPrefix(l.source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.source, nil)
		if err != nil {
			return nil, fmt.Errorf("build feature spec request: %w", err)
		}
		resp, err := l.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch feature spec: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetch feature spec: unexpected status %d", resp.StatusCode)
		}
		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read feature spec body: %w", err)
		}
	} else {
		var err error
		data, err = os.ReadFile(l.source)
		if err != nil {
			return nil, fmt.Errorf("read feature spec file: %w", err)
		}
	}

	var spec Spec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse feature spec: %w", err)
	}
	return &spec, nil
}
