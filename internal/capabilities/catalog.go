package capabilities

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"chatbot/internal/domain/models"
)

// Loader produces a fresh registry.
type Loader func(ctx context.Context) (*Registry, error)

// EmbeddedLoader loads the catalog compiled into the binary.
func EmbeddedLoader() Loader {
	return func(context.Context) (*Registry, error) {
		return NewRegistry()
	}
}

// HTTPLoader fetches a multi-document YAML catalog from url.
func HTTPLoader(client *http.Client, url string) Loader {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return func(ctx context.Context) (*Registry, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch catalog: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetch catalog: status %d", resp.StatusCode)
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
		return Parse(data)
	}
}

// Catalog is the process-wide model catalog. It is loaded on first use and
// reloaded once it is older than ttl. Concurrent callers share one load.
type Catalog struct {
	load   Loader
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group

	mu       sync.RWMutex
	registry *Registry
	loadedAt time.Time

	now func() time.Time
}

// NewCatalog creates a catalog. Nothing is loaded until Get is called.
func NewCatalog(load Loader, ttl time.Duration, logger *slog.Logger) *Catalog {
	return &Catalog{
		load:   load,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Get returns the cached registry, loading it when missing or stale. When a
// reload fails and a previous registry exists, the previous one is returned.
func (c *Catalog) Get(ctx context.Context) (*Registry, error) {
	c.mu.RLock()
	reg, loadedAt := c.registry, c.loadedAt
	c.mu.RUnlock()

	if reg != nil && c.now().Sub(loadedAt) < c.ttl {
		return reg, nil
	}

	v, err, _ := c.group.Do("catalog", func() (interface{}, error) {
		fresh, err := c.load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.registry, c.loadedAt = fresh, c.now()
		c.mu.Unlock()
		c.logger.Debug("model catalog loaded", "providers", fresh.GetAllProviders())
		return fresh, nil
	})
	if err != nil {
		if reg != nil {
			c.logger.Warn("model catalog refresh failed, keeping previous", "error", err)
			return reg, nil
		}
		return nil, err
	}
	return v.(*Registry), nil
}

// Enrich prices usage for provider/model. Any failure leaves usage as it
// was: pricing is informational and must never fail a generation.
func (c *Catalog) Enrich(ctx context.Context, provider, model string, usage models.Usage) models.Usage {
	usage.ModelID = model

	reg, err := c.Get(ctx)
	if err != nil {
		c.logger.Debug("usage enrichment skipped", "reason", "catalog unavailable", "error", err)
		return usage
	}
	caps, err := reg.GetModelCapabilities(provider, model)
	if err != nil {
		c.logger.Debug("usage enrichment skipped", "reason", "model not in catalog", "model", model)
		return usage
	}
	return Price(caps, usage)
}

// Price fills the cost fields of usage from the model's text pricing.
func Price(caps *ModelCapabilities, usage models.Usage) models.Usage {
	usage.ContextWindow = caps.ContextWindow

	tier, ok := caps.TierFor(usage.InputTokens)
	if !ok {
		return usage
	}
	inPrice, inOK := tier.InputPrice["text"]
	outPrice, outOK := tier.OutputPrice["text"]
	if !inOK || !outOK {
		return usage
	}

	in := float64(usage.InputTokens) * inPrice / 1e6
	out := float64(usage.OutputTokens) * outPrice / 1e6
	total := in + out
	usage.InputCostUSD, usage.OutputCostUSD, usage.TotalCostUSD = &in, &out, &total
	return usage
}
