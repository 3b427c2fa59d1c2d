// Package autocomplete fetches query suggestions from a remote
// OpenSearch-style suggestion endpoint.
package autocomplete

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	cb "github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/nikbrunner/spotlight/internal/model"
	"github.com/nikbrunner/spotlight/internal/urlnorm"
)

const (
	DefaultTimeout    = 3 * time.Second
	DefaultRate       = 5.0
	DefaultBurst      = 3
	DefaultMaxResults = 5

	maxBodySize = 64 << 10
)

var (
	ErrUnavailable     = errors.New("autocomplete unavailable")
	ErrInvalidResponse = errors.New("invalid autocomplete response")
)

// Config configures a Client.
type Config struct {
	Endpoint      string // %s is replaced by the escaped query
	SearchURL     string // where a chosen suggestion is searched
	Timeout       time.Duration
	RatePerSecond float64
	MaxResults    int
	HTTPClient    *http.Client
	Logger        *slog.Logger
}

// Client talks to the suggestion endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *cb.CircuitBreaker
	logger     *slog.Logger
}

// NewClient creates a Client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = DefaultRate
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	logger := cfg.Logger

	settings := cb.Settings{
		Name:        "autocomplete",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts cb.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// abandoned keystrokes are not the endpoint's fault
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to cb.State) {
			logger.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	}

	return &Client{
		cfg:        cfg,
		httpClient: cfg.HTTPClient,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RatePerSecond), DefaultBurst),
		breaker:    cb.NewCircuitBreaker(settings),
		logger:     logger,
	}
}

// Suggest returns up to MaxResults autocomplete-suggestion results for
// query. The whole call, including waiting for the rate limiter, is bounded
// by the configured timeout.
func (c *Client) Suggest(ctx context.Context, query string) ([]model.Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	v, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx, query)
	})
	if err != nil {
		if errors.Is(err, cb.ErrOpenState) || errors.Is(err, cb.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, err
	}

	return c.results(v.([]string)), nil
}

// Autocomplete lets the client serve as the provider's remote source.
func (c *Client) Autocomplete(ctx context.Context, query string) ([]model.Result, error) {
	return c.Suggest(ctx, query)
}

func (c *Client) fetch(ctx context.Context, query string) ([]string, error) {
	endpoint := urlnorm.SearchURL(c.cfg.Endpoint, query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	return parse(body)
}

// parse decodes an OpenSearch suggestions document: ["query", ["s1", ...], ...].
func parse(body []byte) ([]string, error) {
	var doc []json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if len(doc) < 2 {
		return nil, ErrInvalidResponse
	}

	var suggestions []string
	if err := json.Unmarshal(doc[1], &suggestions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return suggestions, nil
}

func (c *Client) results(suggestions []string) []model.Result {
	results := make([]model.Result, 0, min(len(suggestions), c.cfg.MaxResults))
	seen := make(map[string]bool)

	for _, s := range suggestions {
		s = strings.TrimSpace(s)
		if s == "" || seen[strings.ToLower(s)] {
			continue
		}
		seen[strings.ToLower(s)] = true

		target := urlnorm.SearchURL(c.cfg.SearchURL, s)
		if urlnorm.LooksLikeURL(s) {
			target = urlnorm.EnsureScheme(s)
		}

		results = append(results, model.NewResult(model.NewResultParams{
			Type:     model.TypeAutocompleteSuggestion,
			Title:    s,
			URL:      target,
			Metadata: model.Metadata{Query: s},
		}))
		if len(results) == c.cfg.MaxResults {
			break
		}
	}
	return results
}
