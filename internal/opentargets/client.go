// Package opentargets is a client for the Open Targets Platform GraphQL API:
// entity name search and drug-target interaction evidence.
package opentargets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/bioinsight/backend/pkg/logger"
	"github.com/bioinsight/backend/pkg/retry"
	"github.com/bioinsight/backend/pkg/utils"
)

const DefaultBaseURL = "https://api.platform.opentargets.org/api/v4/graphql"

// Kind is the entity type passed to the search endpoint.
type Kind string

const (
	KindDrug   Kind = "drug"
	KindTarget Kind = "target"
)

// Hit is a search result. ID is a ChEMBL id for drugs and an Ensembl gene id
// for targets.
type Hit struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Entity string `json:"entity"`
}

// ErrNonOK is returned for any non-200 response.
var ErrNonOK = errors.New("open targets returned non-200 status")

// Cache stores JSON-serialisable values. Lookups that miss return false.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

type Client struct {
	httpClient      *http.Client
	baseURL         string
	searchTimeout   time.Duration
	evidenceTimeout time.Duration
	maxRetries      int
	backoff         time.Duration
	sleep           func(ctx context.Context, d time.Duration) error
	limiter         *rate.Limiter
	cache           Cache
	group           singleflight.Group
}

type Option func(*Client)

func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = url
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeouts(search, evidence time.Duration) Option {
	return func(c *Client) {
		if search > 0 {
			c.searchTimeout = search
		}
		if evidence > 0 {
			c.evidenceTimeout = evidence
		}
	}
}

func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

// WithBackoff sets the delay before the first retry; later retries double it.
// sleep replaces the wait itself when non-nil.
func WithBackoff(initial time.Duration, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		if initial > 0 {
			c.backoff = initial
		}
		c.sleep = sleep
	}
}

// WithRateLimit throttles outgoing requests. A non-positive rps disables it.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithCache(cache Cache) Option {
	return func(c *Client) { c.cache = cache }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:      &http.Client{},
		baseURL:         DefaultBaseURL,
		searchTimeout:   10 * time.Second,
		evidenceTimeout: 15 * time.Second,
		maxRetries:      3,
		backoff:         time.Second,
		limiter:         rate.NewLimiter(rate.Inf, 0),
	}
	for _, opt := range opts {
		opt(c)
	}

	logger.Info("Open Targets client initialized",
		zap.String("base_url", c.baseURL),
		zap.Duration("search_timeout", c.searchTimeout),
		zap.Duration("evidence_timeout", c.evidenceTimeout),
		zap.Int("max_retries", c.maxRetries),
	)
	return c
}

type cachedHit struct {
	Hit   Hit  `json:"hit"`
	Found bool `json:"found"`
}

// SearchEntity returns the first search hit for name. Transport errors,
// non-200 responses and empty hit lists all report false; errors are logged
// and never returned.
func (c *Client) SearchEntity(ctx context.Context, name string, kind Kind) (Hit, bool) {
	key := utils.CacheKey("ot:search", name, string(kind))

	if c.cache != nil {
		var cached cachedHit
		if ok, err := c.cache.Get(ctx, key, &cached); err == nil && ok {
			return cached.Hit, cached.Found
		}
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		return c.search(ctx, name, kind)
	})
	if err != nil {
		logger.Warn("Open Targets search failed",
			zap.String("query", name),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return Hit{}, false
	}

	result := v.(cachedHit)
	if c.cache != nil {
		if err := c.cache.Set(ctx, key, result); err != nil {
			logger.Debug("Failed to cache search hit", zap.Error(err))
		}
	}
	return result.Hit, result.Found
}

func (c *Client) ResolveDrug(ctx context.Context, name string) (Hit, bool) {
	return c.SearchEntity(ctx, name, KindDrug)
}

func (c *Client) ResolveTarget(ctx context.Context, name string) (Hit, bool) {
	return c.SearchEntity(ctx, name, KindTarget)
}

func (c *Client) search(ctx context.Context, name string, kind Kind) (cachedHit, error) {
	var data searchData
	err := c.post(ctx, c.searchTimeout, searchQuery, map[string]any{
		"queryString": name,
		"entityNames": []string{string(kind)},
	}, &data)
	if err != nil {
		return cachedHit{}, err
	}

	if len(data.Search.Hits) == 0 {
		return cachedHit{}, nil
	}
	return cachedHit{Hit: data.Search.Hits[0], Found: true}, nil
}

// post sends one GraphQL request with its own timeout and decodes the data
// member into out.
func (c *Client) post(ctx context.Context, timeout time.Duration, query string, variables map[string]any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: %d", ErrNonOK, resp.StatusCode)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphQLError  `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if len(envelope.Errors) > 0 && len(envelope.Data) == 0 {
		return fmt.Errorf("graphql error: %s", envelope.Errors[0].Message)
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("failed to decode data: %w", err)
	}
	return nil
}

// isTimeout reports whether err came from a deadline rather than a refusal
// or a bad response.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (c *Client) retryConfig(maxRetries int) retry.Config {
	return retry.Config{
		MaxAttempts:  maxRetries,
		InitialDelay: c.backoff,
		MaxDelay:     time.Minute,
		Multiplier:   2,
		ShouldRetry:  isTimeout,
		Logger:       logger.GetLogger(),
		Sleep:        c.sleep,
	}
}
