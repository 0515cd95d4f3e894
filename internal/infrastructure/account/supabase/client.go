// Package supabase verifies access tokens issued by a Supabase auth server.
package supabase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/riskibarqy/domatch/internal/domain/user"
	"github.com/riskibarqy/domatch/internal/platform/cache"
	"github.com/riskibarqy/domatch/internal/platform/logging"
	"github.com/riskibarqy/domatch/internal/platform/resilience"
	"github.com/riskibarqy/domatch/internal/usecase"
)

const userPath = "/auth/v1/user"

var errTransient = errors.New("supabase transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	AnonKey        string
	Timeout        time.Duration
	CacheTTL       time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
	Logger         *logging.Logger
}

// Client implements user.TokenVerifier. Verified principals are cached by
// token hash until CacheTTL elapses or Forget is called.
type Client struct {
	httpClient     *http.Client
	userURL        string
	anonKey        string
	cache          *cache.Store
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	logger         *logging.Logger
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = cfg.Timeout
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 5 * time.Second
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	breakerCfg := cfg.CircuitBreaker.Normalized()

	return &Client{
		httpClient:     httpClient,
		userURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/") + userPath,
		anonKey:        strings.TrimSpace(cfg.AnonKey),
		cache:          cache.NewStore(ttl),
		breaker:        resilience.NewCircuitBreaker("supabase", breakerCfg),
		circuitEnabled: breakerCfg.Enabled,
		logger:         logger.Named("supabase"),
	}
}

func (c *Client) Breaker() *resilience.CircuitBreaker {
	return c.breaker
}

func (c *Client) VerifyAccessToken(ctx context.Context, token string) (user.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return user.Principal{}, errors.Mark(errors.New("token is required"), usecase.ErrUnauthorized)
	}

	return cache.Load(ctx, c.cache, cacheKey(token), func(ctx context.Context) (user.Principal, error) {
		return c.fetchUser(ctx, token)
	})
}

func (c *Client) Forget(token string) {
	token = strings.TrimSpace(token)
	if token == "" {
		return
	}
	c.cache.Delete(context.Background(), cacheKey(token))
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (c *Client) fetchUser(ctx context.Context, token string) (user.Principal, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "supabase circuit breaker rejected request", "state", string(c.breaker.State()))
			return user.Principal{}, errors.Mark(errors.Wrap(err, "auth provider is temporarily unavailable"), usecase.ErrRemoteUnavailable)
		}
	}

	principal, err := c.requestUser(ctx, token)
	if c.circuitEnabled {
		if err != nil && errors.Is(err, errTransient) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	if err != nil && errors.Is(err, errTransient) {
		c.logger.WarnContext(ctx, "supabase user lookup failed", "error", err)
		return user.Principal{}, errors.Mark(err, usecase.ErrRemoteUnavailable)
	}
	return principal, err
}

func (c *Client) requestUser(ctx context.Context, token string) (user.Principal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userURL, nil)
	if err != nil {
		return user.Principal{}, errors.Wrap(err, "create user request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return user.Principal{}, errors.Mark(errors.Wrap(err, "request supabase user"), errTransient)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return user.Principal{}, errors.Mark(errors.Wrap(err, "read supabase user response"), errTransient)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return user.Principal{}, errors.Mark(errors.New("access token rejected"), usecase.ErrUnauthorized)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return user.Principal{}, errors.Mark(errors.Newf("supabase user lookup status=%d", resp.StatusCode), errTransient)
	case resp.StatusCode != http.StatusOK:
		return user.Principal{}, errors.Mark(errors.Newf("supabase user lookup status=%d", resp.StatusCode), usecase.ErrUnauthorized)
	}

	var decoded userResponse
	if err := sonic.Unmarshal(body, &decoded); err != nil {
		return user.Principal{}, errors.Mark(errors.Wrap(err, "decode supabase user response"), errTransient)
	}
	if strings.TrimSpace(decoded.ID) == "" {
		return user.Principal{}, errors.Mark(errors.New("supabase user response has no id"), errTransient)
	}

	return user.Principal{
		UserID:      decoded.ID,
		Email:       decoded.Email,
		AccessToken: token,
	}, nil
}

func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "token:" + hex.EncodeToString(sum[:])
}
