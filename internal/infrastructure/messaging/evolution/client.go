// Package evolution talks to an Evolution API instance to manage the chat
// group that mirrors a community.
package evolution

import (
	"context"
	"net/url"
	"strings"
	"time"
	"unicode"

	sonic "github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/riskibarqy/domatch/internal/platform/logging"
	"github.com/riskibarqy/domatch/internal/platform/resilience"
	"github.com/riskibarqy/domatch/internal/usecase"
)

const maxErrorBody = 512

var errTransient = errors.New("evolution transient failure")

type ClientConfig struct {
	BaseURL        string
	APIKey         string
	Instance       string
	Timeout        time.Duration
	Retry          resilience.RetryPolicy
	CircuitBreaker resilience.CircuitBreakerConfig
	Logger         *logging.Logger
}

// Client implements usecase.MessagingGateway.
type Client struct {
	http           *fasthttp.Client
	baseURL        string
	apiKey         string
	instance       string
	timeout        time.Duration
	retry          resilience.RetryPolicy
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	logger         *logging.Logger
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	instance := strings.TrimSpace(cfg.Instance)
	if instance == "" {
		instance = "domatch"
	}
	breakerCfg := cfg.CircuitBreaker.Normalized()

	return &Client{
		http: &fasthttp.Client{
			Name:                "domatch",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
		},
		baseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:         strings.TrimSpace(cfg.APIKey),
		instance:       instance,
		timeout:        timeout,
		retry:          cfg.Retry,
		breaker:        resilience.NewCircuitBreaker("evolution", breakerCfg),
		circuitEnabled: breakerCfg.Enabled,
		logger:         logger.Named("evolution"),
	}
}

// Breaker exposes the circuit breaker so its state can be exported.
func (c *Client) Breaker() *resilience.CircuitBreaker {
	return c.breaker
}

type createGroupRequest struct {
	Subject      string   `json:"subject"`
	Description  string   `json:"description,omitempty"`
	Participants []string `json:"participants"`
}

type createGroupResponse struct {
	GroupID string `json:"groupId"`
	ID      string `json:"id"`
}

type participantRequest struct {
	GroupID     string `json:"groupId"`
	Participant string `json:"participant"`
}

type textMessageRequest struct {
	Number      string         `json:"number"`
	Options     messageOptions `json:"options"`
	TextMessage textMessage    `json:"textMessage"`
}

type messageOptions struct {
	Delay    int    `json:"delay"`
	Presence string `json:"presence"`
}

type textMessage struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Message any `json:"message"`
	Error   any `json:"error"`
}

func (c *Client) CreateGroup(ctx context.Context, name, description string, participants []string) (string, error) {
	phones := make([]string, 0, len(participants))
	for _, p := range participants {
		if digits := Digits(p); digits != "" {
			phones = append(phones, digits)
		}
	}

	var out createGroupResponse
	err := c.call(ctx, "group/create", createGroupRequest{
		Subject:      strings.TrimSpace(name),
		Description:  strings.TrimSpace(description),
		Participants: phones,
	}, &out)
	if err != nil {
		return "", err
	}

	ref := strings.TrimSpace(out.GroupID)
	if ref == "" {
		ref = strings.TrimSpace(out.ID)
	}
	if ref == "" {
		return "", errors.Mark(errors.New("evolution create group: response has no group id"), usecase.ErrRemoteUnavailable)
	}
	return ref, nil
}

func (c *Client) AddParticipant(ctx context.Context, groupRef, phone string) error {
	return c.call(ctx, "group/add-participant", participantRequest{GroupID: groupRef, Participant: Digits(phone)}, nil)
}

func (c *Client) RemoveParticipant(ctx context.Context, groupRef, phone string) error {
	return c.call(ctx, "group/remove-participant", participantRequest{GroupID: groupRef, Participant: Digits(phone)}, nil)
}

func (c *Client) SendMessage(ctx context.Context, phone, text string) error {
	return c.call(ctx, "message/text", textMessageRequest{
		Number:      Digits(phone),
		Options:     messageOptions{Delay: 1200, Presence: "composing"},
		TextMessage: textMessage{Text: text},
	}, nil)
}

// call posts payload to {base}/{endpoint}/{instance} under the breaker with
// retries and decodes a 2xx body into target when target is non-nil.
func (c *Client) call(ctx context.Context, endpoint string, payload, target any) error {
	if c.baseURL == "" {
		return errors.Mark(errors.New("evolution base url is not configured"), usecase.ErrRemoteUnavailable)
	}
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "evolution circuit breaker rejected request", "endpoint", endpoint, "state", string(c.breaker.State()))
			return errors.Mark(errors.Wrap(err, "messaging gateway is temporarily unavailable"), usecase.ErrRemoteUnavailable)
		}
	}

	body, err := sonic.Marshal(payload)
	if err != nil {
		return errors.Wrapf(err, "marshal %s request", endpoint)
	}
	fullURL := c.baseURL + "/" + endpoint + "/" + url.PathEscape(c.instance)

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(attribute.String("evolution.endpoint", endpoint))
	}

	var raw []byte
	err = resilience.Retry(ctx, c.retry, func(ctx context.Context, attempt int) error {
		var reqErr error
		raw, reqErr = c.post(ctx, fullURL, body)
		if reqErr != nil && attempt > 0 {
			c.logger.DebugContext(ctx, "evolution retry failed", "endpoint", endpoint, "attempt", attempt, "error", reqErr)
		}
		return reqErr
	})
	c.recordCircuitResult(err)
	if err != nil {
		c.logger.WarnContext(ctx, "evolution request failed", "endpoint", endpoint, "error", err)
		return errors.Mark(errors.Wrapf(err, "evolution %s", endpoint), usecase.ErrRemoteUnavailable)
	}

	if target == nil || len(raw) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return errors.Mark(errors.Wrapf(err, "decode %s response", endpoint), usecase.ErrRemoteUnavailable)
	}
	return nil
}

func (c *Client) post(ctx context.Context, fullURL string, body []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.SetRequestURI(fullURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apikey", c.apiKey)
	req.SetBody(body)

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := ctx.Err(); err != nil {
		return nil, resilience.Permanent(err)
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "send request"), errTransient)
	}

	status := resp.StatusCode()
	raw := append([]byte(nil), resp.Body()...)
	if status >= 200 && status < 300 {
		return raw, nil
	}

	statusErr := errors.Newf("status=%d message=%s", status, errorMessage(raw))
	if isRetryableStatus(status) {
		return nil, errors.Mark(statusErr, errTransient)
	}
	return nil, resilience.Permanent(statusErr)
}

// recordCircuitResult counts transport errors, 429 and 5xx only; a rejected
// request says nothing about the gateway's health.
func (c *Client) recordCircuitResult(err error) {
	if !c.circuitEnabled {
		return
	}
	if err != nil && errors.Is(err, errTransient) {
		c.breaker.RecordFailure()
		return
	}
	c.breaker.RecordSuccess()
}

func isRetryableStatus(status int) bool {
	return status == fasthttp.StatusTooManyRequests || status >= 500
}

func errorMessage(raw []byte) string {
	var decoded errorResponse
	if err := sonic.Unmarshal(raw, &decoded); err == nil {
		for _, v := range []any{decoded.Message, decoded.Error} {
			switch msg := v.(type) {
			case string:
				if msg != "" {
					return msg
				}
			case []any:
				if len(msg) > 0 {
					if s, ok := msg[0].(string); ok {
						return s
					}
				}
			}
		}
	}
	text := strings.TrimSpace(string(raw))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}
	return text
}

// Digits strips everything but ASCII digits: the gateway addresses numbers
// without the leading '+' or separators.
func Digits(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for _, r := range phone {
		if r < unicode.MaxASCII && unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
