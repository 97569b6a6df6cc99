package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/rs/zerolog"

	"tbpedia-dashboard/internal/apperr"
	"tbpedia-dashboard/internal/models"
)

// TokenSource yields the bearer credential of the current session.
type TokenSource interface {
	Credential() (string, bool)
}

// Client talks to the marketplace REST API. It is a pure transport: no
// retries, and session consequences are delegated to the unauthorized hook
// installed by WithSession.
type Client struct {
	baseURL        *url.URL
	httpClient     *http.Client
	logger         zerolog.Logger
	tokens         TokenSource
	onUnauthorized func(context.Context)
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("api base url is required")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("api base url %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithSession returns a copy bound to a credential source. Every 401 on an
// authenticated call runs onUnauthorized before the error reaches the caller.
func (c *Client) WithSession(tokens TokenSource, onUnauthorized func(context.Context)) *Client {
	bound := *c
	bound.tokens = tokens
	bound.onUnauthorized = onUnauthorized
	return &bound
}

// Request describes one API call. Query may be url.Values or a struct with
// `url` tags.
type Request struct {
	Method string
	Path   string
	Query  any
	Body   any
	Public bool
}

// Do sends an authenticated request and decodes the envelope content into out.
func (c *Client) Do(ctx context.Context, method, path string, q, body, out any) error {
	return c.Send(ctx, Request{Method: method, Path: path, Query: q, Body: body}, out)
}

// DoPublic sends a request without a credential (sign-in, sign-up).
func (c *Client) DoPublic(ctx context.Context, method, path string, body, out any) error {
	return c.Send(ctx, Request{Method: method, Path: path, Body: body, Public: true}, out)
}

func (c *Client) Send(ctx context.Context, req Request, out any) error {
	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return apperr.Wrap(apperr.KindNetwork, ctx.Err(), "request cancelled")
		}
		c.logger.Warn().Err(err).Str("method", req.Method).Str("path", req.Path).Msg("API request failed")
		return apperr.Wrap(apperr.KindNetwork, err, "")
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("method", req.Method).
		Str("path", req.Path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("API request completed")

	err = decode(resp, out)
	if err != nil && !req.Public && apperr.Is(err, apperr.KindUnauthorized) && c.onUnauthorized != nil {
		c.onUnauthorized(ctx)
	}
	return err
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	// Path segments are expected to be escaped by the caller.
	u, err := url.Parse(c.baseURL.String() + "/" + strings.TrimLeft(req.Path, "/"))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, err, "")
	}

	extra, err := encodeQuery(req.Query)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, err, "")
	}
	if len(extra) > 0 {
		q := u.Query()
		for k, vals := range extra {
			q[k] = vals
		}
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindUnknown, err, "encode request body")
		}
		body = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, err, "")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")

	if !req.Public {
		token, ok := "", false
		if c.tokens != nil {
			token, ok = c.tokens.Credential()
		}
		if !ok || token == "" {
			return nil, apperr.New(apperr.KindUnauthorized, "")
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	return httpReq, nil
}

func encodeQuery(q any) (url.Values, error) {
	switch v := q.(type) {
	case nil:
		return nil, nil
	case url.Values:
		return v, nil
	case interface{ Values() (url.Values, error) }:
		return v.Values()
	default:
		vals, err := query.Values(q)
		if err != nil {
			return nil, fmt.Errorf("encode query: %w", err)
		}
		return vals, nil
	}
}

func decode(resp *http.Response, out any) error {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Wrap(apperr.KindNetwork, err, "")
	}
	raw = bytes.TrimSpace(raw)

	if resp.StatusCode >= 300 {
		e := &apperr.Error{Kind: apperr.FromStatus(resp.StatusCode), Status: resp.StatusCode}
		var env models.Envelope
		if json.Unmarshal(raw, &env) == nil {
			e.Message = firstNonEmpty(env.Message, env.Error)
			e.Fields = fieldErrors(env.Errors)
			if e.Message == "" {
				e.Message = firstField(e.Fields)
			}
		}
		return e
	}

	if len(raw) == 0 {
		return nil
	}
	if !json.Valid(raw) {
		return &apperr.Error{Kind: apperr.KindUnknown, Status: resp.StatusCode, Message: "unexpected response from server"}
	}

	env := models.Envelope{Success: true, Content: raw}
	if enveloped(raw) {
		env = models.Envelope{}
		if err := json.Unmarshal(raw, &env); err != nil {
			return &apperr.Error{Kind: apperr.KindUnknown, Status: resp.StatusCode, Err: err, Message: "unexpected response from server"}
		}
	}
	if !env.Success {
		return &apperr.Error{Kind: apperr.KindUnknown, Status: resp.StatusCode, Message: firstNonEmpty(env.Message, env.Error)}
	}

	if out == nil || len(env.Content) == 0 {
		return nil
	}
	if dst, ok := out.(*json.RawMessage); ok {
		*dst = append((*dst)[:0], env.Content...)
		return nil
	}
	if err := json.Unmarshal(env.Content, out); err != nil {
		return &apperr.Error{Kind: apperr.KindUnknown, Status: resp.StatusCode, Err: err, Message: "unexpected response from server"}
	}
	return nil
}

// enveloped reports whether body uses the {success, content} wrapper. A few
// endpoints answer with the bare resource instead.
func enveloped(body []byte) bool {
	var envelope struct {
		Success *bool            `json:"success"`
		Content *json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return false
	}
	return envelope.Success != nil || envelope.Content != nil
}

// fieldErrors flattens Laravel's {"field": ["msg", ...]} map.
func fieldErrors(errs map[string]any) map[string]string {
	if len(errs) == 0 {
		return nil
	}
	fields := make(map[string]string, len(errs))
	for k, v := range errs {
		switch msg := v.(type) {
		case string:
			fields[k] = msg
		case []any:
			if len(msg) > 0 {
				fields[k] = fmt.Sprint(msg[0])
			}
		}
	}
	return fields
}

func firstField(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return ""
	}
	return fields[keys[0]]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
