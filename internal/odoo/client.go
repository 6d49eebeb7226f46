// Package odoo is a read-only JSON-RPC client for the Odoo contacts model.
package odoo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/ratelimit"

	"contactsync/internal/platform/config"
)

var tracer = otel.Tracer("contactsync/odoo")

// Client talks to the /jsonrpc endpoint of one Odoo server.
type Client struct {
	endpoint        string
	httpClient      *http.Client
	limiter         ratelimit.Limiter
	pageSize        int
	includeArchived bool
	logger          *slog.Logger
	nextID          atomic.Int64
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLimiter replaces the rate limiter built from the config.
func WithLimiter(l ratelimit.Limiter) Option {
	return func(c *Client) {
		if l != nil {
			c.limiter = l
		}
	}
}

// WithLogger sets a logger for call tracing at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New builds a Client for cfg.URL.
func New(cfg config.Odoo, opts ...Option) *Client {
	c := &Client{
		endpoint:        cfg.URL + "/jsonrpc",
		httpClient:      &http.Client{Timeout: cfg.Timeout},
		pageSize:        cfg.PageSize,
		includeArchived: cfg.IncludeArchived,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = ratelimit.New(cfg.RequestsPerSecond)
	} else {
		c.limiter = ratelimit.NewUnlimited()
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Authenticate exchanges credentials for a session. A rejected login is
// reported by Odoo as a false result, not an error payload; both surface as a
// KindAuth error.
func (c *Client) Authenticate(ctx context.Context, creds Credentials) (Session, error) {
	const op = "common.authenticate"
	args := []any{creds.Database, creds.Username, creds.Secret, map[string]any{}}

	var raw json.RawMessage
	if err := c.call(ctx, "common", "authenticate", args, &raw); err != nil {
		return Session{}, newError(KindAuth, op, "authenticate call failed", err)
	}

	trimmed := bytes.TrimSpace(raw)
	if bytes.Equal(trimmed, []byte("false")) || bytes.Equal(trimmed, []byte("null")) || len(trimmed) == 0 {
		return Session{}, newError(KindAuth, op, "credentials rejected for user "+creds.Username, nil)
	}
	var uid int64
	if err := json.Unmarshal(trimmed, &uid); err != nil {
		return Session{}, newError(KindAuth, op, "unexpected authenticate result", err)
	}
	if uid <= 0 {
		return Session{}, newError(KindAuth, op, "credentials rejected for user "+creds.Username, nil)
	}
	return Session{UID: uid, Credentials: creds}, nil
}

// FetchChangedSince returns partners modified at or after since, oldest first.
// A nil since fetches everything. Pages are requested until a short page
// comes back; a failure on any page discards the pages already read.
//
// Pages are keyed on (write_date, id) rather than offsets: each page asks for
// rows strictly after the last row of the previous one. A partner edited
// mid-fetch moves to the end of the ordering and is returned again instead of
// shifting an unseen row out of the window. When that happens only its newest
// copy is kept.
func (c *Client) FetchChangedSince(ctx context.Context, sess Session, since *time.Time) ([]Partner, error) {
	const op = "object.execute_kw"
	ctx, span := tracer.Start(ctx, "odoo.FetchChangedSince")
	defer span.End()

	var base []any
	if since != nil {
		base = append(base, []any{"write_date", ">=", FormatDatetime(*since)})
		span.SetAttributes(attribute.String("odoo.since", FormatDatetime(*since)))
	}

	var (
		partners []Partner
		after    *pageKey
		pages    int
	)
	for {
		kwargs := map[string]any{
			"fields": PartnerFields,
			"domain": after.domain(base),
			"order":  "write_date asc, id asc",
		}
		if c.pageSize > 0 {
			kwargs["limit"] = c.pageSize
		}
		if c.includeArchived {
			kwargs["context"] = map[string]any{"active_test": false}
		}
		args := []any{
			sess.Credentials.Database,
			sess.UID,
			sess.Credentials.Secret,
			PartnerModel,
			"search_read",
			[]any{},
			kwargs,
		}

		var page []Partner
		if err := c.call(ctx, "object", "execute_kw", args, &page); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "search_read failed")
			return nil, newError(KindRemote, op, fmt.Sprintf("search_read %s page %d", PartnerModel, pages+1), err)
		}
		pages++
		partners = append(partners, page...)

		if c.pageSize == 0 || len(page) < c.pageSize {
			break
		}
		key, err := lastKey(page)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "cannot continue paging")
			return nil, newError(KindRemote, op, fmt.Sprintf("search_read %s page %d", PartnerModel, pages), err)
		}
		after = key
	}

	if pages > 1 {
		partners = keepNewest(partners)
	}
	span.SetAttributes(
		attribute.Int("odoo.partners", len(partners)),
		attribute.Int("odoo.pages", pages),
	)
	return partners, nil
}

// pageKey is the (write_date, id) position of the last row of a page.
type pageKey struct {
	writeDate string
	id        int64
}

// domain returns base narrowed to rows strictly after k. A nil key leaves
// base untouched.
func (k *pageKey) domain(base []any) []any {
	domain := append([]any{}, base...)
	if k == nil {
		return domain
	}
	return append(domain,
		"|",
		[]any{"write_date", ">", k.writeDate},
		"&",
		[]any{"write_date", "=", k.writeDate},
		[]any{"id", ">", k.id},
	)
}

func lastKey(page []Partner) (*pageKey, error) {
	last := page[len(page)-1]
	wd, err := ParseDatetime(last.WriteDate.String())
	if err != nil {
		return nil, fmt.Errorf("cannot page past partner %d: %w", last.ID, err)
	}
	return &pageKey{writeDate: FormatDatetime(wd), id: last.ID}, nil
}

// keepNewest drops every copy of a partner except the last one, preserving
// fetch order.
func keepNewest(partners []Partner) []Partner {
	lastIndex := make(map[int64]int, len(partners))
	for i, p := range partners {
		lastIndex[p.ID] = i
	}
	if len(lastIndex) == len(partners) {
		return partners
	}
	out := make([]Partner, 0, len(lastIndex))
	for i, p := range partners {
		if lastIndex[p.ID] == i {
			out = append(out, p)
		}
	}
	return out
}

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
	ID      int64     `json:"id"`
}

type rpcParams struct {
	Service string `json:"service"`
	Method  string `json:"method"`
	Args    []any  `json:"args"`
}

type rpcResponse struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// call performs one rate-limited JSON-RPC round trip and decodes the result
// into out.
func (c *Client) call(ctx context.Context, service, method string, args []any, out any) error {
	ctx, span := tracer.Start(ctx, "odoo.call")
	defer span.End()
	span.SetAttributes(
		attribute.String("rpc.system", "jsonrpc"),
		attribute.String("rpc.service", service),
		attribute.String("rpc.method", method),
	)

	c.limiter.Take()

	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "call",
		Params:  rpcParams{Service: service, Method: method, Args: args},
		ID:      c.nextID.Add(1),
	})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		return fmt.Errorf("post %s: %w", c.endpoint, err)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "odoo call",
		"service", service,
		"method", method,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		span.SetStatus(codes.Error, resp.Status)
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		span.RecordError(err)
		return fmt.Errorf("decode response: %w", err)
	}
	if rpcResp.Error != nil {
		span.SetStatus(codes.Error, rpcResp.Error.Message)
		return rpcResp.Error
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		span.RecordError(err)
		return fmt.Errorf("decode %s.%s result: %w", service, method, err)
	}
	return nil
}
