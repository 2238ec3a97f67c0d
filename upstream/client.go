package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"bitbucket.org/mmdatafocus/chifles_reporting/utils"
	"github.com/tidwall/gjson"
)

const maxErrorBody = 512

// TokenSource hands out a bearer credential and drops it when upstream rejects it.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate(token string)
}

// Client is the REST transport. It holds no credential; bind one with
// WithToken or WithTokenSource to get a Port.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// NewClientWithHTTP is NewClient with a caller supplied http.Client.
func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    httpClient,
	}
}

// WithToken binds a credential propagated from the inbound request.
func (c *Client) WithToken(token string) Port {
	return &boundPort{client: c, token: strings.TrimSpace(token)}
}

// WithTokenSource binds the service credential. A 401 invalidates the token
// and the call is retried once with a fresh one.
func (c *Client) WithTokenSource(src TokenSource) Port {
	return &boundPort{client: c, source: src}
}

type boundPort struct {
	client *Client
	token  string
	source TokenSource
}

func (p *boundPort) FetchCollection(ctx context.Context, resource Resource, filters Filters) ([]json.RawMessage, error) {
	body, err := p.get(ctx, resource, "/"+string(resource), filters.Values())
	if err != nil {
		return nil, err
	}
	return decodeCollection(resource, body)
}

func (p *boundPort) FetchByID(ctx context.Context, resource Resource, id int64) (json.RawMessage, error) {
	body, err := p.get(ctx, resource, "/"+string(resource)+"/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		var upErr *Error
		if errors.As(err, &upErr) && upErr.StatusCode == http.StatusNotFound {
			return nil, &Error{Kind: ErrNotFound, Resource: resource, StatusCode: http.StatusNotFound, Message: upErr.Message}
		}
		return nil, err
	}
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed == "null" {
		return nil, NotFound(resource, id)
	}
	if !gjson.Valid(trimmed) || !gjson.Parse(trimmed).IsObject() {
		return nil, Malformed(resource, fmt.Errorf("expected an object for id %d", id))
	}
	return json.RawMessage(trimmed), nil
}

func (p *boundPort) get(ctx context.Context, resource Resource, path string, params url.Values) ([]byte, error) {
	token, err := p.resolveToken(ctx)
	if err != nil {
		return nil, err
	}
	body, status, err := p.client.do(ctx, resource, path, params, token)
	if err == nil || status != http.StatusUnauthorized || p.source == nil {
		return body, err
	}

	p.source.Invalidate(token)
	token, tokenErr := p.source.Token(ctx)
	if tokenErr != nil {
		return nil, tokenErr
	}
	body, _, err = p.client.do(ctx, resource, path, params, token)
	return body, err
}

func (p *boundPort) resolveToken(ctx context.Context) (string, error) {
	if p.source == nil {
		return p.token, nil
	}
	return p.source.Token(ctx)
}

func (c *Client) do(ctx context.Context, resource Resource, path string, params url.Values, token string) ([]byte, int, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint = endpoint + "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, Unavailable(resource, err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if correlationId, ok := utils.GetCorrelationIdFromContext(ctx); ok && correlationId != "" {
		req.Header.Set("x-correlation-id", correlationId)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, 0, Unavailable(resource, ctxErr)
		}
		return nil, 0, Unavailable(resource, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, Unavailable(resource, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, Rejected(resource, resp.StatusCode, errorMessage(body))
	}
	return body, resp.StatusCode, nil
}

// decodeCollection accepts a bare array or an envelope with a data/items array.
func decodeCollection(resource Resource, body []byte) ([]json.RawMessage, error) {
	if !gjson.ValidBytes(body) {
		return nil, Malformed(resource, errors.New("invalid json"))
	}
	parsed := gjson.ParseBytes(body)
	if !parsed.IsArray() {
		found := false
		for _, key := range []string{"data", "items"} {
			if inner := parsed.Get(key); inner.IsArray() {
				parsed = inner
				found = true
				break
			}
		}
		if !found {
			return nil, Malformed(resource, errors.New("expected an array"))
		}
	}

	items := parsed.Array()
	out := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		if !item.IsObject() {
			continue
		}
		out = append(out, json.RawMessage(item.Raw))
	}
	return out, nil
}

// errorMessage reads the NestJS error envelope, falling back to the raw body.
func errorMessage(body []byte) string {
	if gjson.ValidBytes(body) {
		msg := gjson.GetBytes(body, "message")
		if msg.IsArray() {
			parts := make([]string, 0)
			for _, m := range msg.Array() {
				parts = append(parts, m.String())
			}
			return strings.Join(parts, "; ")
		}
		if msg.Exists() && msg.String() != "" {
			return msg.String()
		}
		if e := gjson.GetBytes(body, "error"); e.Type == gjson.String && e.String() != "" {
			return e.String()
		}
	}
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		cut := maxErrorBody
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return text
}
