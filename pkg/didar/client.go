// Package didar is a small client for the Didar CRM REST API.
package didar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/crm-chatbot-api/server/internal/agent/model"
	errx "github.com/crm-chatbot-api/server/internal/core/error"
	logx "github.com/crm-chatbot-api/server/pkg/logger"
)

const (
	DefaultBaseURL     = "https://app.didar.me/api"
	DefaultTimeout     = 10 * time.Second
	DefaultSearchLimit = 30
	maxResponseBytes   = 4 << 20
)

// endpoints maps entity operations to API paths.
var (
	listPaths = map[model.Entity]string{
		model.EntityUser:            "user/list",
		model.EntityProduct:         "product/list",
		model.EntityProductCategory: "product/category/list",
		model.EntityActivityType:    "activity/type/list",
		model.EntityPipeline:        "deal/pipeline/list",
		model.EntityCard:            "card/pipeline/list",
	}
	searchPaths = map[model.Entity]string{
		model.EntityProduct:    "product/search",
		model.EntityContact:    "contact/search",
		model.EntityDeal:       "deal/search",
		model.EntityCompany:    "company/search",
		model.EntityCase:       "case/search",
		model.EntityAttachment: "attachment/search",
	}
	detailPaths = map[model.Entity]string{
		model.EntityContact: "contact/detail",
		model.EntityDeal:    "deal/detail",
	}
)

type Config struct {
	APIKey      string
	BaseURL     string
	Timeout     time.Duration
	SearchLimit int
	HTTPClient  *http.Client
}

// Client implements model.CRMDataSource. Every request is a POST with a JSON
// body and the API key in the query string.
type Client struct {
	apiKey      string
	baseURL     string
	searchLimit int
	http        *http.Client
	log         zerolog.Logger
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("didar api key is empty")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = DefaultSearchLimit
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		searchLimit: cfg.SearchLimit,
		http:        hc,
		log:         logx.With("didar"),
	}, nil
}

func (c *Client) List(ctx context.Context, entity model.Entity) (json.RawMessage, error) {
	path, ok := listPaths[entity]
	if !ok {
		return nil, fmt.Errorf("list not supported for %q", entity)
	}
	return c.post(ctx, path, map[string]any{})
}

func (c *Client) Search(ctx context.Context, entity model.Entity, query string) (json.RawMessage, error) {
	path, ok := searchPaths[entity]
	if !ok {
		return nil, fmt.Errorf("search not supported for %q", entity)
	}
	return c.post(ctx, path, map[string]any{
		"Criteria": map[string]any{"Keyword": query},
		"From":     0,
		"Limit":    c.searchLimit,
	})
}

func (c *Client) Detail(ctx context.Context, entity model.Entity, id string) (json.RawMessage, error) {
	path, ok := detailPaths[entity]
	if !ok {
		return nil, fmt.Errorf("detail not supported for %q", entity)
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%s id is required", entity)
	}
	return c.post(ctx, path, map[string]any{"Id": id})
}

// Cards returns the latest cards owned by a user.
func (c *Client) Cards(ctx context.Context, ownerID string) (json.RawMessage, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("owner id is required")
	}
	return c.post(ctx, "card/search", map[string]any{
		"Criteria": map[string]any{"OwnerId": ownerID},
		"From":     0,
		"Limit":    10,
	})
}

func (c *Client) endpoint(path string) string {
	return fmt.Sprintf("%s/%s?apikey=%s", c.baseURL, path, url.QueryEscape(c.apiKey))
}

func (c *Client) post(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		// url.Error carries the full URL, api key included.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		c.log.Error().Err(err).Str("path", path).Msg("didar request failed")
		return nil, errx.WrapCRM(fmt.Errorf("post %s: %w", path, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errx.WrapCRM(fmt.Errorf("read %s response: %w", path, err))
	}

	c.log.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Int("bytes", len(raw)).
		Msg("didar response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errx.WrapCRM(fmt.Errorf("post %s: unexpected status %d: %s", path, resp.StatusCode, snippet(raw)))
	}
	return unwrapEnvelope(path, raw)
}

// unwrapEnvelope validates the body and strips the {"Response": ...}
// envelope when present. A non-empty "Error" field is reported as a failure.
func unwrapEnvelope(path string, raw []byte) (json.RawMessage, error) {
	if !gjson.ValidBytes(raw) {
		return nil, errx.WrapCRM(fmt.Errorf("post %s: response is not valid json", path))
	}
	if e := gjson.GetBytes(raw, "Error"); e.Exists() && e.Type != gjson.Null && e.String() != "" {
		return nil, errx.WrapCRM(fmt.Errorf("post %s: api error: %s", path, e.String()))
	}
	if r := gjson.GetBytes(raw, "Response"); r.Exists() {
		return json.RawMessage(r.Raw), nil
	}
	return json.RawMessage(raw), nil
}

func snippet(b []byte) string {
	const max = 200
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}

var _ model.CRMDataSource = (*Client)(nil)
