package openrouter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"clubhub/internal/adapters/config"
	"clubhub/pkg/errors"
)

// ModelRecord is one model descriptor as returned by the catalog API
type ModelRecord struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	ContextLength int     `json:"context_length"`
	Pricing       Pricing `json:"pricing"`
	Architecture  struct {
		Modality  string `json:"modality"`
		Tokenizer string `json:"tokenizer"`
	} `json:"architecture"`
	TopProvider struct {
		IsModerated bool `json:"is_moderated"`
	} `json:"top_provider"`
	Tags       []string `json:"tags"`
	Status     string   `json:"status"`
	Deprecated bool     `json:"deprecated"`
}

// Pricing holds per-token prices as decimal strings
type Pricing struct {
	Prompt     string `json:"prompt"`
	Completion string `json:"completion"`
}

// Client fetches the authoritative model list from the OpenRouter API.
// Consumed read-only; every request carries the bearer credential and is
// bounded by the configured timeout.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a catalog API client
func NewClient(cfg config.CatalogConfig) *Client {
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// ListModels fetches the full model list
func (c *Client) ListModels(ctx context.Context) ([]ModelRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, errors.Wrap(err, "create catalog request")
	}

	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch model catalog")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read catalog response")
	}

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error struct {
				Message string `json:"message"`
				Code    int    `json:"code"`
			} `json:"error"`
		}
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
			return nil, errors.Wrapf(errors.ErrExternal, "catalog API error (%d): %s",
				resp.StatusCode, errResp.Error.Message)
		}
		return nil, errors.Wrapf(errors.ErrExternal, "catalog API error (%d): %s",
			resp.StatusCode, string(body))
	}

	var parsed struct {
		Data []ModelRecord `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.Wrap(err, "unmarshal catalog response")
	}

	return parsed.Data, nil
}
