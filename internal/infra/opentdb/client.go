// Package opentdb is the REST client for the Open Trivia Database, the
// third-party question bank. All failures, including non-zero upstream
// response codes, surface as domain.ErrUpstreamUnavailable so callers can
// fail soft uniformly.
package opentdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"quadtrivia/internal/domain"
)

// Client talks to an OpenTDB-compatible API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type tokenResponse struct {
	ResponseCode    int    `json:"response_code"`
	ResponseMessage string `json:"response_message"`
	Token           string `json:"token"`
}

type questionResponse struct {
	ResponseCode int                  `json:"response_code"`
	Results      []domain.RawQuestion `json:"results"`
}

type categoryResponse struct {
	TriviaCategories []domain.Category `json:"trivia_categories"`
}

// IssueCredential requests a fresh session token from the bank.
func (c *Client) IssueCredential(ctx context.Context) (string, error) {
	var resp tokenResponse
	if err := c.get(ctx, "/api_token.php?command=request", &resp); err != nil {
		return "", err
	}
	if resp.ResponseCode != 0 || resp.Token == "" {
		return "", fmt.Errorf("%w: token request returned code %d", domain.ErrUpstreamUnavailable, resp.ResponseCode)
	}
	return resp.Token, nil
}

// FetchQuestions pulls amount questions for the given session token. Zero
// category and empty difficulty are omitted from the query entirely.
func (c *Client) FetchQuestions(ctx context.Context, credentialToken string, amount, category int, difficulty string) ([]domain.RawQuestion, error) {
	query := url.Values{}
	query.Set("amount", strconv.Itoa(amount))
	query.Set("token", credentialToken)
	if category > 0 {
		query.Set("category", strconv.Itoa(category))
	}
	if difficulty != "" {
		query.Set("difficulty", difficulty)
	}

	var resp questionResponse
	if err := c.get(ctx, "/api.php?"+query.Encode(), &resp); err != nil {
		return nil, err
	}
	if resp.ResponseCode != 0 {
		// Codes 3/4 mean an invalid or exhausted token; either way the bank
		// has nothing for us right now.
		return nil, fmt.Errorf("%w: question fetch returned code %d", domain.ErrUpstreamUnavailable, resp.ResponseCode)
	}
	return resp.Results, nil
}

// LoadCategories lists the bank's categories.
func (c *Client) LoadCategories(ctx context.Context) ([]domain.Category, error) {
	var resp categoryResponse
	if err := c.get(ctx, "/api_category.php", &resp); err != nil {
		return nil, err
	}
	return resp.TriviaCategories, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", domain.ErrUpstreamUnavailable, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrUpstreamUnavailable, err)
	}
	return nil
}
