// Package client talks to the wa_listings HTTP API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type Client struct {
	baseURL string
	http    *http.Client
}

type Message struct {
	ID              int64   `json:"id"`
	Sender          string  `json:"sender"`
	Message         string  `json:"message"`
	Timestamp       string  `json:"timestamp"`
	PropertyType    *string `json:"property_type"`
	Keywords        string  `json:"keywords"`
	Location        *string `json:"location"`
	Price           *string `json:"price"`
	AgentPhone      *string `json:"agent_phone"`
	FullDescription string  `json:"full_description"`
	PropertyID      *int64  `json:"property_id"`
}

type TypeStat struct {
	PropertyType string `json:"property_type"`
	NameArabic   string `json:"name_arabic"`
	NameEnglish  string `json:"name_english"`
	Count        int    `json:"count"`
}

type Agent struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	Phone           string   `json:"phone"`
	PhoneOperator   *string  `json:"phone_operator"`
	PropertiesCount int      `json:"properties_count"`
	AvgPrice        *float64 `json:"avg_price"`
}

type IngestStatus struct {
	Paused  bool     `json:"paused"`
	Sources []string `json:"sources"`
}

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api %d: %s", e.Status, e.Message)
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Messages(ctx context.Context, search, propertyType string, limit int) ([]Message, error) {
	q := url.Values{}
	if search != "" {
		q.Set("search", search)
	}
	if propertyType != "" {
		q.Set("property_type", propertyType)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []Message
	err := c.get(ctx, "/messages?"+q.Encode(), &out)
	return out, err
}

func (c *Client) Stats(ctx context.Context) ([]TypeStat, error) {
	var out []TypeStat
	err := c.get(ctx, "/stats", &out)
	return out, err
}

func (c *Client) Agents(ctx context.Context) ([]Agent, error) {
	var out []Agent
	err := c.get(ctx, "/agents", &out)
	return out, err
}

func (c *Client) IngestStatus(ctx context.Context) (*IngestStatus, error) {
	var out IngestStatus
	if err := c.get(ctx, "/ingest/status", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RunIngest asks the daemon to scan the inboxes now.
func (c *Client) RunIngest(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/ingest/run", nil)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, out)
}

func (c *Client) do(ctx context.Context, method, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var body struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&body)
		return &APIError{Status: resp.StatusCode, Message: body.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
