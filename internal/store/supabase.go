// Package store uploads decoded readings and session summaries to Supabase
// through its PostgREST interface.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tfountain/healthnode/internal/health"
)

// Client talks to one Supabase project.
type Client struct {
	baseURL        string
	key            string
	readingsTable  string
	summariesTable string
	http           *http.Client
}

// New creates a client for the given project URL and API key.
func New(url, key, readingsTable, summariesTable string) *Client {
	if readingsTable == "" {
		readingsTable = "health_readings"
	}
	if summariesTable == "" {
		summariesTable = "health_summaries"
	}
	return &Client{
		baseURL:        strings.TrimRight(url, "/"),
		key:            key,
		readingsTable:  readingsTable,
		summariesTable: summariesTable,
		http:           &http.Client{Timeout: 15 * time.Second},
	}
}

// InsertReadings inserts readings into the readings table in one request.
// A nil or empty slice is a no-op.
func (c *Client) InsertReadings(ctx context.Context, readings []health.Reading) error {
	if len(readings) == 0 {
		return nil
	}
	if err := c.insert(ctx, c.readingsTable, readings); err != nil {
		return err
	}
	slog.Info("[STORE] readings uploaded", "count", len(readings), "table", c.readingsTable)
	return nil
}

// InsertSummary inserts one session summary.
func (c *Client) InsertSummary(ctx context.Context, sum health.Summary) error {
	if err := c.insert(ctx, c.summariesTable, sum); err != nil {
		return err
	}
	slog.Info("[STORE] summary uploaded", "table", c.summariesTable)
	return nil
}

// Clear deletes all rows from both tables.
func (c *Client) Clear(ctx context.Context) error {
	for _, table := range []string{c.readingsTable, c.summariesTable} {
		// PostgREST refuses an unfiltered delete; id=neq.0 matches every row.
		url := fmt.Sprintf("%s/rest/v1/%s?id=neq.0", c.baseURL, table)
		if err := c.do(ctx, http.MethodDelete, url, nil); err != nil {
			return fmt.Errorf("store: clear %s: %w", table, err)
		}
		slog.Info("[STORE] table cleared", "table", table)
	}
	return nil
}

func (c *Client) insert(ctx context.Context, table string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("store: marshal %s payload: %w", table, err)
	}
	url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, table)
	if err := c.do(ctx, http.MethodPost, url, body); err != nil {
		return fmt.Errorf("store: insert into %s: %w", table, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: %s: %s", method, url, resp.Status, strings.TrimSpace(string(detail)))
	}
	return nil
}
