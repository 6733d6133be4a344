package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// errorResponse mirrors the vidinfo API error body.
type errorResponse struct {
	Success bool `json:"success"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// healthResponse mirrors the vidinfo health body.
type healthResponse struct {
	Status         string `json:"status"`
	YtdlpAvailable bool   `json:"ytdlp_available"`
	YtdlpVersion   string `json:"ytdlp_version"`
	GoVersion      string `json:"go_version"`
	Uptime         string `json:"uptime"`
}

// videoSummary is the subset of the metadata document shown by default.
type videoSummary struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Uploader    string            `json:"uploader"`
	Channel     string            `json:"channel"`
	Duration    float64           `json:"duration"`
	ViewCount   int64             `json:"view_count"`
	UploadDate  string            `json:"upload_date"`
	WebpageURL  string            `json:"webpage_url"`
	Description string            `json:"description"`
	Formats     []json.RawMessage `json:"formats"`
}

// client talks to a running vidinfo server.
type client struct {
	apiURL string
	apiKey string
	http   *http.Client
}

func newClient(apiURL, apiKey string) *client {
	// Five strategies at up to a minute each, plus slack.
	return &client{apiURL: apiURL, apiKey: apiKey, http: &http.Client{Timeout: 6 * time.Minute}}
}

// do sends a request and returns the body and status code.
func (c *client) do(ctx context.Context, method, path string, payload any) ([]byte, int, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, body)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return respBody, resp.StatusCode, nil
}

func handleExtractVideo(c *client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}
		full := request.GetBool("full", false)

		body, status, err := c.do(ctx, http.MethodPost, "/api/v1/extract", map[string]string{"url": url})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if status != http.StatusOK {
			return mcp.NewToolResultError(apiErrorText(body, status)), nil
		}

		if full {
			return mcp.NewToolResultText(string(body)), nil
		}
		var v videoSummary
		if err := json.Unmarshal(body, &v); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse metadata: %v", err)), nil
		}
		return mcp.NewToolResultText(formatSummary(&v)), nil
	}
}

func handleCheckExtractor(c *client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		body, status, err := c.do(ctx, http.MethodGet, "/api/v1/health", nil)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if status != http.StatusOK {
			return mcp.NewToolResultError(apiErrorText(body, status)), nil
		}

		var h healthResponse
		if err := json.Unmarshal(body, &h); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse health response: %v", err)), nil
		}
		avail := "available"
		if !h.YtdlpAvailable {
			avail = "NOT available"
		}
		return mcp.NewToolResultText(fmt.Sprintf(
			"Service: %s (uptime %s)\nExtractor: %s, version %s\nRuntime: %s",
			h.Status, h.Uptime, avail, h.YtdlpVersion, h.GoVersion,
		)), nil
	}
}

func apiErrorText(body []byte, status int) string {
	var e errorResponse
	if json.Unmarshal(body, &e) == nil && e.Error != nil {
		return fmt.Sprintf("[%s] %s", e.Error.Code, e.Error.Message)
	}
	return fmt.Sprintf("API returned status %d", status)
}

func formatSummary(v *videoSummary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Title: %s\n", v.Title)
	if v.ID != "" {
		fmt.Fprintf(&sb, "ID: %s\n", v.ID)
	}
	uploader := v.Uploader
	if uploader == "" {
		uploader = v.Channel
	}
	if uploader != "" {
		fmt.Fprintf(&sb, "Uploader: %s\n", uploader)
	}
	if v.Duration > 0 {
		fmt.Fprintf(&sb, "Duration: %s\n", (time.Duration(v.Duration) * time.Second).String())
	}
	if v.ViewCount > 0 {
		fmt.Fprintf(&sb, "Views: %d\n", v.ViewCount)
	}
	if v.UploadDate != "" {
		fmt.Fprintf(&sb, "Uploaded: %s\n", v.UploadDate)
	}
	if v.WebpageURL != "" {
		fmt.Fprintf(&sb, "URL: %s\n", v.WebpageURL)
	}
	fmt.Fprintf(&sb, "Formats: %d\n", len(v.Formats))
	if v.Description != "" {
		desc := v.Description
		if r := []rune(desc); len(r) > 500 {
			desc = string(r[:500]) + "..."
		}
		fmt.Fprintf(&sb, "\n%s\n", desc)
	}
	return sb.String()
}
