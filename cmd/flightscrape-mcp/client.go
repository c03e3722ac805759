package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/use-agent/flightscrape/models"
)

// client talks to the flightscrape HTTP API.
type client struct {
	apiURL       string
	apiKey       string
	http         *http.Client
	pollInterval time.Duration
}

func newClient(apiURL, apiKey string) *client {
	return &client{
		apiURL:       strings.TrimRight(apiURL, "/"),
		apiKey:       apiKey,
		http:         &http.Client{Timeout: 120 * time.Second},
		pollInterval: 2 * time.Second,
	}
}

func (c *client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var e models.ErrorResponse
		if json.Unmarshal(data, &e) == nil && e.Error != nil {
			return nil, fmt.Errorf("%s: %s", e.Error.Code, e.Error.Message)
		}
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	return data, nil
}

func (c *client) handleSearchFlights(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := models.FetchRequest{UseCache: request.GetBool("use_cache", true)}
	for name, dst := range map[string]*string{
		"origin":      &req.Origin,
		"dest":        &req.Dest,
		"leave_date":  &req.LeaveDate,
		"return_date": &req.ReturnDate,
	} {
		v, err := request.RequireString(name)
		if err != nil {
			return mcp.NewToolResultError(name + " is required"), nil
		}
		*dst = v
	}

	data, err := c.do(ctx, http.MethodPost, "/api/v1/flights/fetch", req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var resp models.FlightsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
	}

	var sb strings.Builder
	source := "live search"
	if resp.FromCache {
		source = "cache"
	}
	fmt.Fprintf(&sb, "%d flights for %s (%s)\n\n", resp.Count, resp.Route, source)
	writeRows(&sb, resp.Rows)
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *client) handleCachedFlights(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	origin, err := request.RequireString("origin")
	if err != nil {
		return mcp.NewToolResultError("origin is required"), nil
	}
	dest, err := request.RequireString("dest")
	if err != nil {
		return mcp.NewToolResultError("dest is required"), nil
	}

	q := url.Values{}
	q.Set("origin", origin)
	q.Set("dest", dest)
	for arg, param := range map[string]string{
		"depart_date": "depart-date",
		"return_date": "return-date",
		"access_date": "access-date",
	} {
		if v := request.GetString(arg, ""); v != "" {
			q.Set(param, v)
		}
	}
	if p := request.GetFloat("price_max", 0); p > 0 {
		q.Set("price-max", strconv.FormatFloat(p, 'f', -1, 64))
	}

	data, err := c.do(ctx, http.MethodGet, "/api/v1/flight-data?"+q.Encode(), nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var resp models.FlightsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d cached flights for %s\n\n", resp.Count, resp.Route)
	writeRows(&sb, resp.Rows)
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *client) handleSweepRoute(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := models.SweepRequest{Width: request.GetInt("width", 3)}
	for name, dst := range map[string]*string{
		"origin":      &req.Origin,
		"dest":        &req.Dest,
		"leave_date":  &req.LeaveDate,
		"return_date": &req.ReturnDate,
	} {
		v, err := request.RequireString(name)
		if err != nil {
			return mcp.NewToolResultError(name + " is required"), nil
		}
		*dst = v
	}

	data, err := c.do(ctx, http.MethodPost, "/api/v1/flights/sweep", req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var started models.SweepResponse
	if err := json.Unmarshal(data, &started); err != nil || started.ID == "" {
		return mcp.NewToolResultError("sweep job creation failed"), nil
	}

	job, err := c.pollSweep(ctx, started.ID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("polling sweep job failed: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "sweep %s: %s, %d rows cached over %d date pairs\n", job.Route, job.Status, job.Rows, job.Pairs)
	for _, f := range job.Failures {
		fmt.Fprintf(&sb, "- %s/%s failed at %s: %s\n", f.LeaveDate, f.ReturnDate, f.Stage, f.Code)
	}
	if job.Error != nil {
		fmt.Fprintf(&sb, "error: %s: %s\n", job.Error.Code, job.Error.Message)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// pollSweep polls the job until it leaves "processing" or ctx ends.
func (c *client) pollSweep(ctx context.Context, id string) (*models.SweepJob, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			data, err := c.do(ctx, http.MethodGet, "/api/v1/flights/sweep/"+url.PathEscape(id), nil)
			if err != nil {
				return nil, err
			}
			var job models.SweepJob
			if err := json.Unmarshal(data, &job); err != nil {
				return nil, fmt.Errorf("parse poll status: %w", err)
			}
			if job.Status != "processing" {
				return &job, nil
			}
		}
	}
}

func writeRows(w io.Writer, rows []models.FlightObservation) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "leave\treturn\tdepart\tarrive\tairlines\tduration\tstops\tprice")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%.0f\n",
			r.LeaveDate, r.ReturnDate, r.DepartTime, r.ArrivalTime, r.Airlines, r.TravelTime, r.Stops, r.Price)
	}
	_ = tw.Flush()
}
