package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/bookingwatch/models"
)

func main() {
	apiURL := os.Getenv("BOOKINGWATCH_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("BOOKINGWATCH_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "BOOKINGWATCH_API_KEY is required")
		os.Exit(1)
	}

	s := newServer(newClient(apiURL, apiKey))
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// newClient returns a resty client bound to a running bookingwatch API.
// A run drives a real browser over every target, so the timeout is long.
func newClient(apiURL, apiKey string) *resty.Client {
	return resty.New().
		SetBaseURL(strings.TrimRight(apiURL, "/")).
		SetHeader("X-API-Key", apiKey).
		SetTimeout(10 * time.Minute)
}

func newServer(client *resty.Client) *server.MCPServer {
	s := server.NewMCPServer(
		"bookingwatch",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	checkPricesTool := mcp.NewTool("check_prices",
		mcp.WithDescription("Render hotel booking pages in a headless browser, extract price, hotel name and address, and send the summary to the configured Telegram chat. Runs the configured targets when no URLs are given."),
		mcp.WithArray("urls",
			mcp.Description("Booking page URLs to check (optional)"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)
	s.AddTool(checkPricesTool, handleCheckPrices(client))

	latestPricesTool := mcp.NewTool("latest_prices",
		mcp.WithDescription("Return the most recent result recorded for each booking page, without fetching anything."),
	)
	s.AddTool(latestPricesTool, handleLatestPrices(client))

	return s
}

func handleCheckPrices(client *resty.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var runResp models.RunResponse
		res, err := client.R().
			SetContext(ctx).
			SetBody(models.RunRequest{Targets: request.GetStringSlice("urls", nil)}).
			SetResult(&runResp).
			SetError(&runResp).
			Post("/api/v1/runs")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
		}
		if res.IsError() || runResp.Error != nil {
			return mcp.NewToolResultError(apiError(res, runResp.Error)), nil
		}

		return mcp.NewToolResultText(formatRun(&runResp)), nil
	}
}

func handleLatestPrices(client *resty.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var (
			resultsResp models.ResultsResponse
			errResp     models.ErrorResponse
		)
		res, err := client.R().
			SetContext(ctx).
			SetResult(&resultsResp).
			SetError(&errResp).
			Get("/api/v1/results")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
		}
		if res.IsError() {
			return mcp.NewToolResultError(apiError(res, errResp.Error)), nil
		}

		if len(resultsResp.Results) == 0 {
			return mcp.NewToolResultText("No results recorded yet. Use check_prices to run a check."), nil
		}

		var b strings.Builder
		for _, snap := range resultsResp.Results {
			fmt.Fprintf(&b, "Checked: %s\n", snap.CheckedAt.Format(time.RFC3339))
			writeResult(&b, snap.Result)
			b.WriteString("\n")
		}
		return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
	}
}

func apiError(res *resty.Response, detail *models.ErrorDetail) string {
	if detail != nil {
		return fmt.Sprintf("[%s] %s", detail.Code, detail.Message)
	}
	return fmt.Sprintf("API returned %s", res.Status())
}

func formatRun(r *models.RunResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s: %d checked, %d failed (%dms)\n\n", r.RunID, len(r.Results), len(r.Errors), r.TookMs)
	for _, result := range r.Results {
		writeResult(&b, result)
		b.WriteString("\n")
	}
	for _, e := range r.Errors {
		fmt.Fprintf(&b, "FAILED %s: [%s] %s\n", e.Target, e.Code, e.Message)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeResult(b *strings.Builder, r *models.JobResult) {
	if r == nil {
		return
	}
	if name := models.StringValue(r.HotelName); name != "" {
		fmt.Fprintf(b, "Hotel: %s\n", name)
	}
	price := models.StringValue(r.Price)
	if price == "" {
		price = "not found"
	}
	fmt.Fprintf(b, "Price: %s\n", price)
	if addr := models.StringValue(r.HotelAddress); addr != "" {
		fmt.Fprintf(b, "Address: %s\n", addr)
	}
	fmt.Fprintf(b, "URL: %s (status %d)\n", r.URL, r.Status)
}
