package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	apiURL := os.Getenv("FLIGHTSCRAPE_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	c := newClient(apiURL, os.Getenv("FLIGHTSCRAPE_API_KEY"))

	s := server.NewMCPServer(
		"flightscrape",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	searchTool := mcp.NewTool("search_flights",
		mcp.WithDescription("Search Google Flights for a round trip and return the result rows. Served from the same-day cache when possible."),
		mcp.WithString("origin", mcp.Required(), mcp.Description("Origin airport code, e.g. JFK")),
		mcp.WithString("dest", mcp.Required(), mcp.Description("Destination airport code, e.g. LAX")),
		mcp.WithString("leave_date", mcp.Required(), mcp.Description("Leave date, YYYY-MM-DD")),
		mcp.WithString("return_date", mcp.Required(), mcp.Description("Return date, YYYY-MM-DD")),
		mcp.WithBoolean("use_cache", mcp.Description("Serve from and write to the route cache (default true)")),
	)
	s.AddTool(searchTool, c.handleSearchFlights)

	cachedTool := mcp.NewTool("cached_flights",
		mcp.WithDescription("Query flights already cached for a route without scraping."),
		mcp.WithString("origin", mcp.Required(), mcp.Description("Origin airport code")),
		mcp.WithString("dest", mcp.Required(), mcp.Description("Destination airport code")),
		mcp.WithString("depart_date", mcp.Description("Only rows leaving on this date")),
		mcp.WithString("return_date", mcp.Description("Only rows returning on this date")),
		mcp.WithString("access_date", mcp.Description("Rows scraped on this date (default today)")),
		mcp.WithNumber("price_max", mcp.Description("Maximum price")),
	)
	s.AddTool(cachedTool, c.handleCachedFlights)

	sweepTool := mcp.NewTool("sweep_route",
		mcp.WithDescription("Cache every date pair within width days of the given dates and wait for the sweep to finish."),
		mcp.WithString("origin", mcp.Required(), mcp.Description("Origin airport code")),
		mcp.WithString("dest", mcp.Required(), mcp.Description("Destination airport code")),
		mcp.WithString("leave_date", mcp.Required(), mcp.Description("Leave date, YYYY-MM-DD")),
		mcp.WithString("return_date", mcp.Required(), mcp.Description("Return date, YYYY-MM-DD")),
		mcp.WithNumber("width", mcp.Description("Days around each date (default 3)")),
	)
	s.AddTool(sweepTool, c.handleSweepRoute)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
