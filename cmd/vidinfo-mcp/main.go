package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	apiURL := strings.TrimRight(os.Getenv("VIDINFO_API_URL"), "/")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8000"
	}
	// Optional: the server runs without auth by default.
	apiKey := os.Getenv("VIDINFO_API_KEY")

	s := newServer(newClient(apiURL, apiKey))
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func newServer(c *client) *server.MCPServer {
	s := server.NewMCPServer(
		"vidinfo",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	extractVideoTool := mcp.NewTool("extract_video",
		mcp.WithDescription("Extract metadata (title, uploader, duration, formats, thumbnails) for a video page such as a YouTube watch URL. Tries several client impersonations until one succeeds; can take a minute or more."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The video page URL, e.g. https://www.youtube.com/watch?v=..."),
		),
		mcp.WithBoolean("full",
			mcp.Description("Return the complete metadata JSON instead of a summary (default: false). The full document can be very large."),
		),
	)
	s.AddTool(extractVideoTool, handleExtractVideo(c))

	checkExtractorTool := mcp.NewTool("check_extractor",
		mcp.WithDescription("Report whether the extraction service is up and which extractor version it runs."),
	)
	s.AddTool(checkExtractorTool, handleCheckExtractor(c))

	return s
}
