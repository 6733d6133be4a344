package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"
)

// CLI flags
var (
	apiURL      = flag.String("api-url", "http://localhost:8000", "vidinfo API base URL")
	apiKey      = flag.String("api-key", "", "API key for authenticated requests")
	runs        = flag.Int("runs", 3, "Number of runs per URL for averaging")
	concurrency = flag.Int("concurrency", 1, "Extractions in flight at once")
	output      = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// Test URLs covering the common page shapes.
var testURLs = []struct {
	Label string
	URL   string
}{
	{"Watch", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
	{"Short link", "https://youtu.be/jNQXAC9IVRw"},
	{"Shorts", "https://www.youtube.com/shorts/tPEE9ZwTmy0"},
	{"Mobile", "https://m.youtube.com/watch?v=9bZkp7q19f0"},
	{"Music", "https://music.youtube.com/watch?v=kJQP7kiw5Fk"},
}

// --- Response types (mirrors the API) ---

type videoInfo struct {
	Title   string            `json:"title"`
	Formats []json.RawMessage `json:"formats"`
}

type errorResponse struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Benchmark result types ---

type runResult struct {
	Run        int    `json:"run"`
	TotalMs    int64  `json:"total_ms"`
	StatusCode int    `json:"status_code"`
	Bytes      int    `json:"bytes"`
	Formats    int    `json:"formats"`
	HasTitle   bool   `json:"has_title"`
	Success    bool   `json:"success"`
	ErrorCode  string `json:"error_code,omitempty"`
	Error      string `json:"error,omitempty"`
}

type urlAverages struct {
	TotalMs float64 `json:"total_ms"`
	P50Ms   int64   `json:"p50_ms"`
	MaxMs   int64   `json:"max_ms"`
	Bytes   float64 `json:"bytes"`
	Formats float64 `json:"formats"`
}

type urlResult struct {
	URL         string       `json:"url"`
	Label       string       `json:"label"`
	Runs        []runResult  `json:"runs"`
	SuccessRate float64      `json:"success_rate"`
	Averages    *urlAverages `json:"averages,omitempty"`
}

type benchmarkReport struct {
	Timestamp   string      `json:"timestamp"`
	APIURL      string      `json:"api_url"`
	RunsPerURL  int         `json:"runs_per_url"`
	Concurrency int         `json:"concurrency"`
	Results     []urlResult `json:"results"`
}

func main() {
	flag.Parse()

	fmt.Println("=== vidinfo Benchmark Suite ===")
	fmt.Printf("API URL:      %s\n", *apiURL)
	fmt.Printf("Runs/URL:     %d\n", *runs)
	fmt.Printf("Concurrency:  %d\n", *concurrency)
	fmt.Printf("Output:       %s\n", *output)
	fmt.Println()

	// Quick connectivity check.
	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintf(os.Stderr, "Make sure vidinfo is running (e.g. go run ./cmd/vidinfo)\n")
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		APIURL:      *apiURL,
		RunsPerURL:  *runs,
		Concurrency: *concurrency,
	}

	client := &http.Client{Timeout: 6 * time.Minute}
	for _, t := range testURLs {
		fmt.Printf("Benchmarking [%s] %s ...\n", t.Label, t.URL)
		ur := urlResult{URL: t.URL, Label: t.Label, Runs: make([]runResult, *runs)}

		g, ctx := errgroup.WithContext(context.Background())
		g.SetLimit(max(*concurrency, 1))
		for i := range ur.Runs {
			g.Go(func() error {
				ur.Runs[i] = benchmarkURL(ctx, client, t.URL, i+1)
				return nil
			})
		}
		_ = g.Wait()

		for _, rr := range ur.Runs {
			if rr.Success {
				fmt.Printf("  Run %d/%d  OK      %6dms  %d formats\n", rr.Run, *runs, rr.TotalMs, rr.Formats)
			} else {
				fmt.Printf("  Run %d/%d  FAILED  %6dms  %s\n", rr.Run, *runs, rr.TotalMs, firstLine(rr.Error))
			}
		}

		ur.SuccessRate, ur.Averages = computeAverages(ur.Runs)
		report.Results = append(report.Results, ur)
		fmt.Println()
	}

	// Print summary table.
	printTable(report.Results)

	// Write JSON report.
	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/v1/health")
	if err != nil {
		return fmt.Errorf("cannot reach API at %s: %w", baseURL, err)
	}
	defer resp.Body.Close()

	var h struct {
		YtdlpAvailable bool   `json:"ytdlp_available"`
		YtdlpVersion   string `json:"ytdlp_version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return fmt.Errorf("unexpected health response: %w", err)
	}
	if !h.YtdlpAvailable {
		return fmt.Errorf("API at %s reports the extraction tool is not available", baseURL)
	}
	fmt.Printf("Extractor:    yt-dlp %s\n\n", h.YtdlpVersion)
	return nil
}

func benchmarkURL(ctx context.Context, client *http.Client, url string, run int) runResult {
	rr := runResult{Run: run}

	bodyBytes, err := json.Marshal(map[string]string{"url": url})
	if err != nil {
		rr.Error = fmt.Sprintf("marshal error: %v", err)
		return rr
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, *apiURL+"/api/v1/extract", bytes.NewReader(bodyBytes))
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	req.Header.Set("Content-Type", "application/json")
	if *apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+*apiKey)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		rr.TotalMs = time.Since(start).Milliseconds()
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	rr.TotalMs = time.Since(start).Milliseconds()
	rr.StatusCode = resp.StatusCode
	rr.Bytes = len(body)
	if err != nil {
		rr.Error = fmt.Sprintf("read error: %v", err)
		return rr
	}

	if resp.StatusCode != http.StatusOK {
		var er errorResponse
		if json.Unmarshal(body, &er) == nil && er.Error != nil {
			rr.ErrorCode = er.Error.Code
			rr.Error = er.Error.Message
		} else {
			rr.Error = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return rr
	}

	var vi videoInfo
	if err := json.Unmarshal(body, &vi); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}
	rr.Success = true
	rr.HasTitle = vi.Title != ""
	rr.Formats = len(vi.Formats)
	return rr
}

func computeAverages(runs []runResult) (float64, *urlAverages) {
	var avg urlAverages
	var latencies []int64

	for _, r := range runs {
		if !r.Success {
			continue
		}
		latencies = append(latencies, r.TotalMs)
		avg.TotalMs += float64(r.TotalMs)
		avg.Bytes += float64(r.Bytes)
		avg.Formats += float64(r.Formats)
	}

	if len(latencies) == 0 {
		return 0, nil
	}

	n := float64(len(latencies))
	avg.TotalMs /= n
	avg.Bytes /= n
	avg.Formats /= n

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	avg.P50Ms = latencies[len(latencies)/2]
	avg.MaxMs = latencies[len(latencies)-1]
	return n / float64(len(runs)), &avg
}

func printTable(results []urlResult) {
	fmt.Println(strings.Repeat("─", 85))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "URL\tSuccess\tAvg Latency\tP50\tFormats\tPayload\n")
	fmt.Fprintf(w, "───\t───────\t───────────\t───\t───────\t───────\n")

	for _, r := range results {
		if r.Averages == nil {
			fmt.Fprintf(w, "%s\t0%%\tFAILED\t-\t-\t%s\n", truncateURL(r.URL, 40), dominantError(r.Runs))
			continue
		}

		fmt.Fprintf(w, "%s\t%.0f%%\t%dms\t%dms\t%.0f\t%s B\n",
			truncateURL(r.URL, 40),
			r.SuccessRate*100,
			int64(r.Averages.TotalMs),
			r.Averages.P50Ms,
			r.Averages.Formats,
			formatInt(int(r.Averages.Bytes)),
		)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 85))
}

func dominantError(runs []runResult) string {
	counts := map[string]int{}
	for _, r := range runs {
		if !r.Success && r.ErrorCode != "" {
			counts[r.ErrorCode]++
		}
	}
	best, bestCount := "-", 0
	for code, count := range counts {
		if count > bestCount {
			best = code
			bestCount = count
		}
	}
	return best
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func truncateURL(u string, max int) string {
	if len(u) <= max {
		return u
	}
	return u[:max-3] + "..."
}

func formatInt(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var result []byte
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(c))
	}
	return string(result)
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
