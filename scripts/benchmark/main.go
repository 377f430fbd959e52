package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

// CLI flags
var (
	apiURL   = flag.String("api-url", "http://localhost:3000", "pinscout API base URL")
	apiKey   = flag.String("api-key", "", "API key for authenticated requests")
	runs     = flag.Int("runs", 2, "Number of runs per pincode for averaging")
	pincodes = flag.String("pincodes", "400001,110001,560001", "Comma-separated pincodes to scrape")
	output   = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// --- Response types (mirrors models package) ---

type product struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

type productsResponse struct {
	Headphones []product `json:"headphones"`
	Earbuds    []product `json:"earbuds"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// --- Benchmark result types ---

type runResult struct {
	Run        int    `json:"run"`
	TotalMs    int64  `json:"total_ms"`
	StatusCode int    `json:"status_code"`
	Headphones int    `json:"headphones"`
	Earbuds    int    `json:"earbuds"`
	Success    bool   `json:"success"`
	ErrorCode  string `json:"error_code,omitempty"`
	Error      string `json:"error,omitempty"`
}

type pincodeAverages struct {
	TotalMs    float64 `json:"total_ms"`
	Headphones float64 `json:"headphones"`
	Earbuds    float64 `json:"earbuds"`
}

type pincodeResult struct {
	Pincode  string           `json:"pincode"`
	Runs     []runResult      `json:"runs"`
	Averages *pincodeAverages `json:"averages,omitempty"`
}

type benchmarkReport struct {
	Timestamp      string          `json:"timestamp"`
	APIURL         string          `json:"api_url"`
	RunsPerPincode int             `json:"runs_per_pincode"`
	Results        []pincodeResult `json:"results"`
}

func main() {
	flag.Parse()

	fmt.Println("=== pinscout Benchmark ===")
	fmt.Printf("API URL:   %s\n", *apiURL)
	fmt.Printf("Pincodes:  %s\n", *pincodes)
	fmt.Printf("Runs:      %d\n", *runs)
	fmt.Printf("Output:    %s\n", *output)
	fmt.Println()

	// Quick connectivity check.
	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		fmt.Fprintf(os.Stderr, "Make sure pinscout is running (e.g. go run ./cmd/pinscout)\n")
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		APIURL:         *apiURL,
		RunsPerPincode: *runs,
	}

	// Sequential on purpose: every request launches its own browser.
	for _, pin := range strings.Split(*pincodes, ",") {
		pin = strings.TrimSpace(pin)
		if pin == "" {
			continue
		}
		fmt.Printf("Benchmarking pincode %s ...\n", pin)
		pr := pincodeResult{Pincode: pin}

		for i := 1; i <= *runs; i++ {
			fmt.Printf("  Run %d/%d ... ", i, *runs)
			rr := benchmarkPincode(pin, i)
			if rr.Success {
				fmt.Printf("OK  %dms  %d headphones, %d earbuds\n", rr.TotalMs, rr.Headphones, rr.Earbuds)
			} else {
				fmt.Printf("FAILED (%d %s): %s\n", rr.StatusCode, rr.ErrorCode, rr.Error)
			}
			pr.Runs = append(pr.Runs, rr)
		}

		pr.Averages = computeAverages(pr.Runs)
		report.Results = append(report.Results, pr)
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
		return err
	}
	resp.Body.Close()
	return nil
}

func benchmarkPincode(pincode string, run int) runResult {
	rr := runResult{Run: run}

	endpoint := *apiURL + "/api/get-products?" + url.Values{"pincode": {pincode}}.Encode()
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	if *apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+*apiKey)
	}

	client := &http.Client{Timeout: 5 * time.Minute}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()
	rr.TotalMs = time.Since(start).Milliseconds()
	rr.StatusCode = resp.StatusCode

	if resp.StatusCode != http.StatusOK {
		var er errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
			rr.Error = fmt.Sprintf("decode error: %v", err)
			return rr
		}
		rr.ErrorCode = er.Code
		rr.Error = er.Error
		return rr
	}

	var pr productsResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}

	rr.Success = true
	rr.Headphones = len(pr.Headphones)
	rr.Earbuds = len(pr.Earbuds)
	return rr
}

func computeAverages(runs []runResult) *pincodeAverages {
	var successCount int
	var avg pincodeAverages

	for _, r := range runs {
		if !r.Success {
			continue
		}
		successCount++
		avg.TotalMs += float64(r.TotalMs)
		avg.Headphones += float64(r.Headphones)
		avg.Earbuds += float64(r.Earbuds)
	}

	if successCount == 0 {
		return nil
	}

	n := float64(successCount)
	avg.TotalMs /= n
	avg.Headphones /= n
	avg.Earbuds /= n
	return &avg
}

func printTable(results []pincodeResult) {
	fmt.Println(strings.Repeat("─", 70))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Pincode\tAvg Latency\tHeadphones\tEarbuds\tSuccess\n")
	fmt.Fprintf(w, "───────\t───────────\t──────────\t───────\t───────\n")

	for _, r := range results {
		ok := successCount(r.Runs)
		if r.Averages == nil {
			fmt.Fprintf(w, "%s\tFAILED\t-\t-\t0/%d\n", r.Pincode, len(r.Runs))
			continue
		}
		fmt.Fprintf(w, "%s\t%dms\t%.1f\t%.1f\t%d/%d\n",
			r.Pincode,
			int64(r.Averages.TotalMs),
			r.Averages.Headphones,
			r.Averages.Earbuds,
			ok, len(r.Runs),
		)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 70))
}

func successCount(runs []runResult) int {
	n := 0
	for _, r := range runs {
		if r.Success {
			n++
		}
	}
	return n
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
