package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// product mirrors one entry of the pinscout API response.
type product struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

// productsResponse mirrors the GET /api/get-products success body.
type productsResponse struct {
	Headphones []product `json:"headphones"`
	Earbuds    []product `json:"earbuds"`
}

// errorResponse mirrors the pinscout API error body.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func main() {
	apiURL := os.Getenv("PINSCOUT_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:3000"
	}
	apiKey := os.Getenv("PINSCOUT_API_KEY")

	s := server.NewMCPServer(
		"pinscout",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	getProductsTool := mcp.NewTool("get_products",
		mcp.WithDescription("Look up the first headphones and earbuds listings (name and price) that Blinkit shows for an Indian delivery pincode. Drives a real headless browser, so a call takes up to a couple of minutes."),
		mcp.WithString("pincode",
			mcp.Required(),
			mcp.Description("Delivery pincode, e.g. 400001"),
		),
	)
	s.AddTool(getProductsTool, handleGetProducts(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func handleGetProducts(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 300 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		pincode, err := request.RequireString("pincode")
		if err != nil || strings.TrimSpace(pincode) == "" {
			return mcp.NewToolResultError("pincode is required"), nil
		}

		endpoint := apiURL + "/api/get-products?" + url.Values{"pincode": {strings.TrimSpace(pincode)}}.Encode()
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to create request: %v", err)), nil
		}
		if apiKey != "" {
			httpReq.Header.Set("X-API-Key", apiKey)
		}

		resp, err := client.Do(httpReq)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read response: %v", err)), nil
		}

		if resp.StatusCode != http.StatusOK {
			var errResp errorResponse
			if err := json.Unmarshal(respBody, &errResp); err != nil || errResp.Error == "" {
				return mcp.NewToolResultError(fmt.Sprintf("API returned %s", resp.Status)), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("[%s] %s", errResp.Code, errResp.Error)), nil
		}

		var products productsResponse
		if err := json.Unmarshal(respBody, &products); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		return mcp.NewToolResultText(formatProducts(pincode, products)), nil
	}
}

// formatProducts renders the result as a short plain-text listing.
func formatProducts(pincode string, p productsResponse) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Blinkit listings for pincode %s\n", strings.TrimSpace(pincode))
	writeSection(&sb, "headphones", p.Headphones)
	writeSection(&sb, "earbuds", p.Earbuds)
	return sb.String()
}

func writeSection(sb *strings.Builder, term string, products []product) {
	fmt.Fprintf(sb, "\n%s (%d):\n", term, len(products))
	if len(products) == 0 {
		sb.WriteString("  no listings\n")
		return
	}
	for i, p := range products {
		fmt.Fprintf(sb, "  %2d. %s | %s\n", i+1, p.Name, p.Price)
	}
}
