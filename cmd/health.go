// ABOUTME: Health command for drive-bff
// ABOUTME: Queries a running server's health endpoint, for container probes and scripts

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check a running server",
	Long:  `Check connectivity to a running drive-bff server and report which integrations it has configured.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runHealth(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

// healthResponse mirrors GET /api/health
type healthResponse struct {
	Status             string `json:"status"`
	UpstreamConfigured bool   `json:"upstream_configured"`
	OAuthConfigured    bool   `json:"oauth_configured"`
}

// runHealth executes the health check and returns exit code
func runHealth(ctx context.Context, w io.Writer) int {
	url := strings.TrimRight(GetServerURL(), "/")

	resp, err := fetchHealth(ctx, url)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatHealthJSON(url, resp))
	} else {
		fmt.Fprintln(w, formatHealthHuman(url, resp))
	}

	if resp.Status != "ok" {
		return 1
	}
	return 0
}

func fetchHealth(ctx context.Context, url string) (*healthResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"/api/health", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", res.StatusCode)
	}

	var out healthResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &out, nil
}

// formatHealthHuman formats health response for human readability
func formatHealthHuman(url string, resp *healthResponse) string {
	return fmt.Sprintf(`Server:       %s
Status:       %s
Upstream:     %s
Google OAuth: %s`, url, resp.Status, configured(resp.UpstreamConfigured), configured(resp.OAuthConfigured))
}

func configured(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

// formatHealthJSON formats health response as JSON
func formatHealthJSON(url string, resp *healthResponse) string {
	output := map[string]interface{}{
		"server":              url,
		"status":              resp.Status,
		"upstream_configured": resp.UpstreamConfigured,
		"oauth_configured":    resp.OAuthConfigured,
	}
	data, _ := json.MarshalIndent(output, "", "  ")
	return string(data)
}
