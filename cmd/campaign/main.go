package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/piyushdan-dataslush/bms-analytics/internal/service"
	"github.com/spf13/pflag"
)

var (
	serverURL  = pflag.String("url", "http://localhost:8080", "Control surface base URL")
	eventID    = pflag.String("event", "", "Event code or listing URL (required)")
	targetDate = pflag.String("start", "", "First campaign day, YYYYMMDD (required)")
	endDate    = pflag.String("end", "", "Last campaign day, YYYYMMDD (required)")
	runTime    = pflag.String("run-time", "08:00", "Daily run time in the civil zone, HH:MM")
	title      = pflag.String("title", "", "Show title used to name the sink table")
	token      = pflag.String("token", os.Getenv("OCCUPANCY_TOKEN"), "Bearer token when auth is enabled")
	timeout    = pflag.Duration("timeout", 30*time.Second, "Request timeout")
)

func main() {
	pflag.Parse()

	if *eventID == "" || *targetDate == "" || *endDate == "" {
		fmt.Fprintln(os.Stderr, "Error: --event, --start and --end are required")
		pflag.Usage()
		os.Exit(2)
	}

	body, err := json.Marshal(service.BootstrapInput{
		EventID:      *eventID,
		TargetDate:   *targetDate,
		EndDate:      *endDate,
		DailyRunTime: *runTime,
		Title:        *title,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode request: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	url := strings.TrimRight(*serverURL, "/") + "/campaigns"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	if *token != "" {
		req.Header.Set("Authorization", "Bearer "+*token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	out, _ := io.ReadAll(resp.Body)
	fmt.Printf("%s %s\n", resp.Status, bytes.TrimSpace(out))

	if resp.StatusCode != http.StatusAccepted {
		os.Exit(1)
	}
}
