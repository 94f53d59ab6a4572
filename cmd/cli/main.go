package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
)

// status mirrors one row of GET /api/urls.
type status struct {
	URL         string     `json:"url"`
	Status      *int       `json:"status"`
	LastChecked *time.Time `json:"last_checked"`
	LatencyMS   int64      `json:"latency_ms"`
	Entries     int        `json:"entries"`
}

func main() {
	_ = godotenv.Load()
	api := os.Getenv("API_BASE")
	if api == "" {
		api = "http://localhost:8080"
	}
	downOnly := len(os.Args) > 1 && os.Args[1] == "down"

	req, err := http.NewRequest(http.MethodGet, strings.TrimRight(api, "/")+"/api/urls", nil)
	if err != nil {
		fmt.Println("Invalid API_BASE:", err)
		os.Exit(1)
	}
	if key := firstKey(os.Getenv("API_KEYS")); key != "" {
		req.Header.Set("X-API-Key", key)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Println("Error contacting API:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		fmt.Println("API returned status:", resp.Status)
		os.Exit(1)
	}

	var rows []status
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		fmt.Println("Bad API response:", err)
		os.Exit(1)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tCODE\tLATENCY\tCHECKED\tURL")
	healthy := 0
	for _, r := range rows {
		label, code, checked := "UNKNOWN", "-", "never"
		if r.Status != nil {
			code = fmt.Sprint(*r.Status)
			label = "DOWN"
			if *r.Status == http.StatusOK {
				label = "UP"
				healthy++
			}
		}
		if r.LastChecked != nil {
			checked = humanize.Time(*r.LastChecked)
		}
		if downOnly && label == "UP" {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%dms\t%s\t%s\n", label, code, r.LatencyMS, checked, r.URL)
	}
	tw.Flush()
	fmt.Printf("%d/%d healthy\n", healthy, len(rows))
}

func firstKey(list string) string {
	k, _, _ := strings.Cut(list, ",")
	return strings.TrimSpace(k)
}
