package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/hamed0406/statuspage/internal/domain"
)

func main() {
	api := os.Getenv("STATUSPAGE_API_BASE")
	if api == "" {
		api = "http://localhost:8080"
	}
	flag.StringVar(&api, "api", api, "statuspage API base URL")
	limit := flag.Int("limit", 20, "number of recent signals")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	groups, err := fetch(ctx, api, *limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error contacting API:", err)
		os.Exit(1)
	}
	if err := render(os.Stdout, groups); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func fetch(ctx context.Context, base string, limit int) ([]domain.SignalGroup, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("bad api url: %w", err)
	}
	u = u.JoinPath("signals")
	u.RawQuery = url.Values{"limit": {strconv.Itoa(limit)}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return nil, fmt.Errorf("API returned %s: %s", resp.Status, e.Error)
	}
	var groups []domain.SignalGroup
	if err := json.NewDecoder(resp.Body).Decode(&groups); err != nil {
		return nil, fmt.Errorf("decode signals: %w", err)
	}
	return groups, nil
}

func render(w io.Writer, groups []domain.SignalGroup) error {
	if len(groups) == 0 {
		_, err := fmt.Fprintln(w, "No signals yet.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, g := range groups {
		fmt.Fprintf(tw, "%s\n", g.URL)
		fmt.Fprintln(tw, "RECEIVED\tSTATUS\tUP")
		for _, s := range g.Records {
			status := strconv.Itoa(s.HTTPStatus)
			if s.HTTPStatus == domain.StatusProbeFailed {
				status = "no response"
			}
			up := "down"
			if s.Available {
				up = "up"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Received.Local().Format(time.DateTime), status, up)
		}
	}
	return tw.Flush()
}
