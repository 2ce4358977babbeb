package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Simplified DTOs for the client
type streamEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
	Node string          `json:"node"`
}

type analyzeResult struct {
	RunId    string `json:"run_id"`
	SqlQuery string `json:"sql_query"`
	Rows     struct {
		Columns []string `json:"columns"`
		Rows    [][]any  `json:"rows"`
	} `json:"rows"`
	Visualization *struct {
		ChartType         string   `json:"chart_type"`
		Title             string   `json:"title"`
		RecommendedCharts []string `json:"recommended_charts"`
	} `json:"visualization"`
	RetryCount int    `json:"retry_count"`
	Error      string `json:"error"`
}

func main() {
	baseURL := flag.String("url", envOr("INSIGHTAI_URL", "http://localhost:3000/api"), "API base url")
	flag.Parse()

	questions := flag.Args()
	if len(questions) == 0 {
		questions = []string{"Show me total sales by category"}
	}

	color.Cyan("=== InsightAI Stream Client ===")

	for _, q := range questions {
		color.Yellow("\nUSER: %s", q)

		start := time.Now()
		if err := ask(*baseURL, q); err != nil {
			color.Red("Error: %v", err)
			continue
		}
		fmt.Printf("(%v)\n", time.Since(start).Round(time.Millisecond))
	}
}

func ask(baseURL, question string) error {
	body, _ := json.Marshal(map[string]string{"question": question})
	req, err := http.NewRequest("POST", baseURL+"/analyze/v1/stream", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	fmt.Printf("run %s\n", resp.Header.Get("X-Run-Id"))

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var ev streamEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			log.Printf("skipping malformed event: %v", err)
			continue
		}

		switch ev.Type {
		case "step":
			var msg string
			_ = json.Unmarshal(ev.Data, &msg)
			fmt.Printf("  [%s] %s\n", ev.Node, msg)
		case "result":
			printResult(ev.Data)
		case "error":
			var msg string
			_ = json.Unmarshal(ev.Data, &msg)
			color.Red("  %s", msg)
		}
	}
	return scanner.Err()
}

func printResult(raw json.RawMessage) {
	var res analyzeResult
	if err := json.Unmarshal(raw, &res); err != nil {
		color.Red("  unreadable result: %v", err)
		return
	}

	color.Green("SQL: %s", res.SqlQuery)
	if res.RetryCount > 0 {
		fmt.Printf("retries: %d\n", res.RetryCount)
	}
	if res.Error != "" {
		color.Red("error: %s", res.Error)
	}
	fmt.Printf("%d rows, columns %v\n", len(res.Rows.Rows), res.Rows.Columns)
	if v := res.Visualization; v != nil {
		color.Magenta("chart: %s %q (also: %s)", v.ChartType, v.Title, strings.Join(v.RecommendedCharts, ", "))
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
