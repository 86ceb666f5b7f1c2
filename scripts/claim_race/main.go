package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

type claimPayload struct {
	OwnerID      string `json:"owner_id"`
	Start        string `json:"start"`
	End          string `json:"end"`
	VisitorName  string `json:"visitor_name"`
	VisitorEmail string `json:"visitor_email"`
}

type result struct {
	Status   int
	Duration time.Duration
	Err      error
}

func main() {
	var (
		base     string
		ownerID  string
		start    string
		duration time.Duration
		racers   int
		timeout  time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:5000/api", "API base URL including prefix")
	flag.StringVar(&ownerID, "owner", "", "Owner whose slot is claimed")
	flag.StringVar(&start, "start", "", "Slot start (RFC3339)")
	flag.DurationVar(&duration, "duration", 30*time.Minute, "Slot length")
	flag.IntVar(&racers, "n", 20, "Concurrent claims to fire")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	if ownerID == "" || start == "" {
		log.Fatalf("-owner and -start are required")
	}
	startAt, err := time.Parse(time.RFC3339, start)
	if err != nil {
		log.Fatalf("invalid -start: %v", err)
	}
	if racers < 2 {
		racers = 2
	}

	client := &http.Client{Timeout: timeout}
	url := strings.TrimRight(base, "/") + "/book"
	results := make([]result, racers)

	gate := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			payload := claimPayload{
				OwnerID:      ownerID,
				Start:        startAt.UTC().Format(time.RFC3339),
				End:          startAt.Add(duration).UTC().Format(time.RFC3339),
				VisitorName:  fmt.Sprintf("racer-%02d", i),
				VisitorEmail: fmt.Sprintf("racer-%02d@example.com", i),
			}
			<-gate
			results[i] = claim(client, url, payload)
		}(i)
	}
	close(gate)
	wg.Wait()

	ok := printReport(results)
	if !ok {
		os.Exit(1)
	}
}

func claim(client *http.Client, url string, payload claimPayload) result {
	body, err := json.Marshal(payload)
	if err != nil {
		return result{Err: err}
	}
	began := time.Now()
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return result{Err: err, Duration: time.Since(began)}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return result{Status: resp.StatusCode, Duration: time.Since(began)}
}

// printReport summarises outcomes and reports whether exactly one claim won.
func printReport(results []result) bool {
	byStatus := map[int]int{}
	var failures int
	var slowest time.Duration
	for _, r := range results {
		if r.Err != nil {
			failures++
			fmt.Printf("request error: %v\n", r.Err)
			continue
		}
		byStatus[r.Status]++
		if r.Duration > slowest {
			slowest = r.Duration
		}
	}

	statuses := make([]int, 0, len(byStatus))
	for status := range byStatus {
		statuses = append(statuses, status)
	}
	sort.Ints(statuses)
	for _, status := range statuses {
		fmt.Printf("%d %s: %d\n", status, http.StatusText(status), byStatus[status])
	}
	fmt.Printf("Transport errors: %d, slowest: %s\n", failures, slowest)

	won := byStatus[http.StatusCreated]
	conflicts := byStatus[http.StatusConflict]
	if won != 1 || won+conflicts != len(results) {
		fmt.Printf("FAIL: expected 1 winner and %d conflicts\n", len(results)-1)
		return false
	}
	fmt.Println("OK: exactly one claim won")
	return true
}
