package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// booking-race-sim fires concurrent bookings for one slot against a running booking service.
// Exactly one request should get 201; the rest should get 409.
func main() {
	var (
		baseURL  = flag.String("base-url", getenv("BASE_URL", "http://localhost:5000"), "booking service base url")
		shopID   = flag.String("shop-id", getenv("SHOP_ID", ""), "shop to book")
		start    = flag.String("start", getenv("START_TIME", ""), "slot start (RFC3339)")
		minutes  = flag.Int("minutes", 30, "appointment length")
		parallel = flag.Int("n", 10, "concurrent requests")
	)
	flag.Parse()

	if strings.TrimSpace(*shopID) == "" {
		fatal("SHOP_ID is required")
	}
	startAt, err := time.Parse(time.RFC3339, *start)
	if err != nil {
		fatal("START_TIME must be RFC3339")
	}
	if *parallel < 1 {
		fatal("n must be positive")
	}
	endAt := startAt.Add(time.Duration(*minutes) * time.Minute)
	target := strings.TrimRight(*baseURL, "/") + "/api/appointments"
	client := &http.Client{Timeout: 15 * time.Second}

	var (
		mu       sync.Mutex
		statuses = map[int]int{}
		wg       sync.WaitGroup
		gate     = make(chan struct{})
	)
	for i := 0; i < *parallel; i++ {
		payload, err := buildBooking(*shopID, i, startAt, endAt)
		if err != nil {
			fatal(err.Error())
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-gate
			code := post(client, target, payload)
			mu.Lock()
			statuses[code]++
			mu.Unlock()
		}()
	}
	close(gate)
	wg.Wait()

	codes := make([]int, 0, len(statuses))
	for code := range statuses {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		fmt.Printf("status=%d count=%d\n", code, statuses[code])
	}
	if statuses[http.StatusCreated] != 1 {
		fmt.Fprintf(os.Stderr, "expected exactly one booking, got %d\n", statuses[http.StatusCreated])
		os.Exit(1)
	}
}

func buildBooking(shopID string, i int, start, end time.Time) ([]byte, error) {
	return json.Marshal(map[string]any{
		"shop_id":        shopID,
		"customer_name":  fmt.Sprintf("Race Customer %d", i),
		"customer_email": fmt.Sprintf("race-%d@example.com", i),
		"service":        "Corte",
		"start_time":     start.Format(time.RFC3339),
		"end_time":       end.Format(time.RFC3339),
	})
}

// post returns the response status, or 0 on transport errors.
func post(client *http.Client, target string, payload []byte) int {
	resp, err := client.Post(target, "application/json", bytes.NewReader(payload))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 0
	}
	defer resp.Body.Close()
	return resp.StatusCode
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}
