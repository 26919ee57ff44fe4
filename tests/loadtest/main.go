// Command loadtest drives a standbot instance running in webhook mode.
//
// Point the bot at the stub Bot API this tool serves:
//
//	telegram.mode: webhook
//	telegram.apiUrl: http://127.0.0.1:18091
//	telegram.webhookSecret: loadtest
package main

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
)

const (
	baseURL         = "http://127.0.0.1:18090"
	stubAPIAddr     = "127.0.0.1:18091"
	webhookPath     = "/telegram/webhook"
	webhookSecret   = "loadtest"
	numWorkers      = 50
	testDuration    = 10 * time.Second
	numPrivateChats = 200
	numGroups       = 10
	firstGroupID    = -1001000000000
	openPhrase      = "STAND UP"
	closePhrase     = "SIT DOWN"
)

var httpClient = &http.Client{
	Timeout: 5 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        200,
		MaxIdleConnsPerHost: 200,
		IdleConnTimeout:     30 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}

var (
	updateID  atomic.Int64
	messageID atomic.Int64
	apiCalls  atomic.Int64
)

type result struct {
	endpoint string
	status   int
	latency  time.Duration
	err      bool
}

type stats struct {
	count     int64
	errors    int64
	latencies []time.Duration
}

// serveStubAPI answers every Bot API method with a successful message.
func serveStubAPI() {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"ok":true,"result":{"message_id":%d,"date":%d,"chat":{"id":1,"title":"Load Group"}}}`,
			messageID.Add(1), time.Now().Unix())
	})
	go func() {
		if err := http.ListenAndServe(stubAPIAddr, handler); err != nil {
			fmt.Println("stub Bot API stopped:", err)
		}
	}()
}

func main() {
	fmt.Println("=== standbot Load Test ===")
	fmt.Printf("Workers: %d | Duration: %s\n", numWorkers, testDuration)
	fmt.Printf("Private chats: %d | Groups: %d\n\n", numPrivateChats, numGroups)

	serveStubAPI()

	// Wait for server
	fmt.Print("Waiting for server... ")
	for i := 0; i < 30; i++ {
		resp, err := httpClient.Get(baseURL + "/health")
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			break
		}
		if i == 29 {
			fmt.Println("FAILED: server not responding")
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	fmt.Println("OK")

	// Phase 1: session traffic through the webhook
	fmt.Println("\n--- Phase 1: Sessions (POST webhook) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		return doSessionUpdate(rng)
	})

	fmt.Println("\nWaiting 2s for the dispatcher to drain...")
	time.Sleep(2 * time.Second)

	// Phase 2: Mixed read/write load
	fmt.Println("\n--- Phase 2: Mixed load (70% webhook, 30% GET) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.70:
			return doSessionUpdate(rng)
		case r < 0.85:
			return doGetLeaderboard(rng)
		default:
			return doGetTotals(rng)
		}
	})

	// Phase 3: Read-heavy load
	fmt.Println("\n--- Phase 3: Read-heavy load (10% webhook, 90% GET) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.10:
			return doSessionUpdate(rng)
		case r < 0.60:
			return doGetLeaderboard(rng)
		default:
			return doGetTotals(rng)
		}
	})

	fmt.Printf("\nStub Bot API calls: %d\n", apiCalls.Load())
}

func runPhase(duration time.Duration, workFn func(rng *rand.Rand) result) {
	results := make(chan result, 10000)
	var wg sync.WaitGroup
	var totalOps atomic.Int64
	stop := make(chan struct{})

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
					r := workFn(rng)
					totalOps.Add(1)
					results <- r
				}
			}
		}(rand.Int63() + int64(i))
	}

	allResults := make(map[string]*stats)
	done := make(chan struct{})
	go func() {
		for r := range results {
			s, ok := allResults[r.endpoint]
			if !ok {
				s = &stats{}
				allResults[r.endpoint] = s
			}
			s.count++
			if r.err {
				s.errors++
			}
			s.latencies = append(s.latencies, r.latency)
		}
		close(done)
	}()

	time.Sleep(duration)
	close(stop)
	wg.Wait()
	close(results)
	<-done

	printResults(allResults, duration)
}

func printResults(allResults map[string]*stats, duration time.Duration) {
	var totalOps int64
	var totalErrors int64

	endpoints := make([]string, 0, len(allResults))
	for ep := range allResults {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	fmt.Printf("\n  %-22s %8s %6s %10s %10s %10s %10s\n",
		"Endpoint", "Reqs", "Errs", "Avg", "P50", "P95", "P99")
	fmt.Println("  " + repeat("-", 88))

	for _, ep := range endpoints {
		s := allResults[ep]
		totalOps += s.count
		totalErrors += s.errors

		sort.Slice(s.latencies, func(i, j int) bool {
			return s.latencies[i] < s.latencies[j]
		})

		avg := avgDuration(s.latencies)
		p50 := percentile(s.latencies, 0.50)
		p95 := percentile(s.latencies, 0.95)
		p99 := percentile(s.latencies, 0.99)

		fmt.Printf("  %-22s %8d %6d %10s %10s %10s %10s\n",
			ep, s.count, s.errors, fmtDur(avg), fmtDur(p50), fmtDur(p95), fmtDur(p99))
	}

	rps := float64(totalOps) / duration.Seconds()
	fmt.Println("  " + repeat("-", 88))
	fmt.Printf("  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		totalOps, totalErrors, float64(totalErrors)/float64(totalOps)*100, rps)
}

func textMessage(chatID int64, text string) map[string]any {
	return map[string]any{
		"message_id": messageID.Add(1),
		"date":       time.Now().Unix(),
		"chat":       map[string]any{"id": chatID, "type": "private"},
		"text":       text,
	}
}

// doSessionUpdate posts one step of a select, open, close cycle for a random
// private chat. Steps are random, so some land out of order on purpose.
func doSessionUpdate(rng *rand.Rand) result {
	chatID := int64(rng.Intn(numPrivateChats) + 1)

	var message map[string]any
	switch rng.Intn(3) {
	case 0:
		message = textMessage(chatID, "")
		delete(message, "text")
		message["chat_shared"] = map[string]any{"request_id": 1, "chat_id": firstGroupID - int64(rng.Intn(numGroups))}
	case 1:
		message = textMessage(chatID, openPhrase)
	default:
		message = textMessage(chatID, closePhrase)
	}

	data, _ := json.Marshal(map[string]any{"update_id": updateID.Add(1), "message": message})
	req, _ := http.NewRequest(http.MethodPost, baseURL+webhookPath, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", webhookSecret)

	start := time.Now()
	resp, err := httpClient.Do(req)
	lat := time.Since(start)
	if err != nil {
		return result{"POST webhook", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"POST webhook", resp.StatusCode, lat, resp.StatusCode != 200}
}

var windows = []string{"day", "week", "month", "year", "all"}

func doGetLeaderboard(rng *rand.Rand) result {
	reducer := "sum"
	if rng.Intn(2) == 0 {
		reducer = "avg"
	}
	url := fmt.Sprintf("%s/leaderboard?window=%s&reducer=%s", baseURL, windows[rng.Intn(len(windows))], reducer)
	start := time.Now()
	resp, err := httpClient.Get(url)
	lat := time.Since(start)
	if err != nil {
		return result{"GET /leaderboard", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"GET /leaderboard", resp.StatusCode, lat, resp.StatusCode != 200}
}

func doGetTotals(rng *rand.Rand) result {
	group := firstGroupID - int64(rng.Intn(numGroups))
	url := fmt.Sprintf("%s/totals?conversation=%d", baseURL, group)
	start := time.Now()
	resp, err := httpClient.Get(url)
	lat := time.Since(start)
	if err != nil {
		return result{"GET /totals", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"GET /totals", resp.StatusCode, lat, resp.StatusCode != 200}
}

func avgDuration(d []time.Duration) time.Duration {
	if len(d) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range d {
		sum += v
	}
	return sum / time.Duration(len(d))
}

func percentile(d []time.Duration, p float64) time.Duration {
	if len(d) == 0 {
		return 0
	}
	idx := int(float64(len(d)) * p)
	if idx >= len(d) {
		idx = len(d) - 1
	}
	return d[idx]
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}

func repeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}
