// Command loadtest drives a running storestream instance: it opens a
// number of SSE subscriber streams per room, publishes events at a
// fixed rate, and reports delivery counts.
//
//	loadtest -addr localhost:8080 -secret dev-secret-change-me-please \
//	    -rooms 4 -clients 25 -rate 10 -duration 30s
package main

import (
	"bufio"
	"bytes"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/skillsenselab/storestream/internal/auth"
	"github.com/skillsenselab/storestream/internal/logging"
)

type options struct {
	addr     string
	secret   string
	issuer   string
	rooms    int
	clients  int
	rate     int
	duration time.Duration
}

type counters struct {
	connected atomic.Int64
	events    atomic.Int64
	published atomic.Int64
	errors    atomic.Int64
}

func main() {
	var opts options
	flag.StringVar(&opts.addr, "addr", "localhost:8080", "storestream host:port")
	flag.StringVar(&opts.secret, "secret", "", "shared token secret (required)")
	flag.StringVar(&opts.issuer, "issuer", "storestream", "token issuer")
	flag.IntVar(&opts.rooms, "rooms", 2, "number of rooms (one branch each)")
	flag.IntVar(&opts.clients, "clients", 10, "subscriber streams per room")
	flag.IntVar(&opts.rate, "rate", 5, "publishes per second per room")
	flag.DurationVar(&opts.duration, "duration", 30*time.Second, "test duration")
	flag.Parse()

	logging.Init(logging.Config{Level: "info", Format: "console", Timestamp: true}, "loadtest")
	log := logging.GetGlobalLogger()

	if opts.secret == "" {
		log.Fatal("missing -secret")
	}

	svc, err := auth.NewService(auth.Config{Secret: opts.secret, Issuer: opts.issuer})
	if err != nil {
		log.Fatal("auth service", logging.ErrorFields("init", err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.duration)
	defer cancel()

	var c counters
	var wg sync.WaitGroup

	for room := 0; room < opts.rooms; room++ {
		identity := auth.Identity{
			ShopID:   fmt.Sprintf("shop-%d", room),
			BranchID: "main",
			Subject:  "loadtest",
		}
		token, err := svc.Mint(identity)
		if err != nil {
			log.Fatal("minting token", logging.ErrorFields("mint", err))
		}

		for i := 0; i < opts.clients; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				subscribe(ctx, opts, token, &c)
			}()
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			publish(ctx, opts, token, &c)
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	start := time.Now()
	for {
		select {
		case <-ticker.C:
			report(log, &c, time.Since(start))
		case <-done:
			report(log, &c, time.Since(start))
			expected := c.published.Load() * int64(opts.clients)
			log.Info("finished", map[string]interface{}{
				"expected_deliveries": expected,
				"actual_deliveries":   c.events.Load(),
			})
			if c.errors.Load() > 0 {
				os.Exit(1)
			}
			return
		}
	}
}

func report(log *logging.Logger, c *counters, elapsed time.Duration) {
	log.Info("progress", map[string]interface{}{
		"elapsed":   elapsed.Round(time.Second).String(),
		"connected": c.connected.Load(),
		"events":    c.events.Load(),
		"published": c.published.Load(),
		"errors":    c.errors.Load(),
	})
}

// subscribe opens one SSE stream and counts entity-event frames until
// the context expires.
func subscribe(ctx context.Context, opts options, token string, c *counters) {
	url := fmt.Sprintf("http://%s/api/stream?access_token=%s", opts.addr, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.errors.Add(1)
		return
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		c.errors.Add(1)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.errors.Add(1)
		return
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "event: connected":
			c.connected.Add(1)
		case line == "event: entity-event":
			c.events.Add(1)
		}
	}
	// A scanner error at context expiry is the normal way out.
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		c.errors.Add(1)
	}
}

// publish posts events at the configured rate until the context
// expires.
func publish(ctx context.Context, opts options, token string, c *counters) {
	if opts.rate <= 0 {
		return
	}
	interval := time.Second / time.Duration(opts.rate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	url := fmt.Sprintf("http://%s/api/publish", opts.addr)
	seq := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			seq++
			body := fmt.Sprintf(`{"entity":"order","action":"created","data":{"seq":%d}}`, seq)
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(body))
			if err != nil {
				c.errors.Add(1)
				continue
			}
			req.Header.Set("Authorization", "Bearer "+token)
			req.Header.Set("Content-Type", "application/json")
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				if ctx.Err() == nil {
					c.errors.Add(1)
				}
				continue
			}
			if resp.StatusCode == http.StatusOK {
				c.published.Add(1)
			} else {
				c.errors.Add(1)
			}
			resp.Body.Close()
		}
	}
}
