// Package main - sim-bot
// Load generator: many WebSocket sessions sending simulation commands.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/heatcity/internal/domain/content"
	"github.com/MRamiBalles/heatcity/internal/domain/ids"
	"github.com/MRamiBalles/heatcity/internal/domain/rules"
	"github.com/MRamiBalles/heatcity/internal/domain/world"
	"github.com/MRamiBalles/heatcity/internal/network"
)

// Config for the bot swarm.
type Config struct {
	ServerURL      string
	NumClients     int
	ActionInterval time.Duration
	TestDuration   time.Duration
	Advance        bool // also send ADVANCE commands
	Output         string
}

// Stats tracks performance metrics.
type Stats struct {
	MessagesSent     int64
	MessagesReceived int64
	BytesReceived    int64
	Denials          int64
	Errors           int64
	Latencies        []time.Duration
	mu               sync.Mutex
}

var personas = []ids.PersonaID{world.PersonaCivvies, world.PersonaMask}

func main() {
	serverURL := flag.String("url", "ws://localhost:8080/ws", "WebSocket server URL")
	numClients := flag.Int("clients", 20, "Number of concurrent sessions")
	interval := flag.Duration("interval", 250*time.Millisecond, "Command interval per session")
	duration := flag.Duration("duration", 30*time.Second, "Test duration")
	advance := flag.Bool("advance", false, "Drive ticks with ADVANCE commands")
	output := flag.String("out", "bot_results.json", "Results file")
	flag.Parse()

	config := Config{
		ServerURL:      *serverURL,
		NumClients:     *numClients,
		ActionInterval: *interval,
		TestDuration:   *duration,
		Advance:        *advance,
		Output:         *output,
	}

	fmt.Println("=========================================")
	fmt.Println("HEAT CITY SIM-BOT")
	fmt.Println("=========================================")
	fmt.Printf("Server:   %s\n", config.ServerURL)
	fmt.Printf("Clients:  %d\n", config.NumClients)
	fmt.Printf("Interval: %v\n", config.ActionInterval)
	fmt.Printf("Duration: %v\n", config.TestDuration)
	fmt.Println("=========================================")

	ctx, cancel := context.WithTimeout(context.Background(), config.TestDuration)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupt received, stopping...")
		cancel()
	}()

	stats := runSwarm(ctx, config)
	printResults(stats, config)
}

func runSwarm(ctx context.Context, config Config) *Stats {
	stats := &Stats{Latencies: make([]time.Duration, 0, 10000)}
	var wg sync.WaitGroup

	for i := 0; i < config.NumClients; i++ {
		wg.Add(1)
		go func(clientID int) {
			defer wg.Done()
			runClient(ctx, clientID, config, stats)
		}(i)
		// Stagger starts.
		time.Sleep(10 * time.Millisecond)
	}
	fmt.Printf("All %d clients started\n\n", config.NumClients)

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Printf("Progress: sent=%d recv=%d (%s) denials=%d errors=%d\n",
					atomic.LoadInt64(&stats.MessagesSent),
					atomic.LoadInt64(&stats.MessagesReceived),
					humanize.Bytes(uint64(atomic.LoadInt64(&stats.BytesReceived))),
					atomic.LoadInt64(&stats.Denials),
					atomic.LoadInt64(&stats.Errors))
			}
		}
	}()

	wg.Wait()
	return stats
}

func runClient(ctx context.Context, clientID int, config Config, stats *Stats) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, config.ServerURL, nil)
	if err != nil {
		log.Printf("client %d: connection failed: %v", clientID, err)
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	defer conn.Close()

	// Replies carry the command ID; match them to measure round trips.
	var pending sync.Map
	go func() {
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			atomic.AddInt64(&stats.MessagesReceived, 1)
			atomic.AddInt64(&stats.BytesReceived, int64(len(raw)))
			var reply network.Reply
			if err := json.Unmarshal(raw, &reply); err != nil {
				atomic.AddInt64(&stats.Errors, 1)
				continue
			}
			switch {
			case reply.Type == network.ReplyError:
				atomic.AddInt64(&stats.Errors, 1)
			case reply.Decision != nil && !reply.Decision.Allowed:
				atomic.AddInt64(&stats.Denials, 1)
			}
			if sent, ok := pending.LoadAndDelete(reply.ID); ok {
				stats.mu.Lock()
				stats.Latencies = append(stats.Latencies, time.Since(sent.(time.Time)))
				stats.mu.Unlock()
			}
		}
	}()

	rng := rand.New(rand.NewPCG(uint64(clientID), uint64(time.Now().UnixNano())))
	ticker := time.NewTicker(config.ActionInterval)
	defer ticker.Stop()
	for n := 0; ; n++ {
		select {
		case <-ctx.Done():
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-ticker.C:
			cmd := randomCommand(rng, config.Advance)
			cmd.ID = fmt.Sprintf("bot%03d-%d", clientID, n)
			pending.Store(cmd.ID, time.Now())
			if err := conn.WriteJSON(cmd); err != nil {
				atomic.AddInt64(&stats.Errors, 1)
				return
			}
			atomic.AddInt64(&stats.MessagesSent, 1)
		}
	}
}

func randomCommand(rng *rand.Rand, advance bool) network.Command {
	roll := rng.IntN(10)
	switch {
	case advance && roll == 0:
		return network.Command{Type: network.CmdAdvance}
	case roll < 3:
		return network.Command{Type: network.CmdStatus}
	case roll < 5:
		return network.Command{Type: network.CmdSwitch, Persona: personas[rng.IntN(len(personas))]}
	case roll < 7:
		return network.Command{Type: network.CmdCanUse, Persona: world.PersonaMask, Power: content.PowerKinetic,
			Use: rules.UseContext{Contact: rng.IntN(2) == 0}}
	default:
		return network.Command{Type: network.CmdUsePower, Persona: world.PersonaMask, Power: content.PowerKinetic,
			Use: rules.UseContext{Contact: true}}
	}
}

func printResults(stats *Stats, config Config) {
	fmt.Println("\n=========================================")
	fmt.Println("SIM-BOT RESULTS")
	fmt.Println("=========================================")

	sent := atomic.LoadInt64(&stats.MessagesSent)
	recv := atomic.LoadInt64(&stats.MessagesReceived)
	errs := atomic.LoadInt64(&stats.Errors)
	denials := atomic.LoadInt64(&stats.Denials)
	bytesIn := atomic.LoadInt64(&stats.BytesReceived)

	fmt.Printf("Commands Sent:     %s\n", humanize.Comma(sent))
	fmt.Printf("Messages Received: %s (%s)\n", humanize.Comma(recv), humanize.Bytes(uint64(bytesIn)))
	fmt.Printf("Denials:           %s\n", humanize.Comma(denials))
	fmt.Printf("Errors:            %s\n", humanize.Comma(errs))
	fmt.Printf("Error Rate:        %.2f%%\n", float64(errs)/float64(sent+1)*100)
	throughput := float64(sent) / config.TestDuration.Seconds()
	fmt.Printf("Throughput:        %.2f cmd/sec\n", throughput)

	stats.mu.Lock()
	lat := append([]time.Duration(nil), stats.Latencies...)
	stats.mu.Unlock()
	if len(lat) > 0 {
		var total time.Duration
		lo, hi := lat[0], lat[0]
		for _, l := range lat {
			total += l
			lo = min(lo, l)
			hi = max(hi, l)
		}
		fmt.Printf("\nRound trip:\n")
		fmt.Printf("  Min: %v\n", lo)
		fmt.Printf("  Avg: %v\n", total/time.Duration(len(lat)))
		fmt.Printf("  Max: %v\n", hi)
	}

	fmt.Println("\n-----------------------------------------")
	switch {
	case errs == 0:
		fmt.Println("PASSED: no errors")
	case float64(errs)/float64(sent+1) < 0.05:
		fmt.Println("WARNING: some errors (rate limiting counts as an error)")
	default:
		fmt.Println("FAILED: high error rate")
	}

	results := map[string]interface{}{
		"commands_sent":      sent,
		"messages_received":  recv,
		"bytes_received":     bytesIn,
		"denials":            denials,
		"errors":             errs,
		"throughput_per_sec": throughput,
		"config": map[string]interface{}{
			"clients":  config.NumClients,
			"interval": config.ActionInterval.String(),
			"duration": config.TestDuration.String(),
			"advance":  config.Advance,
		},
	}
	jsonData, _ := json.MarshalIndent(results, "", "  ")
	if err := os.WriteFile(config.Output, jsonData, 0644); err != nil {
		log.Printf("write results: %v", err)
		return
	}
	fmt.Printf("\nResults saved to %s\n", config.Output)
}
