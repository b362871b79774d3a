// Package main - sim-verify
// Runs the determinism scenarios against one or more seeds.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/MRamiBalles/heatcity/internal/platform/config"
	"github.com/MRamiBalles/heatcity/internal/platform/logger"
	"github.com/MRamiBalles/heatcity/test"
)

func main() {
	seeds := flag.Int("seeds", 3, "Number of seeds to check, starting at -seed")
	seed := flag.Int64("seed", 42, "First seed")
	ticks := flag.Int("ticks", 100, "Ticks per run")
	balancePath := flag.String("balance", "", "Optional balance YAML")
	verbose := flag.Bool("v", false, "Log every scenario")
	flag.Parse()

	balance, err := config.LoadBalance(*balancePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	workDir, err := os.MkdirTemp("", "sim-verify-")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer os.RemoveAll(workDir)

	log := logger.Discard()
	if *verbose {
		log = logger.NewLogger()
	}

	fmt.Println("HEAT CITY - DETERMINISM SUITE")
	fmt.Println(strings.Repeat("=", 60))

	ctx := context.Background()
	passed, failed := 0, 0
	for s := *seed; s < *seed+int64(*seeds); s++ {
		h := test.NewHarness(s, *ticks, workDir, log)
		h.Balance = balance
		for _, r := range h.RunAll(ctx) {
			mark := "PASS"
			if r.Passed {
				passed++
			} else {
				failed++
				mark = "FAIL"
			}
			fmt.Printf("  [%s] seed %-6d %-28s %s\n", mark, s, r.ScenarioName, r.Reason)
		}
	}

	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("   Passed: %d\n", passed)
	fmt.Printf("   Failed: %d\n", failed)
	if failed > 0 {
		os.Exit(1)
	}
}
