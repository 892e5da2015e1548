package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/corewar-arena/corewar/config"
	"github.com/corewar-arena/corewar/loader"
	"github.com/corewar-arena/corewar/observer"
	"github.com/corewar-arena/corewar/vm"
)

// Version information, overridable at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func main() {
	var (
		showVersion  = flag.Bool("version", false, "Show version information")
		showHelp     = flag.Bool("help", false, "Show help information")
		observerMode = flag.Bool("observer", false, "Start the HTTP+WebSocket observer server instead of running a match directly")
		listenAddr   = flag.String("listen", "127.0.0.1:8765", "Observer server listen address (used with -observer)")
		maxCycles    = flag.Uint64("max-cycles", 100_000_000, "Maximum cycles before a direct match is halted")
		verboseMode  = flag.Bool("verbose", false, "Verbose output")
	)

	flag.Parse()

	if *showVersion {
		fmt.Printf("Corewar Arena %s\n", Version)
		if Commit != "unknown" {
			fmt.Printf("Commit: %s\n", Commit)
		}
		if Date != "unknown" {
			fmt.Printf("Built: %s\n", Date)
		}
		os.Exit(0)
	}

	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	if *observerMode {
		runObserverServer(*listenAddr)
		return
	}

	if flag.NArg() == 0 {
		printHelp()
		os.Exit(0)
	}

	runDirectMatch(flag.Args(), *maxCycles, *verboseMode)
}

// runDirectMatch assembles/loads every champion path and runs the match to
// completion in-process, printing the winner when it ends.
func runDirectMatch(paths []string, maxCycles uint64, verbose bool) {
	entries, err := loader.BuildMatch(paths)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading champions: %v\n", err)
		os.Exit(1)
	}

	machine := vm.New()
	if err := machine.LoadPlayers(entries); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading players into arena: %v\n", err)
		os.Exit(1)
	}
	machine.SetAffHandler(func(b byte) {
		fmt.Fprintf(os.Stdout, "%c", b)
	})

	if verbose {
		fmt.Printf("Loaded %d champions into a %d-process arena\n", machine.PlayerCount(), machine.ProcessCount())
	}

	for {
		empty := machine.Tick()
		if empty || uint64(machine.Cycles) >= maxCycles {
			break
		}
	}

	if verbose {
		fmt.Printf("\nMatch ended after %d cycles\n", machine.Cycles)
	}

	if winner, ok := machine.Winner(); ok {
		fmt.Printf("Winner: %s (player %d)\n", winner.Name, winner.ID)
	} else {
		fmt.Println("No winner: no player ever called live()")
	}
}

// runObserverServer starts the HTTP+WebSocket observer server and blocks
// until it receives SIGINT/SIGTERM.
func runObserverServer(addr string) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	broadcastTick := cfg.Observer.BroadcastTick
	if addr == "" {
		addr = cfg.Observer.ListenAddr
	}

	server := observer.NewServer(addr, broadcastTick)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var shutdownOnce sync.Once
	performShutdown := func() {
		shutdownOnce.Do(func() {
			fmt.Println("\nShutting down observer server...")

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
				os.Exit(1)
			}

			fmt.Println("observer server stopped")
			os.Exit(0)
		})
	}

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "observer server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-sigChan
	performShutdown()
}

func printHelp() {
	fmt.Printf(`Corewar Arena %s

Usage: corewar [options] <champion-file> [champion-file ...]
       corewar -observer [-listen ADDR]

Options:
  -help              Show this help message
  -version           Show version information
  -observer          Start the HTTP+WebSocket observer server instead of
                     running a match directly
  -listen ADDR       Observer server listen address (default: 127.0.0.1:8765)
  -max-cycles N      Maximum cycles before a direct match is halted
  -verbose           Enable verbose output

Examples:
  # Run a match directly between two champions and print the winner
  corewar champ1.s champ2.cor

  # Start the observer server for a spectator frontend
  corewar -observer
  corewar -observer -listen 0.0.0.0:9000
`, Version)
}
