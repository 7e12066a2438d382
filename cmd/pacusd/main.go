// Package main provides the entry point for the pacusd node.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pac-network/pacusd-go/pkg/config"
	"github.com/pac-network/pacusd-go/pkg/genesis"
	"github.com/pac-network/pacusd-go/pkg/rpc"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	var (
		configPath  = flag.String("config", "", "path to JSON config file")
		port        = flag.Int("port", 0, "server port (overrides config)")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("pacusd-go version %s\n", Version)
		os.Exit(0)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadFromFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *port != 0 {
		cfg.Port = *port
	}

	sys, err := genesis.NewSystem(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("pacusd-go - PacUSD Exchange and Staking Node")
	fmt.Printf("Version:  %s\n", Version)
	fmt.Printf("Chain ID: %d\n", cfg.ChainID)
	fmt.Printf("Admin:    %s\n", sys.Admin.Hex())
	fmt.Println()
	fmt.Println("Accounts:")
	for i, acc := range sys.Accounts {
		fmt.Printf("  (%d) %s\n", i, acc.Address.Hex())
	}
	fmt.Println()
	fmt.Printf("Listening on %s\n", cfg.ServerAddr())

	server := &http.Server{
		Addr:    cfg.ServerAddr(),
		Handler: rpc.NewServer(sys),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	case <-sigCh:
		fmt.Println("\nshutting down")
		server.Close()
	}
}
