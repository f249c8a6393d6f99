// netsecd is the network security monitoring daemon.
//
// Usage:
//
//	netsecd --config-dir /etc/netsecd
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/netsecio/netsecd/internal/config"
	"github.com/netsecio/netsecd/internal/daemon"
)

var flagConfigDir = flag.String("config-dir", "config", "Directory containing default.toml and an optional local.toml")

func main() {
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.LoadConfig(*flagConfigDir)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("shutdown signal: %v", sig)
		cancel()
	}()

	d, err := daemon.New(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize daemon: %v", err)
	}

	if err := d.Run(ctx); err != nil {
		log.Fatalf("daemon failed: %v", err)
	}
}
