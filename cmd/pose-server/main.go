// Pose Stabilization Server
//
// This server answers WebRTC offers from browsers and stabilizes the pose
// landmarks they stream over a "pose" data channel. Each peer connection
// gets its own depth filter.
//
// Usage:
//
//	go run ./cmd/pose-server -addr :8080
//	go run ./cmd/pose-server -config pose-server.yaml -log-level debug
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/thesyncim/posekf/cmd/pose-server/server"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	addr := flag.String("addr", "", "Listen address, overrides the config file (default :8080)")
	logLevel := flag.String("log-level", "", "Log level: disable, error, warn, info, debug, trace")
	flag.Parse()

	cfg := server.DefaultConfig()
	cfg.Addr = ":8080"
	if *configPath != "" {
		loaded, err := server.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	listenAddr, err := srv.Start()
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	fmt.Printf(`
Pose Stabilization Server
=========================
1. Open http://%s in Chrome
2. Click "Start Demo"
3. GET http://%s/sessions for per-session statistics

`, listenAddr, listenAddr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	fmt.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
