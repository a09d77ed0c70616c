package main

import (
	"flag"
	"log"
	"net/http"
	"strings"

	"github.com/pulsemetry/pulsemetry-go/internal/collector"
	"github.com/pulsemetry/pulsemetry-go/internal/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	host := flag.String("host", "", "Override listen host")
	port := flag.Int("port", 0, "Override listen port")
	origins := flag.String("origins", "", "Comma-separated allowed origins for browser viewers")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("No config loaded (%v), using defaults", err)
		cfg = config.Default()
	}

	if *host != "" {
		cfg.Collector.Host = *host
	}
	if *port > 0 {
		cfg.Collector.Port = *port
	}
	if *origins != "" {
		cfg.Collector.Origins = strings.Split(*origins, ",")
	}

	hub := collector.NewHub()
	srv := collector.NewServer(hub, cfg.Collector.Origins)

	mux := http.NewServeMux()
	srv.SetupRoutes(mux)

	if err := collector.ListenAndServe(cfg.Collector.Host, cfg.Collector.Port, mux); err != nil {
		log.Fatalf("Collector error: %v", err)
	}
}
