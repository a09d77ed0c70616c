package main

import (
	"flag"
	"log"
	"time"

	telemetry "github.com/pulsemetry/pulsemetry-go"
	"github.com/pulsemetry/pulsemetry-go/host"
	"github.com/pulsemetry/pulsemetry-go/internal/config"
)

// The demo replays a scripted lifecycle against a collector: the first
// foreground starts a session, a quick tab-away must not renew it, and a
// background stretch past the renewal interval must.
func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	server := flag.String("server", "ws://127.0.0.1:8127/track", "Collector URL")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("No config loaded (%v), using defaults", err)
		cfg = config.Default()
	}

	env := host.DetectEnv()
	if cfg.App.Identifier != "" {
		env.AppIdentifier = cfg.App.Identifier
	}
	if cfg.Data.Dir != "" {
		env.DataDir = cfg.Data.Dir
	}
	if cfg.Server.URL != "" {
		env.ServerURL = cfg.Server.URL
	}
	if *server != "" {
		env.ServerURL = *server
	}
	env.ChannelBatchSize = cfg.Channel.MaxBatchSize
	env.ChannelFlushInterval = cfg.Channel.FlushInterval
	env.SpoolMaxPendingFiles = cfg.Spool.MaxPendingFiles

	app := host.NewApp()
	telemetry.Register(env, app)
	log.Printf("Session tracking enabled: %v", telemetry.SessionTrackingEnabled())

	app.SceneCreated("home")
	app.SceneStarted("home")
	app.SceneResumed("home")

	time.Sleep(2 * time.Second)
	app.ScenePaused("home")

	// 3s in the background: below the renewal interval, same session.
	time.Sleep(3 * time.Second)
	app.SceneResumed("home")

	time.Sleep(2 * time.Second)
	app.ScenePaused("home")

	log.Printf("Backgrounded, waiting out the renewal interval...")
	time.Sleep(21 * time.Second)
	app.SceneResumed("home")

	// Give the channel's flush timer time to spool and ship the events.
	log.Printf("Waiting for the pipeline to flush...")
	time.Sleep(17 * time.Second)
	log.Printf("Done")
}
