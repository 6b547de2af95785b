package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
)

func main() {
	cfg, err := LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if cfg.ClientDir == "" {
		exe, _ := os.Executable()
		cfg.ClientDir = filepath.Join(filepath.Dir(exe), "..", "client")
		// Fallback for development
		if _, err := os.Stat(cfg.ClientDir); os.IsNotExist(err) {
			cfg.ClientDir = "../client"
		}
	}

	tuning, err := LoadTuning(cfg.TuningPath)
	if err != nil {
		log.Fatalf("tuning: %v", err)
	}

	db, err := OpenDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	var cache LayoutCache
	if cfg.CacheName != "" {
		dc, err := OpenDiskCache(cfg.CacheName)
		if err != nil {
			log.Printf("warning: offline cache disabled: %v", err)
		} else {
			cache = dc
		}
	}

	presence := NewPresenceHub(db, tuning.PresenceStale)
	if err := presence.Load(time.Now()); err != nil {
		log.Printf("presence: load: %v", err)
	} else {
		log.Printf("presence: restored %d poses", presence.Count(time.Now()))
	}
	go presence.Run()

	analytics := NewAnalytics(db)
	provider := NewWorldProvider(db, cache, cfg.WorldSeed)
	sessions := NewSessionManager(tuning, provider, presence, analytics)

	hub := NewHub(sessions, NewAuth(db, cfg.JWTSecret), analytics)
	go hub.Run()

	mux := SetupRoutes(hub, db, cfg.ClientDir)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{Addr: cfg.Addr, Handler: mux}

	go func() {
		log.Printf("Server starting on %s", cfg.Addr)
		log.Printf("Serving client files from %s", cfg.ClientDir)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down...")
	server.Close()
	sessions.StopAll()
	presence.Stop()
	analytics.Stop()
}
