package main

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/websocket"
)

const (
	defaultLeaderboard = 10
	maxLeaderboard     = 100
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// StatsResponse is the /api/stats payload
type StatsResponse struct {
	Peers    int            `json:"peers"`
	Sessions int            `json:"sessions"`
	DAU      int            `json:"dau"`
	Events   map[string]int `json:"events,omitempty"`
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("http: encode response: %v", err)
	}
}

// SetupRoutes configures HTTP routes. db may be nil.
func SetupRoutes(hub *Hub, db *DB, clientDir string) *http.ServeMux {
	mux := http.NewServeMux()

	// Serve static files with no-cache so browsers always revalidate
	fs := http.FileServer(http.Dir(clientDir))
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		fs.ServeHTTP(w, r)
	}))

	mux.HandleFunc("/qr", handleQR(hub.sessions))

	mux.HandleFunc("/api/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		limit := defaultLeaderboard
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				http.Error(w, "bad limit", http.StatusBadRequest)
				return
			}
			if n > maxLeaderboard {
				n = maxLeaderboard
			}
			limit = n
		}
		entries := []LeaderboardEntry{}
		if db != nil {
			got, err := db.GetLeaderboard(limit)
			if err != nil {
				log.Printf("http: leaderboard: %v", err)
				http.Error(w, "leaderboard unavailable", http.StatusInternalServerError)
				return
			}
			if got != nil {
				entries = got
			}
		}
		writeJSON(w, entries)
	})

	mux.HandleFunc("/api/runs", func(w http.ResponseWriter, r *http.Request) {
		pid := r.URL.Query().Get("pid")
		if pid == "" {
			http.Error(w, "missing pid", http.StatusBadRequest)
			return
		}
		runs := []RunRow{}
		if db != nil {
			got, err := db.GetRuns(pid, defaultLeaderboard)
			if err != nil {
				log.Printf("http: runs: %v", err)
				http.Error(w, "runs unavailable", http.StatusInternalServerError)
				return
			}
			if got != nil {
				runs = got
			}
		}
		writeJSON(w, runs)
	})

	mux.HandleFunc("/api/stats", func(w http.ResponseWriter, r *http.Request) {
		stats := StatsResponse{}
		if a := hub.analytics; a != nil {
			stats.Peers, stats.Sessions = a.GetLiveMetrics()
			var err error
			if stats.DAU, err = a.DAUCount(); err != nil {
				log.Printf("http: dau: %v", err)
			}
			if stats.Events, err = a.EventCounts(7); err != nil {
				log.Printf("http: event counts: %v", err)
			}
		}
		writeJSON(w, stats)
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]int{
			"clients":  hub.ClientCount(),
			"conns":    hub.TotalConns(),
			"sessions": hub.sessions.Count(),
		})
	})

	// WebSocket endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade error: %v", err)
			return
		}

		hub.TrackConnect(ip)

		client := NewClient(hub, conn, ip)
		hub.register <- client

		go client.WritePump()
		go client.ReadPump()
	})

	return mux
}
