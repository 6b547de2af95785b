package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Event types for run tracking
const (
	EvtSessionStart = "session_start"
	EvtSessionEnd   = "session_end"
	EvtRunStart     = "run_start"
	EvtRunEnd       = "run_end"
	EvtCoin         = "coin"
	EvtBuff         = "buff"
	EvtEnemyKilled  = "enemy_killed"
	EvtPenalty      = "penalty"
)

// EventSink receives what a session reports about its runs. Calls must
// never block the tick.
type EventSink interface {
	Track(evtType, peerID, sessionID string, data interface{})
	RecordRun(r RunRow)
}

// AnalyticsEvent represents a single trackable event
type AnalyticsEvent struct {
	Type      string
	PeerID    string
	SessionID string
	Data      string // JSON metadata (optional)
	Timestamp time.Time
}

// Analytics handles event tracking and run history with batched background writes
type Analytics struct {
	db     *DB
	events chan AnalyticsEvent
	runs   chan RunRow
	stop   chan struct{}
	wg     sync.WaitGroup

	// Live metrics
	mu              sync.RWMutex
	concurrentPeers int
	activeSessions  int
}

// NewAnalytics creates and starts the analytics background writer
func NewAnalytics(db *DB) *Analytics {
	a := &Analytics{
		db:     db,
		events: make(chan AnalyticsEvent, 1024),
		runs:   make(chan RunRow, 64),
		stop:   make(chan struct{}),
	}
	a.wg.Add(1)
	go a.writer()
	return a
}

// Track enqueues an event for async persistence (non-blocking)
func (a *Analytics) Track(evtType, peerID, sessionID string, data interface{}) {
	var encoded string
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			log.Printf("analytics: marshal %s: %v", evtType, err)
		} else {
			encoded = string(b)
		}
	}
	select {
	case a.events <- AnalyticsEvent{
		Type:      evtType,
		PeerID:    peerID,
		SessionID: sessionID,
		Data:      encoded,
		Timestamp: time.Now().UTC(),
	}:
	default:
		// Channel full, drop rather than stall the tick
	}
}

// RecordRun enqueues a finished run (non-blocking)
func (a *Analytics) RecordRun(r RunRow) {
	select {
	case a.runs <- r:
	default:
		log.Printf("analytics: run queue full, dropping run for %s", r.PeerID)
	}
}

// SetConcurrentPeers updates live player count metric
func (a *Analytics) SetConcurrentPeers(n int) {
	a.mu.Lock()
	a.concurrentPeers = n
	a.mu.Unlock()
}

// SetActiveSessions updates live session count metric
func (a *Analytics) SetActiveSessions(n int) {
	a.mu.Lock()
	a.activeSessions = n
	a.mu.Unlock()
}

// GetLiveMetrics returns current live metrics
func (a *Analytics) GetLiveMetrics() (int, int) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.concurrentPeers, a.activeSessions
}

// Stop drains pending writes and shuts the writer down
func (a *Analytics) Stop() {
	close(a.stop)
	a.wg.Wait()
}

// writer is the background goroutine that batches and writes to the DB
func (a *Analytics) writer() {
	defer a.wg.Done()

	batch := make([]AnalyticsEvent, 0, 64)
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case evt := <-a.events:
			batch = append(batch, evt)
			if len(batch) >= 50 {
				a.flush(batch)
				batch = batch[:0]
			}
		case r := <-a.runs:
			a.saveRun(r)
		case <-ticker.C:
			if len(batch) > 0 {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-a.stop:
			// Drain whatever is queued; senders never close these channels
			for {
				select {
				case evt := <-a.events:
					batch = append(batch, evt)
					continue
				case r := <-a.runs:
					a.saveRun(r)
					continue
				default:
				}
				break
			}
			if len(batch) > 0 {
				a.flush(batch)
			}
			return
		}
	}
}

func (a *Analytics) saveRun(r RunRow) {
	if a.db == nil {
		return
	}
	if _, err := a.db.RecordRun(r); err != nil {
		log.Printf("analytics: record run: %v", err)
	}
}

// flush writes a batch of events to the database
func (a *Analytics) flush(events []AnalyticsEvent) {
	if a.db == nil || len(events) == 0 {
		return
	}
	tx, err := a.db.conn.Begin()
	if err != nil {
		log.Printf("analytics: begin tx error: %v", err)
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO run_events (event_type, peer_id, session_id, data, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		log.Printf("analytics: prepare error: %v", err)
		return
	}
	defer stmt.Close()

	for _, evt := range events {
		pid := sql.NullString{String: evt.PeerID, Valid: evt.PeerID != ""}
		sid := sql.NullString{String: evt.SessionID, Valid: evt.SessionID != ""}
		data := sql.NullString{String: evt.Data, Valid: evt.Data != ""}
		_, err := stmt.Exec(evt.Type, pid, sid, data, evt.Timestamp.Format(time.RFC3339))
		if err != nil {
			log.Printf("analytics: insert error: %v", err)
		}
	}
	if err := tx.Commit(); err != nil {
		log.Printf("analytics: commit error: %v", err)
	}
}

// EventCounts returns counts of each event type for the last N days
func (a *Analytics) EventCounts(days int) (map[string]int, error) {
	if a.db == nil {
		return nil, nil
	}
	rows, err := a.db.conn.Query(`
		SELECT event_type, COUNT(*) FROM run_events
		WHERE created_at >= date('now', '-' || ? || ' days')
		GROUP BY event_type ORDER BY COUNT(*) DESC
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var evtType string
		var count int
		if err := rows.Scan(&evtType, &count); err != nil {
			continue
		}
		result[evtType] = count
	}
	return result, rows.Err()
}

// DAUCount returns number of distinct peers active today
func (a *Analytics) DAUCount() (int, error) {
	if a.db == nil {
		return 0, nil
	}
	var count int
	err := a.db.conn.QueryRow(`
		SELECT COUNT(DISTINCT peer_id) FROM run_events
		WHERE peer_id IS NOT NULL AND created_at >= date('now')
	`).Scan(&count)
	return count, err
}
