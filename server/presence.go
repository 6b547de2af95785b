package main

import (
	"errors"
	"log"
	"math"
	"sort"
	"sync"
	"time"
)

const presenceFlushEvery = 2 * time.Second

// ErrPresenceClosed is returned once the hub has stopped
var ErrPresenceClosed = errors.New("presence hub closed")

// PeerPose is one player's last published position. Visual only.
type PeerPose struct {
	ID       string  `json:"id" msgpack:"id"`
	Name     string  `json:"n" msgpack:"n"`
	X        float64 `json:"x" msgpack:"x"`
	Y        float64 `json:"y" msgpack:"y"`
	Z        float64 `json:"z" msgpack:"z"`
	Rot      float64 `json:"r" msgpack:"r"`
	LastSeen int64   `json:"t" msgpack:"t"` // unix ms
}

// Stale reports whether the pose is too old to show at now
func (p PeerPose) Stale(now time.Time, maxAge time.Duration) bool {
	return now.Sub(time.UnixMilli(p.LastSeen)) > maxAge
}

// PresenceService is what a session needs from the presence channel
type PresenceService interface {
	Publish(pose PeerPose)
	Peers(selfID string, now time.Time) ([]PeerPose, error)
	Leave(id string)
}

// PoseThrottle decides when a session publishes its own pose: at most once
// per interval, and only if it moved or the heartbeat is due.
type PoseThrottle struct {
	lastSent time.Time
	lastPos  Vec3
	sent     bool
}

// ShouldSend reports whether pos should be published at now, and records
// the send when it should
func (th *PoseThrottle) ShouldSend(pos Vec3, now time.Time, t Tuning) bool {
	if th.sent {
		since := now.Sub(th.lastSent)
		if since < t.PresenceInterval {
			return false
		}
		moved := Distance(th.lastPos, pos) > t.PresenceEpsilon
		if !moved && since < t.PresenceHeartbeat {
			return false
		}
	}
	th.sent = true
	th.lastSent = now
	th.lastPos = pos
	return true
}

// PresenceHub is the shared pose board all sessions publish to. Poses live
// in memory; a background flusher mirrors them into the players table.
type PresenceHub struct {
	mu      sync.Mutex
	poses   map[string]PeerPose
	dirty   map[string]bool
	removed []string
	db      *DB
	stale   time.Duration
	closed  bool
	started bool
	stop    chan struct{}
	done    chan struct{}
}

// NewPresenceHub creates a hub; db may be nil
func NewPresenceHub(db *DB, stale time.Duration) *PresenceHub {
	return &PresenceHub{
		poses: make(map[string]PeerPose),
		dirty: make(map[string]bool),
		db:    db,
		stale: stale,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Load restores poses that are still fresh from the players table
func (h *PresenceHub) Load(now time.Time) error {
	if h.db == nil {
		return nil
	}
	poses, err := h.db.LoadPoses(now.Add(-h.stale))
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, p := range poses {
		h.poses[p.ID] = p
	}
	return nil
}

// Publish records a pose
func (h *PresenceHub) Publish(pose PeerPose) {
	if math.IsNaN(pose.X) || math.IsNaN(pose.Y) || math.IsNaN(pose.Z) {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.poses[pose.ID] = pose
	h.dirty[pose.ID] = true
}

// Leave removes a peer immediately
func (h *PresenceHub) Leave(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.poses, id)
	delete(h.dirty, id)
	h.removed = append(h.removed, id)
}

// Peers returns every fresh pose except selfID, ordered by id
func (h *PresenceHub) Peers(selfID string, now time.Time) ([]PeerPose, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrPresenceClosed
	}
	out := make([]PeerPose, 0, len(h.poses))
	for id, p := range h.poses {
		if id == selfID || p.Stale(now, h.stale) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Count returns the number of fresh poses
func (h *PresenceHub) Count(now time.Time) int {
	peers, _ := h.Peers("", now)
	return len(peers)
}

// Run flushes dirty poses and prunes stale ones until Stop
func (h *PresenceHub) Run() {
	h.mu.Lock()
	if h.closed || h.started {
		h.mu.Unlock()
		return
	}
	h.started = true
	h.mu.Unlock()
	defer close(h.done)
	ticker := time.NewTicker(presenceFlushEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.flush(time.Now())
		case <-h.stop:
			h.flush(time.Now())
			return
		}
	}
}

// Stop closes the hub and waits for the final flush
func (h *PresenceHub) Stop() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	started := h.started
	h.mu.Unlock()
	close(h.stop)
	if started {
		<-h.done
	}
}

// flush prunes stale poses from memory and mirrors changes to the DB
func (h *PresenceHub) flush(now time.Time) {
	h.mu.Lock()
	var upserts []PeerPose
	for id, p := range h.poses {
		if p.Stale(now, h.stale) {
			delete(h.poses, id)
			delete(h.dirty, id)
			continue
		}
		if h.dirty[id] {
			upserts = append(upserts, p)
		}
	}
	removed := h.removed
	h.dirty = make(map[string]bool)
	h.removed = nil
	h.mu.Unlock()

	if h.db == nil {
		return
	}
	for _, p := range upserts {
		if err := h.db.UpsertPose(p); err != nil {
			log.Printf("presence: upsert %s: %v", p.ID, err)
		}
	}
	for _, id := range removed {
		if err := h.db.DeletePose(id); err != nil {
			log.Printf("presence: delete %s: %v", id, err)
		}
	}
	if _, err := h.db.DeleteStalePoses(now.Add(-h.stale)); err != nil {
		log.Printf("presence: prune: %v", err)
	}
}
