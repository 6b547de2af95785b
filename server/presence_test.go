package main

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestPoseThrottle(t *testing.T) {
	tn := DefaultTuning()
	var th PoseThrottle
	t0 := time.Unix(1000, 0)
	here := Vec3{0, 5, 0}
	there := Vec3{3, 5, 0}

	steps := []struct {
		at   time.Duration
		pos  Vec3
		want bool
	}{
		{0, here, true},
		{500 * time.Millisecond, there, false}, // inside the interval
		{time.Second, there, true},             // moved
		{2 * time.Second, there, false},        // idle, heartbeat not due
		{3 * time.Second, there, true},         // heartbeat
		{3100 * time.Millisecond, here, false},
	}
	for i, s := range steps {
		if got := th.ShouldSend(s.pos, t0.Add(s.at), tn); got != s.want {
			t.Errorf("step %d at %v: got %v, want %v", i, s.at, got, s.want)
		}
	}
}

func pose(id string, x float64, at time.Time) PeerPose {
	return PeerPose{ID: id, Name: id, X: x, Y: 5, LastSeen: at.UnixMilli()}
}

func TestPresenceHubPeers(t *testing.T) {
	h := NewPresenceHub(nil, 10*time.Second)
	now := time.Now()
	h.Publish(pose("b", 1, now))
	h.Publish(pose("a", 2, now))
	h.Publish(pose("self", 3, now))
	h.Publish(pose("old", 4, now.Add(-time.Minute)))
	h.Publish(PeerPose{ID: "nan", X: math.NaN(), LastSeen: now.UnixMilli()})

	peers, err := h.Peers("self", now)
	if err != nil {
		t.Fatal(err)
	}
	if len(peers) != 2 || peers[0].ID != "a" || peers[1].ID != "b" {
		t.Fatalf("expected fresh peers [a b], got %+v", peers)
	}
	if n := h.Count(now); n != 3 {
		t.Errorf("expected 3 fresh poses, got %d", n)
	}

	h.Leave("a")
	peers, _ = h.Peers("self", now)
	if len(peers) != 1 || peers[0].ID != "b" {
		t.Errorf("left peer should disappear at once, got %+v", peers)
	}
}

func TestPresenceHubStopWithoutRun(t *testing.T) {
	h := NewPresenceHub(nil, time.Second)
	done := make(chan struct{})
	go func() {
		h.Stop()
		h.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stop without run should not block")
	}
	if _, err := h.Peers("", time.Now()); !errors.Is(err, ErrPresenceClosed) {
		t.Errorf("expected ErrPresenceClosed, got %v", err)
	}
}

func TestPresenceHubPersists(t *testing.T) {
	db := openTestDB(t)
	now := time.Now()

	h := NewPresenceHub(db, 10*time.Second)
	h.Publish(pose("keep", 1, now))
	h.Publish(pose("gone", 2, now))
	h.flush(now)
	h.Leave("gone")
	h.flush(now)

	fresh := NewPresenceHub(db, 10*time.Second)
	if err := fresh.Load(now); err != nil {
		t.Fatal(err)
	}
	peers, _ := fresh.Peers("", now)
	if len(peers) != 1 || peers[0].ID != "keep" || peers[0].X != 1 {
		t.Errorf("only the remaining pose should be restored, got %+v", peers)
	}

	// everything is stale a minute later
	later := now.Add(time.Minute)
	fresh.flush(later)
	if n := fresh.Count(later); n != 0 {
		t.Errorf("stale poses should be pruned, got %d", n)
	}
	rows, err := db.LoadPoses(time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Errorf("stale rows should be deleted, got %d", len(rows))
	}
}
