package main

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestGenerateLayoutDeterministic(t *testing.T) {
	a := GenerateLayout(-300, 42)
	b := GenerateLayout(-300, 42)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("same seed should give the same layout")
	}
	if reflect.DeepEqual(a, GenerateLayout(-300, 43)) {
		t.Error("different seeds should differ")
	}
}

func TestGenerateLayoutShape(t *testing.T) {
	l := GenerateLayout(-300, 7)
	if l.Empty() {
		t.Fatal("layout should have platforms")
	}
	first, last := l.Platforms[0], l.Platforms[len(l.Platforms)-1]
	if first.Z != 0 || first.Y != -2 {
		t.Errorf("first platform should be the start pad, got %+v", first)
	}
	if last.Z != -300 {
		t.Errorf("last platform should sit at the goal, got z %v", last.Z)
	}
	for i, ps := range l.Platforms {
		if ps.W <= 0 || ps.H <= 0 || ps.D <= 0 {
			t.Errorf("platform %d has bad size %+v", i, ps)
		}
		if (ps.Speed > 0) != (ps.Range > 0) {
			t.Errorf("platform %d has partial motion %+v", i, ps)
		}
	}

	tn := DefaultTuning()
	w := NewWorld(tn)
	w.Build(l, tn)
	if len(w.Platforms) != len(l.Platforms) {
		t.Errorf("every generated platform should build, got %d of %d", len(w.Platforms), len(l.Platforms))
	}
}

type fakeStore struct {
	level *Layout
	err   error
	saved *Layout
}

func (s *fakeStore) GetLevel(ctx context.Context, id string) (*Layout, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.level, s.err
}

func (s *fakeStore) SaveLevel(ctx context.Context, id string, l *Layout) error {
	s.saved = l
	return nil
}

// stalledStore never answers until the caller gives up
type stalledStore struct{}

func (stalledStore) GetLevel(ctx context.Context, id string) (*Layout, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stalledStore) SaveLevel(ctx context.Context, id string, l *Layout) error {
	<-ctx.Done()
	return ctx.Err()
}

type fakeCache struct {
	layouts map[string]*Layout
}

func (c *fakeCache) Load(id string) (*Layout, error) { return c.layouts[id], nil }

func (c *fakeCache) Save(id string, l *Layout) error {
	c.layouts[id] = l
	return nil
}

func TestWorldProviderSeedsEmptyStore(t *testing.T) {
	store := &fakeStore{}
	cache := &fakeCache{layouts: map[string]*Layout{}}
	wp := NewWorldProvider(store, cache, 5)

	l, status := wp.Fetch(context.Background(), -300)
	if status != "" {
		t.Errorf("healthy store should not report a status, got %q", status)
	}
	if store.saved != l {
		t.Error("generated level should be saved to the store")
	}
	if cache.layouts[MainWorldID] != l {
		t.Error("fetched level should be cached for offline use")
	}
	if !reflect.DeepEqual(l, GenerateLayout(-300, 5)) {
		t.Error("seeded level should come from the configured seed")
	}
}

func TestWorldProviderUsesStoredLevel(t *testing.T) {
	stored := &Layout{GoalZ: -50, Platforms: []PlatformSpec{{W: 4, H: 1, D: 4}}}
	wp := NewWorldProvider(&fakeStore{level: stored}, nil, 1)
	l, status := wp.Fetch(context.Background(), -300)
	if l != stored || status != "" {
		t.Errorf("expected the stored level, got %v %q", l.describe(), status)
	}
}

func TestWorldProviderFallsBackToCache(t *testing.T) {
	cached := &Layout{GoalZ: -80, Platforms: []PlatformSpec{{W: 4, H: 1, D: 4}}}
	store := &fakeStore{err: errors.New("connection refused")}
	wp := NewWorldProvider(store, &fakeCache{layouts: map[string]*Layout{MainWorldID: cached}}, 1)

	l, status := wp.Fetch(context.Background(), -300)
	if l != cached {
		t.Error("store failure should fall back to the cached level")
	}
	if status != StatusOfflineWorld {
		t.Errorf("expected offline status, got %q", status)
	}
}

func TestWorldProviderGeneratesWithoutCache(t *testing.T) {
	wp := NewWorldProvider(&fakeStore{err: errors.New("down")}, nil, 9)
	l, status := wp.Fetch(context.Background(), -300)
	if l.Empty() || status != StatusOfflineWorld {
		t.Errorf("expected a generated level and offline status, got %d platforms %q", len(l.Platforms), status)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l, status = NewWorldProvider(nil, nil, 9).Fetch(ctx, -300)
	if l.Empty() || status != StatusOfflineWorld {
		t.Error("cancelled fetch should still return a playable level")
	}
}

func TestWorldProviderStalledStoreTimesOut(t *testing.T) {
	cached := &Layout{GoalZ: -80, Platforms: []PlatformSpec{{W: 4, H: 1, D: 4}}}
	wp := NewWorldProvider(stalledStore{}, &fakeCache{layouts: map[string]*Layout{MainWorldID: cached}}, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	l, status := wp.Fetch(ctx, -300)
	if waited := time.Since(start); waited > 2*time.Second {
		t.Fatalf("fetch should give up with its context, took %v", waited)
	}
	if l != cached || status != StatusOfflineWorld {
		t.Errorf("expected the cached level and offline status, got %v %q", l.describe(), status)
	}
}
