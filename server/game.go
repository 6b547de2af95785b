package main

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	TickRate       = 60 // physics ticks per second
	BroadcastRate  = 30 // frames per second
	TickDuration   = time.Second / TickRate
	BroadcastEvery = TickRate / BroadcastRate
)

const (
	peerRefreshEvery = 500 * time.Millisecond
	statusHold       = 2.0 // seconds at full alpha
)

// HUD status texts
const (
	StatusBuffOn          = "gravity feels weird..."
	StatusBuffOff         = "gravity is back to normal"
	StatusNeedCoin        = "you need a coin for that"
	StatusPresenceOffline = "presence offline"
)

// Broadcaster sends messages to one connected client
type Broadcaster interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// Game is one player's session: a world, its buff and state machine, and
// the tick that drives them
type Game struct {
	mu       sync.Mutex
	tuning   Tuning
	world    *World
	buff     Buff
	match    MatchState
	camera   Camera
	status   StatusLine
	throttle PoseThrottle
	layout   *Layout

	input     InputBuffer // desktop client
	ctrlInput InputBuffer // phone controller

	client     Broadcaster
	controller Broadcaster
	presence   PresenceService // may be nil
	events     EventSink       // may be nil

	peerID    string
	name      string
	sessionID string

	tick    uint64
	running bool
	stopped bool
	stop    chan struct{}

	// Written by the peer refresher, merged at tick start
	peerMu       sync.Mutex
	peerBuf      []PeerPose
	peerErr      error
	peersFresh   bool
	presenceDown bool
}

// NewGame creates a session in the start phase. presence and events may be nil.
func NewGame(peerID, name, sessionID string, t Tuning, presence PresenceService, events EventSink) *Game {
	g := &Game{
		tuning:    t,
		world:     NewWorld(t),
		buff:      NewBuff(t),
		presence:  presence,
		events:    events,
		peerID:    peerID,
		name:      name,
		sessionID: sessionID,
		stop:      make(chan struct{}),
	}
	g.camera.Snap(g.world.Player, t)
	return g
}

// Run starts the game loop
func (g *Game) Run() {
	g.mu.Lock()
	if g.running || g.stopped {
		g.mu.Unlock()
		return
	}
	g.running = true
	g.mu.Unlock()

	if g.presence != nil {
		go g.refreshPeers()
	}

	ticker := time.NewTicker(TickDuration)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			g.mu.Lock()
			g.step(dt, now)
			g.mu.Unlock()
		case <-g.stop:
			return
		}
	}
}

// Stop terminates the game loop
func (g *Game) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stopped {
		return
	}
	g.stopped = true
	g.running = false
	close(g.stop)
}

// refreshPeers polls the presence service into the peer buffer
func (g *Game) refreshPeers() {
	ticker := time.NewTicker(peerRefreshEvery)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			peers, err := g.presence.Peers(g.peerID, now)
			g.deliverPeers(peers, err)
		case <-g.stop:
			return
		}
	}
}

// deliverPeers hands a presence snapshot to the next tick
func (g *Game) deliverPeers(peers []PeerPose, err error) {
	g.peerMu.Lock()
	g.peerBuf = peers
	g.peerErr = err
	g.peersFresh = true
	g.peerMu.Unlock()
}

// SetClient attaches the desktop client
func (g *Game) SetClient(c Broadcaster) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.client = c
}

// SetController attaches a phone controller and tells the desktop
func (g *Game) SetController(c Broadcaster) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.controller = c
	g.ctrlInput.Clear()
	if g.client != nil {
		g.client.SendJSON(Envelope{T: MsgCtrlOn})
	}
}

// RemoveController detaches c if it is the current controller
func (g *Game) RemoveController(c Broadcaster) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.controller != c {
		return
	}
	g.controller = nil
	g.ctrlInput.Clear()
	if g.client != nil {
		g.client.SendJSON(Envelope{T: MsgCtrlOff})
	}
}

// HasController reports whether a phone is attached
func (g *Game) HasController() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.controller != nil
}

// HandleInput buffers desktop input for the next tick
func (g *Game) HandleInput(in ClientInput) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.input.Push(in)
}

// HandleControllerInput buffers phone input for the next tick
func (g *Game) HandleControllerInput(in ClientInput) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ctrlInput.Push(in)
}

// SetLayout installs the world layout and marks the world loaded. status,
// if set, is shown on the HUD.
func (g *Game) SetLayout(l *Layout, status string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.layout = l
	g.match.WorldLoaded = true
	if g.match.Phase == PhaseStart {
		g.resetWorld()
	}
	if status != "" {
		g.status.Show(status, statusHold)
	}
	log.Printf("session %s: world loaded (%s)", g.sessionID, l.describe())
}

// SetModelLoaded records the client's model load
func (g *Game) SetModelLoaded(loaded bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.match.ModelLoaded = loaded
}

// Start leaves the start screen
func (g *Game) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.start()
}

func (g *Game) start() error {
	if err := g.match.Start(); err != nil {
		return err
	}
	g.resetWorld()
	g.sendPhase()
	g.track(EvtRunStart, nil)
	return nil
}

// Focus pauses or resumes the run when pointer lock changes
func (g *Game) Focus(locked bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var changed bool
	if locked {
		changed = g.match.Resume()
	} else {
		changed = g.match.Pause()
	}
	if changed {
		// Input held across a pause must not leak into the resumed run
		g.input.Clear()
		g.ctrlInput.Clear()
		g.sendPhase()
	}
}

// Restart throws the current run away and begins a fresh one when ready
func (g *Game) Restart() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.match.Reset()
	g.resetWorld()
	g.status.Clear()
	if !g.match.Ready() {
		g.sendPhase()
		return ErrNotReady
	}
	return g.start()
}

// Phase returns the current phase
func (g *Game) Phase() MatchPhase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.match.Phase
}

// Step advances the session by dt seconds
func (g *Game) Step(dt float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.step(dt, time.Now())
}

// resetWorld rebuilds the world from the installed layout
func (g *Game) resetWorld() {
	g.world.Reset()
	if g.layout != nil {
		g.world.Build(g.layout, g.tuning)
	}
	g.buff = NewBuff(g.tuning)
	g.camera.Snap(g.world.Player, g.tuning)
	g.input.Clear()
	g.ctrlInput.Clear()
	g.throttle = PoseThrottle{}
}

// step runs one tick. Order: input, locomotion, lateral then vertical
// collision, enemies and projectiles, end conditions, buff, publish.
func (g *Game) step(dt float64, now time.Time) {
	dt = sanitizeDT(dt, g.tuning.MaxDT)
	g.tick++

	in := mergeIntent(g.input.Take(), g.ctrlInput.Take())
	g.mergePeers(now)

	if g.match.Phase == PhasePlaying {
		g.simulate(in, dt)
	}
	if g.match.Phase == PhasePlaying || g.match.Phase == PhasePaused {
		g.publishPose(now)
	}
	if g.match.Phase != PhasePaused {
		g.status.Update(dt)
	}

	if g.tick%BroadcastEvery == 0 {
		g.broadcastState()
	}
}

func (g *Game) simulate(in Intent, dt float64) {
	t := g.tuning
	w := g.world
	p := w.Player

	g.match.Elapsed += dt
	elapsed := g.match.Elapsed
	for _, pl := range w.Platforms {
		pl.Advance(elapsed)
	}
	if idx := w.Index(); idx != nil {
		idx.Sync(w.Platforms)
	}

	p.Look(in.LookYaw, in.LookPitch)
	ApplyLocomotion(p, in, g.buff.CurrentGravity, dt, t)
	IntegrateXZ(p, platformCandidates(w), dt, t)
	IntegrateY(p, platformCandidates(w), elapsed, dt, t)

	if in.Shoot {
		w.AddProjectile(t)
	}
	if in.Ability {
		if g.buff.Activate(p, true, t) {
			g.status.Show(StatusBuffOn, statusHold)
			g.track(EvtBuff, map[string]int{"coins": p.Coins})
		} else if p.Coins == 0 && !g.buff.Active {
			g.status.Show(StatusNeedCoin, statusHold)
		}
	}

	rep := RunCombat(w, elapsed, dt, t)
	if rep.CoinsPicked > 0 {
		g.track(EvtCoin, map[string]int{"picked": rep.CoinsPicked, "coins": p.Coins})
	}
	if rep.EnemiesKilled > 0 {
		g.track(EvtEnemyKilled, map[string]int{"killed": rep.EnemiesKilled})
	}
	if rep.Penalized {
		g.status.Show(fmt.Sprintf("ouch! -%d coins", t.CoinPenalty), statusHold)
		g.track(EvtPenalty, map[string]int{"coins": p.Coins})
	}

	diag := checkInvariants(p)
	switch {
	case rep.Caught:
		g.end(OutcomeLoss, ReasonCaught)
	case diag != "":
		g.end(OutcomeAborted, diag)
	case p.Pos[1] < t.DeathFloor:
		g.end(OutcomeLoss, ReasonFell)
	case w.Goal.Reached(p.Pos):
		g.end(EvaluateGoal(p.Coins, t.MinCoinsToWin))
	}
	if g.match.Phase != PhasePlaying {
		return
	}

	if g.buff.Update(dt, p, t) {
		g.status.Show(StatusBuffOff, statusHold)
	}
	g.camera.Follow(p, dt, t)
}

// end records the run result and notifies the client
func (g *Game) end(outcome Outcome, reason string) {
	if !g.match.End(outcome, reason) {
		return
	}
	p := g.world.Player
	log.Printf("session %s: run ended %s (%s) after %.1fs with %d coins",
		g.sessionID, outcome, reason, g.match.Elapsed, p.Coins)
	g.sendPhase()
	g.track(EvtRunEnd, map[string]interface{}{
		"outcome":  outcome.String(),
		"reason":   reason,
		"duration": round2(g.match.Elapsed),
	})
	if g.events != nil {
		g.events.RecordRun(RunRow{
			PeerID:   g.peerID,
			Name:     g.name,
			Outcome:  outcome.String(),
			Reason:   reason,
			Coins:    p.Coins,
			Duration: g.match.Elapsed,
		})
	}
}

// mergePeers takes the latest presence snapshot and drops stale poses
func (g *Game) mergePeers(now time.Time) {
	g.peerMu.Lock()
	fresh := g.peersFresh
	peers, err := g.peerBuf, g.peerErr
	g.peersFresh = false
	g.peerMu.Unlock()

	if fresh {
		if err != nil {
			if !g.presenceDown {
				if !errors.Is(err, ErrPresenceClosed) {
					log.Printf("presence: %v", err)
				}
				g.status.Show(StatusPresenceOffline, statusHold)
			}
			g.presenceDown = true
			peers = nil
		} else {
			g.presenceDown = false
		}
		g.world.Peers = peers
	}

	kept := g.world.Peers[:0]
	for _, pose := range g.world.Peers {
		if !pose.Stale(now, g.tuning.PresenceStale) {
			kept = append(kept, pose)
		}
	}
	g.world.Peers = kept
}

// publishPose sends our own pose when the throttle allows
func (g *Game) publishPose(now time.Time) {
	if g.presence == nil {
		return
	}
	p := g.world.Player
	if !g.throttle.ShouldSend(p.Pos, now, g.tuning) {
		return
	}
	g.presence.Publish(PeerPose{
		ID:       g.peerID,
		Name:     g.name,
		X:        round2(p.Pos[0]),
		Y:        round2(p.Pos[1]),
		Z:        round2(p.Pos[2]),
		Rot:      round2(p.Yaw),
		LastSeen: now.UnixMilli(),
	})
}

func (g *Game) track(evt string, data interface{}) {
	if g.events == nil {
		return
	}
	g.events.Track(evt, g.peerID, g.sessionID, data)
}

// frame builds the renderer's view of the world
func (g *Game) frame() FrameState {
	w := g.world
	fs := FrameState{
		Player:      w.Player.ToState(),
		Camera:      g.camera.ToState(),
		Platforms:   make([]PlatformState, 0, len(w.Platforms)),
		Coins:       make([]CoinState, 0, len(w.Coins)),
		Enemies:     make([]EnemyState, 0, len(w.Enemies)),
		Projectiles: make([]ProjectileState, 0, len(w.Projectiles)),
		Peers:       append([]PeerPose(nil), w.Peers...),
		Gravity:     round2(g.buff.CurrentGravity),
		Fog:         g.buff.Fog.Hex(),
		Background:  g.buff.Background.Hex(),
		Phase:       g.match.Phase.String(),
		Tick:        g.tick,
	}
	for _, pl := range w.Platforms {
		fs.Platforms = append(fs.Platforms, pl.ToState())
	}
	for _, c := range w.Coins {
		fs.Coins = append(fs.Coins, c.ToState())
	}
	for _, e := range w.Enemies {
		fs.Enemies = append(fs.Enemies, e.ToState())
	}
	for _, pr := range w.Projectiles {
		fs.Projectiles = append(fs.Projectiles, pr.ToState())
	}
	return fs
}

// hud builds the HUD values for this tick
func (g *Game) hud() HUDState {
	h := HUDState{
		Coins:    g.world.Player.Coins,
		Elapsed:  round2(g.match.Elapsed),
		Peers:    len(g.world.Peers) + 1,
		Tripping: g.buff.Active,
		Phase:    g.match.Phase.String(),
	}
	if g.buff.Active {
		h.BuffTimer = round2(g.buff.Timer)
	}
	if g.status.Text != "" {
		h.Status = g.status.Text
		h.StatusAlpha = g.status.Alpha
	}
	return h
}

// broadcastState sends the frame to the desktop and the HUD to everyone
func (g *Game) broadcastState() {
	hud := Envelope{T: MsgHUD, Data: g.hud()}
	if g.client != nil {
		data, err := msgpack.Marshal(g.frame())
		if err != nil {
			log.Printf("session %s: encode frame: %v", g.sessionID, err)
		} else {
			g.client.SendBinary(data)
		}
		g.client.SendJSON(hud)
	}
	if g.controller != nil {
		g.controller.SendJSON(hud)
	}
}

// sendPhase tells every attached client the current phase
func (g *Game) sendPhase() {
	msg := Envelope{T: MsgPhase, Data: PhaseMsg{
		Phase:   g.match.Phase.String(),
		Outcome: g.match.Outcome.String(),
		Reason:  g.match.Reason,
		Elapsed: round2(g.match.Elapsed),
		Coins:   g.world.Player.Coins,
	}}
	if g.client != nil {
		g.client.SendJSON(msg)
	}
	if g.controller != nil {
		g.controller.SendJSON(msg)
	}
}
