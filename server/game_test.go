package main

import (
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

// mockBroadcaster captures sent messages for testing
type mockBroadcaster struct {
	mu       sync.Mutex
	messages []interface{}
	frames   [][]byte
}

func (m *mockBroadcaster) SendJSON(msg interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func (m *mockBroadcaster) SendBinary(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = append(m.frames, data)
}

// ofType returns the envelopes of type typ, in send order
func (m *mockBroadcaster) ofType(typ string) []Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Envelope
	for _, msg := range m.messages {
		if env, ok := msg.(Envelope); ok && env.T == typ {
			out = append(out, env)
		}
	}
	return out
}

type fakePresence struct {
	mu        sync.Mutex
	published []PeerPose
	left      []string
}

func (f *fakePresence) Publish(p PeerPose) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, p)
}

func (f *fakePresence) Peers(selfID string, now time.Time) ([]PeerPose, error) {
	return nil, nil
}

func (f *fakePresence) Leave(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.left = append(f.left, id)
}

type fakeEvents struct {
	mu     sync.Mutex
	events []string
	runs   []RunRow
}

func (f *fakeEvents) Track(evtType, peerID, sessionID string, data interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evtType)
}

func (f *fakeEvents) RecordRun(r RunRow) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, r)
}

// flatLayout is one wide platform under spawn with its top at y=0
func flatLayout() *Layout {
	return &Layout{
		GoalZ:     -300,
		Platforms: []PlatformSpec{{X: 0, Y: -1, Z: 0, W: 40, H: 2, D: 40}},
	}
}

const testDT = 1.0 / 60

type testGame struct {
	*Game
	client   *mockBroadcaster
	presence *fakePresence
	events   *fakeEvents
}

// newTestGame returns a loaded game that has not started yet
func newTestGame(t *testing.T) testGame {
	t.Helper()
	tg := testGame{
		client:   &mockBroadcaster{},
		presence: &fakePresence{},
		events:   &fakeEvents{},
	}
	tg.Game = NewGame("peer-1", "Ann", "sess-1", DefaultTuning(), tg.presence, tg.events)
	tg.SetClient(tg.client)
	tg.SetLayout(flatLayout(), "")
	tg.SetModelLoaded(true)
	return tg
}

// playing returns a started game with the player standing on the platform
func playing(t *testing.T) testGame {
	t.Helper()
	tg := newTestGame(t)
	require.NoError(t, tg.Start())
	for i := 0; i < 120; i++ {
		tg.Step(testDT)
	}
	require.True(t, tg.world.Player.Grounded, "player should have landed")
	return tg
}

func TestStartNeedsModelAndWorld(t *testing.T) {
	g := NewGame("p", "n", "s", DefaultTuning(), nil, nil)
	assert.ErrorIs(t, g.Start(), ErrNotReady)

	g.SetLayout(flatLayout(), "")
	assert.ErrorIs(t, g.Start(), ErrNotReady, "model still loading")
	assert.Equal(t, PhaseStart, g.Phase())

	g.SetModelLoaded(true)
	require.NoError(t, g.Start())
	assert.Equal(t, PhasePlaying, g.Phase())
}

func TestStartBuildsWorldAndAnnounces(t *testing.T) {
	tg := newTestGame(t)
	require.NoError(t, tg.Start())

	assert.Len(t, tg.world.Platforms, 1)
	assert.Equal(t, PlayerSpawn, tg.world.Player.Pos)
	phases := tg.client.ofType(MsgPhase)
	require.NotEmpty(t, phases)
	assert.Equal(t, "playing", phases[len(phases)-1].Data.(PhaseMsg).Phase)
	assert.Contains(t, tg.events.events, EvtRunStart)
}

func TestStepDoesNothingBeforeStart(t *testing.T) {
	tg := newTestGame(t)
	for i := 0; i < 30; i++ {
		tg.Step(testDT)
	}
	assert.Equal(t, PlayerSpawn, tg.world.Player.Pos, "nothing moves on the start screen")
	assert.Zero(t, tg.match.Elapsed)
}

func TestPauseHaltsSimulation(t *testing.T) {
	tg := playing(t)
	tg.Focus(false)
	require.Equal(t, PhasePaused, tg.Phase())

	pos := tg.world.Player.Pos
	elapsed := tg.match.Elapsed
	tg.HandleInput(ClientInput{F: 1, J: true})
	for i := 0; i < 30; i++ {
		tg.Step(testDT)
	}
	assert.Equal(t, pos, tg.world.Player.Pos)
	assert.Equal(t, elapsed, tg.match.Elapsed)

	tg.Focus(true)
	require.Equal(t, PhasePlaying, tg.Phase())
	tg.Step(testDT)
	assert.True(t, tg.world.Player.Grounded, "input held across the pause should be dropped")
}

func TestBadDTIsIgnored(t *testing.T) {
	tg := playing(t)
	elapsed := tg.match.Elapsed
	tg.Step(math.NaN())
	tg.Step(-1)
	assert.Equal(t, elapsed, tg.match.Elapsed)

	tg.Step(5)
	assert.InDelta(t, elapsed+tg.tuning.MaxDT, tg.match.Elapsed, 1e-9, "huge steps are clamped")
}

func TestFallingEndsRun(t *testing.T) {
	tg := playing(t)
	tg.world.Player.Pos = Vec3{100, 0, 0}
	tg.world.Player.Grounded = false
	for i := 0; i < 300 && tg.Phase() == PhasePlaying; i++ {
		tg.Step(testDT)
	}

	require.Equal(t, PhaseEnded, tg.Phase())
	assert.Equal(t, OutcomeLoss, tg.match.Outcome)
	assert.Equal(t, ReasonFell, tg.match.Reason)
	require.Len(t, tg.events.runs, 1)
	run := tg.events.runs[0]
	assert.Equal(t, "loss", run.Outcome)
	assert.Equal(t, "peer-1", run.PeerID)
	assert.Greater(t, run.Duration, 0.0)

	// nothing moves once ended
	pos := tg.world.Player.Pos
	tg.Step(testDT)
	assert.Equal(t, pos, tg.world.Player.Pos)
}

func TestEnemyContactWithoutCoinsEndsRun(t *testing.T) {
	tg := playing(t)
	p := tg.world.Player
	p.Coins = 0
	tg.world.AddEnemy(p.Pos, tg.tuning.EnemyHitRadius)
	tg.Step(testDT)

	require.Equal(t, PhaseEnded, tg.Phase())
	assert.Equal(t, OutcomeLoss, tg.match.Outcome)
	assert.Equal(t, ReasonCaught, tg.match.Reason)
	require.Len(t, tg.events.runs, 1)
	assert.Equal(t, ReasonCaught, tg.events.runs[0].Reason)
}

func TestEnemyContactCostsCoins(t *testing.T) {
	for _, tc := range []struct {
		coins, want int
	}{
		{5, 2},
		{1, 0},
	} {
		tg := playing(t)
		p := tg.world.Player
		p.Coins = tc.coins
		tg.world.AddEnemy(p.Pos, tg.tuning.EnemyHitRadius)
		tg.Step(testDT)

		require.Equal(t, PhasePlaying, tg.Phase(), "coins=%d", tc.coins)
		assert.Equal(t, tc.want, p.Coins, "coins=%d", tc.coins)
		assert.Empty(t, tg.world.Enemies, "enemy is spent after one penalty")
		assert.Equal(t, "ouch! -3 coins", tg.status.Text)
		assert.Contains(t, tg.events.events, EvtPenalty)
		assert.Empty(t, tg.events.runs)

		// the same contact does not cost twice
		tg.Step(testDT)
		assert.Equal(t, tc.want, p.Coins)
	}
}

func TestPauseFreezesStatusFade(t *testing.T) {
	tg := playing(t)
	tg.status.Show(StatusBuffOn, 0)
	tg.Step(testDT)
	alpha := tg.status.Alpha

	tg.Focus(false)
	require.Equal(t, PhasePaused, tg.Phase())
	for i := 0; i < 120; i++ {
		tg.Step(testDT)
	}
	assert.Equal(t, StatusBuffOn, tg.status.Text)
	assert.Equal(t, alpha, tg.status.Alpha)

	tg.Focus(true)
	for i := 0; i < 120; i++ {
		tg.Step(testDT)
	}
	assert.Empty(t, tg.status.Text, "fade resumes after the pause")
}

func TestGoalWithEnoughCoinsWins(t *testing.T) {
	tg := playing(t)
	tg.world.Player.Pos = Vec3{0, 2, tg.world.Goal.Z}
	tg.world.Player.Coins = 10
	tg.Step(testDT)

	require.Equal(t, PhaseEnded, tg.Phase())
	assert.Equal(t, OutcomeWin, tg.match.Outcome)
	assert.Equal(t, ReasonGoal, tg.match.Reason)
	phases := tg.client.ofType(MsgPhase)
	last := phases[len(phases)-1].Data.(PhaseMsg)
	assert.Equal(t, "win", last.Outcome)
	assert.Equal(t, 10, last.Coins)
}

func TestGoalWithoutEnoughCoinsLoses(t *testing.T) {
	tg := playing(t)
	tg.world.Player.Pos = Vec3{0, 2, tg.world.Goal.Z}
	tg.world.Player.Coins = 3
	tg.Step(testDT)

	require.Equal(t, PhaseEnded, tg.Phase())
	assert.Equal(t, OutcomeLoss, tg.match.Outcome)
	assert.Equal(t, "not enough coins (3/10)", tg.match.Reason)
}

func TestBrokenInvariantAbortsRun(t *testing.T) {
	tg := playing(t)
	tg.world.Player.Coins = -1
	tg.Step(testDT)

	require.Equal(t, PhaseEnded, tg.Phase())
	assert.Equal(t, OutcomeAborted, tg.match.Outcome)
	assert.True(t, strings.HasPrefix(tg.match.Reason, "invariant:"), tg.match.Reason)
}

func TestBroadcastFrame(t *testing.T) {
	tg := newTestGame(t)
	require.NoError(t, tg.Start())
	tg.Step(testDT)
	assert.Empty(t, tg.client.frames, "frames go out every other tick")
	tg.Step(testDT)

	require.Len(t, tg.client.frames, 1)
	var fs FrameState
	require.NoError(t, msgpack.Unmarshal(tg.client.frames[0], &fs))
	assert.Equal(t, uint64(2), fs.Tick)
	assert.Equal(t, "playing", fs.Phase)
	assert.Len(t, fs.Platforms, 1)
	assert.Equal(t, tg.tuning.BaseGravity, fs.Gravity)
	assert.Equal(t, FogNormal.Hex(), fs.Fog)
	assert.Less(t, fs.Player.Y, PlayerSpawn[1], "player should be falling")

	huds := tg.client.ofType(MsgHUD)
	require.Len(t, huds, 1)
	hud := huds[0].Data.(HUDState)
	assert.Equal(t, 1, hud.Peers)
	assert.Equal(t, "playing", hud.Phase)
}

func TestShootSpawnsProjectile(t *testing.T) {
	tg := playing(t)
	tg.HandleInput(ClientInput{S: true})
	tg.Step(testDT)
	assert.Len(t, tg.world.Projectiles, 1)
	tg.Step(testDT)
	assert.Len(t, tg.world.Projectiles, 1, "shoot is an edge, not a hold")
}

func TestBuffFromInput(t *testing.T) {
	tg := playing(t)
	tg.HandleInput(ClientInput{A: true})
	tg.Step(testDT)
	assert.False(t, tg.buff.Active)
	assert.Equal(t, StatusNeedCoin, tg.status.Text)

	tg.world.Player.Coins = 1
	tg.HandleInput(ClientInput{A: true})
	tg.Step(testDT)
	assert.True(t, tg.buff.Active)
	assert.True(t, tg.world.Player.Tripping)
	assert.Zero(t, tg.world.Player.Coins)
	assert.Equal(t, StatusBuffOn, tg.status.Text)
	assert.Less(t, tg.buff.CurrentGravity, tg.tuning.BaseGravity)
	assert.Contains(t, tg.events.events, EvtBuff)
}

func TestPresencePublishAndMerge(t *testing.T) {
	tg := playing(t)
	require.NotEmpty(t, tg.presence.published)
	own := tg.presence.published[0]
	assert.Equal(t, "peer-1", own.ID)
	assert.Equal(t, "Ann", own.Name)

	now := time.Now()
	tg.deliverPeers([]PeerPose{
		{ID: "fresh", X: 1, LastSeen: now.UnixMilli()},
		{ID: "old", X: 2, LastSeen: now.Add(-time.Minute).UnixMilli()},
	}, nil)
	tg.Step(testDT)
	require.Len(t, tg.world.Peers, 1)
	assert.Equal(t, "fresh", tg.world.Peers[0].ID)
	assert.Equal(t, 2, tg.hud().Peers)

	tg.deliverPeers(nil, errors.New("connection reset"))
	tg.Step(testDT)
	assert.Empty(t, tg.world.Peers)
	assert.Equal(t, StatusPresenceOffline, tg.status.Text)
	assert.Equal(t, PhasePlaying, tg.Phase(), "presence failures never stop the run")
}

func TestWorldLoadStatusShown(t *testing.T) {
	g := NewGame("p", "n", "s", DefaultTuning(), nil, nil)
	g.SetLayout(flatLayout(), StatusOfflineWorld)
	assert.Equal(t, StatusOfflineWorld, g.hud().Status)
}

func TestRestart(t *testing.T) {
	tg := playing(t)
	tg.world.Player.Pos = Vec3{100, -40, 0}
	tg.Step(testDT)
	require.Equal(t, PhaseEnded, tg.Phase())

	require.NoError(t, tg.Restart())
	assert.Equal(t, PhasePlaying, tg.Phase())
	assert.Equal(t, PlayerSpawn, tg.world.Player.Pos)
	assert.Zero(t, tg.world.Player.Coins)
	assert.Zero(t, tg.match.Elapsed)
	assert.Equal(t, OutcomeNone, tg.match.Outcome)
	assert.Len(t, tg.world.Platforms, 1)

	g := NewGame("p", "n", "s", DefaultTuning(), nil, nil)
	assert.ErrorIs(t, g.Restart(), ErrNotReady)
	assert.Equal(t, PhaseStart, g.Phase())
}

func TestControllerAttach(t *testing.T) {
	tg := playing(t)
	phone := &mockBroadcaster{}
	tg.SetController(phone)
	assert.True(t, tg.HasController())
	assert.Len(t, tg.client.ofType(MsgCtrlOn), 1)

	tg.HandleControllerInput(ClientInput{F: 1})
	tg.Step(testDT)
	assert.Less(t, tg.world.Player.Vel[2], 0.0, "controller forward should move the player")
	tg.Step(testDT)
	assert.NotEmpty(t, phone.ofType(MsgHUD), "controller gets the HUD")
	assert.Empty(t, phone.frames, "controller never gets frames")

	tg.RemoveController(&mockBroadcaster{})
	assert.True(t, tg.HasController(), "a stale controller cannot detach the current one")

	tg.RemoveController(phone)
	assert.False(t, tg.HasController())
	assert.Len(t, tg.client.ofType(MsgCtrlOff), 1)
}
