package main

import "encoding/json"

// Client -> Server message types
const (
	MsgHello   = "hello"   // open a session
	MsgReady   = "ready"   // client assets loaded
	MsgStart   = "start"   // leave the start screen
	MsgFocus   = "focus"   // pointer lock gained/lost
	MsgInput   = "input"   // per-frame intent
	MsgRestart = "restart" // fresh run after the end screen
	MsgLeave   = "leave"
	MsgControl = "control" // phone controller attach
)

// Server -> Client message types
const (
	MsgWelcome   = "welcome"
	MsgPhase     = "phase"
	MsgHUD       = "hud"
	MsgError     = "error"
	MsgState     = "state"      // binary frame, named for tests
	MsgControlOK = "control_ok" // controller attach confirmed
	MsgCtrlOn    = "ctrl_on"    // notify desktop: controller attached
	MsgCtrlOff   = "ctrl_off"   // notify desktop: controller detached
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages; json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// ClientInput is one input sample from a desktop client or phone controller
type ClientInput struct {
	F  float64 `json:"f"`  // forward 0..1
	B  float64 `json:"b"`  // back 0..1
	L  float64 `json:"l"`  // left 0..1
	R  float64 `json:"r"`  // right 0..1
	J  bool    `json:"j"`  // jump edge
	S  bool    `json:"s"`  // shoot edge
	A  bool    `json:"a"`  // ability edge
	LY float64 `json:"ly"` // look delta yaw (rad)
	LP float64 `json:"lp"` // look delta pitch (rad)
}

// HelloMsg opens a session; Token resumes a previous peer identity
type HelloMsg struct {
	Name  string `json:"name"`
	Token string `json:"token,omitempty"`
}

// ReadyMsg reports client-side loading
type ReadyMsg struct {
	Model bool `json:"model"`
}

// FocusMsg reports pointer lock changes made by the user
type FocusMsg struct {
	Locked bool `json:"locked"`
}

// ControlMsg is sent by a phone controller to attach to a session
type ControlMsg struct {
	SID string `json:"sid"`
}

// WelcomeMsg is sent when a session opens
type WelcomeMsg struct {
	PeerID    string  `json:"pid"`
	SessionID string  `json:"sid"`
	Token     string  `json:"token,omitempty"`
	GoalZ     float64 `json:"gz"`
	MinCoins  int     `json:"mc"`
}

// PhaseMsg announces a session phase change
type PhaseMsg struct {
	Phase   string  `json:"phase"`
	Outcome string  `json:"outcome,omitempty"`
	Reason  string  `json:"reason,omitempty"`
	Elapsed float64 `json:"el,omitempty"`
	Coins   int     `json:"c"`
}

// HUDState is emitted after each broadcast tick
type HUDState struct {
	Coins       int     `json:"c"`
	Elapsed     float64 `json:"el"`
	Status      string  `json:"st,omitempty"`
	StatusAlpha float32 `json:"sa,omitempty"`
	Peers       int     `json:"pc"` // connected players including self
	Tripping    bool    `json:"tr,omitempty"`
	BuffTimer   float64 `json:"bt,omitempty"`
	Phase       string  `json:"ph"`
}

// ErrorMsg sends error to client
type ErrorMsg struct {
	Msg string `json:"msg"`
}

// PlayerState is the local player in a frame
type PlayerState struct {
	X        float64 `json:"x" msgpack:"x"`
	Y        float64 `json:"y" msgpack:"y"`
	Z        float64 `json:"z" msgpack:"z"`
	VX       float64 `json:"vx" msgpack:"vx"`
	VY       float64 `json:"vy" msgpack:"vy"`
	VZ       float64 `json:"vz" msgpack:"vz"`
	Yaw      float64 `json:"yaw" msgpack:"yaw"`
	Pitch    float64 `json:"p" msgpack:"p"`
	Grounded bool    `json:"g" msgpack:"g"`
	Coins    int     `json:"c" msgpack:"c"`
	Tripping bool    `json:"tr" msgpack:"tr"`
}

// PlatformState is one platform in a frame
type PlatformState struct {
	ID uint32  `json:"id" msgpack:"id"`
	X  float64 `json:"x" msgpack:"x"`
	Y  float64 `json:"y" msgpack:"y"`
	Z  float64 `json:"z" msgpack:"z"`
	W  float64 `json:"w" msgpack:"w"`
	H  float64 `json:"h" msgpack:"h"`
	D  float64 `json:"d" msgpack:"d"`
	M  bool    `json:"m,omitempty" msgpack:"m,omitempty"`
}

// CoinState is one coin in a frame
type CoinState struct {
	ID   uint32  `json:"id" msgpack:"id"`
	X    float64 `json:"x" msgpack:"x"`
	Y    float64 `json:"y" msgpack:"y"`
	Z    float64 `json:"z" msgpack:"z"`
	Spin float64 `json:"s" msgpack:"s"`
}

// EnemyState is one enemy in a frame
type EnemyState struct {
	ID  uint32  `json:"id" msgpack:"id"`
	X   float64 `json:"x" msgpack:"x"`
	Y   float64 `json:"y" msgpack:"y"`
	Z   float64 `json:"z" msgpack:"z"`
	Yaw float64 `json:"r" msgpack:"r"`
}

// ProjectileState is one shot in a frame
type ProjectileState struct {
	ID uint32  `json:"id" msgpack:"id"`
	X  float64 `json:"x" msgpack:"x"`
	Y  float64 `json:"y" msgpack:"y"`
	Z  float64 `json:"z" msgpack:"z"`
}

// CameraState is the camera pose in a frame
type CameraState struct {
	X  float64 `json:"x" msgpack:"x"`
	Y  float64 `json:"y" msgpack:"y"`
	Z  float64 `json:"z" msgpack:"z"`
	TX float64 `json:"tx" msgpack:"tx"`
	TY float64 `json:"ty" msgpack:"ty"`
	TZ float64 `json:"tz" msgpack:"tz"`
}

// FrameState is everything the renderer draws for one frame
type FrameState struct {
	Player      PlayerState       `json:"pl" msgpack:"pl"`
	Camera      CameraState       `json:"cam" msgpack:"cam"`
	Platforms   []PlatformState   `json:"pf" msgpack:"pf"`
	Coins       []CoinState       `json:"c" msgpack:"c"`
	Enemies     []EnemyState      `json:"e" msgpack:"e"`
	Projectiles []ProjectileState `json:"pr" msgpack:"pr"`
	Peers       []PeerPose        `json:"peers" msgpack:"peers"`
	Gravity     float64           `json:"g" msgpack:"g"`
	Fog         uint32            `json:"fog" msgpack:"fog"`
	Background  uint32            `json:"bg" msgpack:"bg"`
	Phase       string            `json:"ph" msgpack:"ph"`
	Tick        uint64            `json:"tick" msgpack:"tick"`
}

// LeaderboardEntry is one fastest winning run
type LeaderboardEntry struct {
	Rank     int     `json:"rank"`
	Name     string  `json:"name"`
	Duration float64 `json:"duration"`
	Coins    int     `json:"coins"`
}
