package main

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 120 // input arrives at display rate
)

// Client represents a WebSocket connection: a desktop player or a phone
// controller attached to one
type Client struct {
	hub          *Hub
	conn         *websocket.Conn
	send         chan []byte
	remoteAddr   string
	peerID       string
	name         string
	sessionID    string
	isController bool
	msgCount     int
	msgResetAt   time.Time
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		remoteAddr: remoteAddr,
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws error: %v", err)
			}
			break
		}

		// Rate limiting
		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			log.Printf("rate limit exceeded for %s, disconnecting", c.remoteAddr)
			break
		}

		if msgType == websocket.BinaryMessage {
			c.handleBinaryInput(message)
		} else {
			c.handleMessage(message)
		}
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Check for binary marker (0xFF prefix from SendBinary)
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	c.SendRaw(data)
}

// SendRaw sends pre-marshaled bytes as a text message to the client
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
		// Client too slow, drop message
	}
}

// SendBinary sends pre-marshaled bytes as a binary WebSocket message.
// Prefixes with 0xFF marker byte so WritePump can distinguish from text
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF // binary marker
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

func (c *Client) sendError(msg string) {
	c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: msg}})
}

// game returns the session this client is attached to, if any
func (c *Client) game() *Game {
	if c.sessionID == "" {
		return nil
	}
	sess := c.hub.sessions.GetSession(c.sessionID)
	if sess == nil {
		return nil
	}
	return sess.Game
}

// detach leaves the current session: a player ends it, a controller
// only lets go of it
func (c *Client) detach() {
	if c.sessionID == "" {
		return
	}
	if c.isController {
		if g := c.game(); g != nil {
			g.RemoveController(c)
		}
	} else {
		c.hub.sessions.RemoveSession(c.sessionID)
	}
	c.sessionID = ""
	c.isController = false
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("unmarshal error: %v", err)
		return
	}

	switch env.T {
	case MsgHello:
		c.handleHello(env.D)
	case MsgReady:
		c.handleReady(env.D)
	case MsgStart:
		c.handleStart()
	case MsgFocus:
		c.handleFocus(env.D)
	case MsgInput:
		c.handleInput(env.D)
	case MsgRestart:
		c.handleRestart()
	case MsgLeave:
		c.detach()
	case MsgControl:
		c.handleControl(env.D)
	}
}

func (c *Client) handleHello(data json.RawMessage) {
	if c.sessionID != "" {
		c.sendError("already in a session")
		return
	}
	var msg HelloMsg
	if len(data) > 0 {
		if err := json.Unmarshal(data, &msg); err != nil {
			return
		}
	}
	peerID, name, token := c.hub.auth.Identify(msg.Token, msg.Name)

	sess := c.hub.sessions.CreateSession(peerID, name)
	if sess == nil {
		c.sendError("too many active sessions")
		return
	}
	c.peerID = peerID
	c.name = name
	c.sessionID = sess.ID
	sess.Game.SetClient(c)

	c.SendJSON(Envelope{T: MsgWelcome, Data: WelcomeMsg{
		PeerID:    peerID,
		SessionID: sess.ID,
		Token:     token,
		GoalZ:     c.hub.sessions.tuning.GoalZ,
		MinCoins:  c.hub.sessions.tuning.MinCoinsToWin,
	}})
}

// handleBinaryInput decodes a compact 8-byte binary input message
func (c *Client) handleBinaryInput(msg []byte) {
	in, ok := DecodeBinaryInput(msg)
	if !ok {
		return
	}
	c.pushInput(in)
}

func (c *Client) handleInput(data json.RawMessage) {
	var in ClientInput
	if err := json.Unmarshal(data, &in); err != nil {
		return
	}
	c.pushInput(in)
}

func (c *Client) pushInput(in ClientInput) {
	g := c.game()
	if g == nil {
		return
	}
	if c.isController {
		g.HandleControllerInput(in)
	} else {
		g.HandleInput(in)
	}
}

func (c *Client) handleReady(data json.RawMessage) {
	if c.isController {
		return
	}
	g := c.game()
	if g == nil {
		return
	}
	msg := ReadyMsg{Model: true}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &msg); err != nil {
			return
		}
	}
	g.SetModelLoaded(msg.Model)
}

func (c *Client) handleStart() {
	g := c.game()
	if g == nil {
		return
	}
	if err := g.Start(); err != nil {
		if errors.Is(err, ErrNotReady) {
			c.sendError("still loading")
			return
		}
		c.sendError(err.Error())
	}
}

func (c *Client) handleFocus(data json.RawMessage) {
	if c.isController {
		return
	}
	g := c.game()
	if g == nil {
		return
	}
	var msg FocusMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	g.Focus(msg.Locked)
}

func (c *Client) handleRestart() {
	g := c.game()
	if g == nil {
		return
	}
	if err := g.Restart(); err != nil && !errors.Is(err, ErrNotReady) {
		c.sendError(err.Error())
	}
}

func (c *Client) handleControl(data json.RawMessage) {
	if c.sessionID != "" {
		c.sendError("already in a session")
		return
	}
	var msg ControlMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sess := c.hub.sessions.GetSession(msg.SID)
	if sess == nil {
		c.sendError("session not found")
		return
	}

	c.sessionID = msg.SID
	c.peerID = sess.PeerID
	c.isController = true

	sess.Game.SetController(c)
	c.SendJSON(Envelope{T: MsgControlOK, Data: map[string]string{"sid": msg.SID}})
}
