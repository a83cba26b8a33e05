package main

import "encoding/json"

// Client -> Server message types
const (
	MsgJoin        = "join"
	MsgLeave       = "leave"
	MsgInput       = "input"
	MsgFire        = "fire"
	MsgCreate      = "create"
	MsgList        = "list"
	MsgCheck       = "check"
	MsgRegister    = "register"
	MsgLogin       = "login"
	MsgAuth        = "auth"
	MsgProfile     = "profile"
	MsgLeaderboard = "leaderboard"
)

// Server -> Client message types
const (
	MsgState       = "state" // sent as a binary msgpack frame
	MsgWelcome     = "welcome"
	MsgDeath       = "death"
	MsgKill        = "kill"
	MsgShot        = "shot"
	MsgSessions    = "sessions"
	MsgJoined      = "joined"
	MsgCreated     = "created"
	MsgError       = "error"
	MsgChecked     = "checked"
	MsgAuthOK      = "auth_ok"
	MsgProfileData = "profile_data"
	MsgBoard       = "board"
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages — json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// JoinMsg is sent when player wants to join a session
type JoinMsg struct {
	Name      string `json:"name"`
	SessionID string `json:"sid"`
}

// CreateMsg is sent when player wants to create a session
type CreateMsg struct {
	Name        string `json:"name"`
	SessionName string `json:"sname"`
}

// FireMsg is the networked fire request. ShooterID must match the
// sender's player; origin and direction are in world space.
type FireMsg struct {
	ShooterID   string     `json:"shooter"`
	Origin      [3]float64 `json:"origin"`
	Direction   [3]float64 `json:"dir"`
	Penetration float64    `json:"pen,omitempty"`
	Damage      float64    `json:"dmg,omitempty"`
}

type CheckMsg struct {
	SID string `json:"sid"`
}

type RegisterMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthMsg struct {
	Token string `json:"token"`
}

type LeaderboardMsg struct {
	OrderBy string `json:"by"`
}

// PlayerState is broadcast per player
type PlayerState struct {
	ID       string  `json:"id" msgpack:"id"`
	Name     string  `json:"n" msgpack:"n"`
	X        float64 `json:"x" msgpack:"x"`
	Y        float64 `json:"y" msgpack:"y"`
	Z        float64 `json:"z" msgpack:"z"`
	Yaw      float64 `json:"yaw" msgpack:"yaw"`
	Pitch    float64 `json:"pitch" msgpack:"pitch"`
	HP       float64 `json:"hp" msgpack:"hp"`
	MaxHP    float64 `json:"mhp" msgpack:"mhp"`
	Ammo     int     `json:"ammo" msgpack:"ammo"`
	Reload   bool    `json:"rl,omitempty" msgpack:"rl,omitempty"`
	Alive    bool    `json:"a" msgpack:"a"`
	Disguise bool    `json:"dg,omitempty" msgpack:"dg,omitempty"`
}

// EnemyState is broadcast per enemy
type EnemyState struct {
	ID     string  `json:"id" msgpack:"id"`
	X      float64 `json:"x" msgpack:"x"`
	Y      float64 `json:"y" msgpack:"y"`
	Z      float64 `json:"z" msgpack:"z"`
	Yaw    float64 `json:"yaw" msgpack:"yaw"`
	HP     float64 `json:"hp" msgpack:"hp"`
	Alive  bool    `json:"a" msgpack:"a"`
	Engage bool    `json:"e,omitempty" msgpack:"e,omitempty"`
}

// PropState is broadcast per damageable prop
type PropState struct {
	ID        string  `json:"id" msgpack:"id"`
	HP        float64 `json:"hp" msgpack:"hp"`
	Destroyed bool    `json:"x,omitempty" msgpack:"x,omitempty"`
}

// ScoreState is one scoreboard row
type ScoreState struct {
	ID     string `json:"id" msgpack:"id"`
	Name   string `json:"n" msgpack:"n"`
	Kills  int    `json:"k" msgpack:"k"`
	Deaths int    `json:"d" msgpack:"d"`
}

// GameState is the full state broadcast
type GameState struct {
	Players []PlayerState `json:"p" msgpack:"p"`
	Enemies []EnemyState  `json:"e" msgpack:"e"`
	Props   []PropState   `json:"pr" msgpack:"pr"`
	Scores  []ScoreState  `json:"sc" msgpack:"sc"`
	Tick    uint64        `json:"tick" msgpack:"tick"`
}

// ImpactEvent is one surface struck by a shot
type ImpactEvent struct {
	Point    [3]float64 `json:"p"`
	Normal   [3]float64 `json:"n"`
	Surface  string     `json:"s"`
	Material string     `json:"m,omitempty"`
	Damage   float64    `json:"d,omitempty"`
}

// ShotEvent lets clients draw impacts and the tracer for one shot
type ShotEvent struct {
	Shooter      string        `json:"by"`
	Origin       [3]float64    `json:"o"`
	Direction    [3]float64    `json:"dir"`
	StopFraction float64       `json:"f"`
	Impacts      []ImpactEvent `json:"i,omitempty"`
}

// WelcomeMsg is sent to a player when they join
type WelcomeMsg struct {
	ID string `json:"id"`
}

// DeathMsg notifies a player they died
type DeathMsg struct {
	KillerID   string `json:"kid"`
	KillerName string `json:"kn"`
}

// KillMsg is broadcast to all players in session
type KillMsg struct {
	KillerID   string `json:"kid"`
	KillerName string `json:"kn"`
	VictimID   string `json:"vid"`
	VictimName string `json:"vn"`
}

// SessionInfo is used in the session list
type SessionInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Players int    `json:"players"`
}

// ErrorMsg sends error to client
type ErrorMsg struct {
	Msg string `json:"msg"`
}

// CheckedMsg is the response to a session check
type CheckedMsg struct {
	SID     string `json:"sid"`
	Exists  bool   `json:"exists"`
	Name    string `json:"name,omitempty"`
	Players int    `json:"players,omitempty"`
}

type AuthOKMsg struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	PlayerID int64  `json:"pid"`
}

type ProfileDataMsg struct {
	Username string  `json:"username"`
	Kills    int     `json:"kills"`
	Deaths   int     `json:"deaths"`
	Shots    int     `json:"shots"`
	Hits     int     `json:"hits"`
	Damage   float64 `json:"damage"`
}
