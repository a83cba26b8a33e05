package main

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"fps-server/ballistics"
)

// EnemyMode is exactly one of patrol or engage on every tick.
type EnemyMode int

const (
	EnemyPatrol EnemyMode = iota
	EnemyEngage
)

func (m EnemyMode) String() string {
	if m == EnemyEngage {
		return "engage"
	}
	return "patrol"
}

// Sighting is what perception needs to know about a potential target.
type Sighting struct {
	ID        string
	Pos       mgl64.Vec3
	Speed     float64
	Disguised bool
}

// Enemy is an AI-controlled shooter that patrols walk points and engages
// players it can see.
type Enemy struct {
	ID        string
	Home      mgl64.Vec3
	HomeYaw   float64
	Pos       mgl64.Vec3
	Yaw       float64
	Health    float64
	Alive     bool
	Mode      EnemyMode
	TargetID  string
	FireCD    float64
	RespawnT  float64
	WalkIndex int
	Moving    bool

	cfg *EnemyConfig
}

func NewEnemy(def EnemyDef, cfg *EnemyConfig) *Enemy {
	e := &Enemy{
		ID:      def.ID,
		Home:    def.Pos.Vec(),
		HomeYaw: def.Yaw,
		cfg:     cfg,
	}
	e.Respawn()
	return e
}

func (e *Enemy) Respawn() {
	e.Pos = e.Home
	e.Yaw = e.HomeYaw
	e.Health = e.cfg.MaxHealth
	e.Alive = true
	e.Mode = EnemyPatrol
	e.TargetID = ""
	e.FireCD = 0
	e.RespawnT = 0
	e.Moving = false
}

// Forward is the horizontal facing direction.
func (e *Enemy) Forward() mgl64.Vec3 {
	return mgl64.Vec3{math.Sin(e.Yaw), 0, math.Cos(e.Yaw)}
}

// CanSee applies the view-distance and view-cone test. Disguised targets
// are only noticed while they move.
func (e *Enemy) CanSee(s Sighting) bool {
	to := s.Pos.Sub(e.Pos)
	to[1] = 0
	dist := to.Len()
	if dist > e.cfg.ViewDistance {
		return false
	}
	angle := 0.0
	if dist > 0 {
		cos := Clamp(e.Forward().Dot(to.Mul(1/dist)), -1, 1)
		angle = math.Acos(cos) * 180 / math.Pi
	}
	if angle >= e.cfg.ViewAngle && dist >= e.cfg.MinDistance {
		return false
	}
	if s.Disguised && s.Speed <= e.cfg.PropMoveThreshold {
		return false
	}
	return true
}

// Update runs perception and movement for one tick and returns the id of
// the target it shoots this tick, or "". visible filters out targets
// hidden behind walls.
func (e *Enemy) Update(dt float64, targets []Sighting, walkPoints []mgl64.Vec3, visible func(mgl64.Vec3) bool) string {
	if !e.Alive {
		if e.RespawnT > 0 {
			e.RespawnT -= dt
		}
		if e.RespawnT <= 0 {
			e.Respawn()
		}
		return ""
	}
	if e.FireCD > 0 {
		e.FireCD -= dt
	}

	var target *Sighting
	best := math.MaxFloat64
	for i := range targets {
		s := &targets[i]
		if !e.CanSee(*s) {
			continue
		}
		if visible != nil && !visible(s.Pos) {
			continue
		}
		if d := s.Pos.Sub(e.Pos).Len(); d < best {
			best = d
			target = s
		}
	}

	if target == nil {
		e.Mode = EnemyPatrol
		e.TargetID = ""
		if len(walkPoints) > 0 {
			wp := walkPoints[e.WalkIndex%len(walkPoints)]
			if e.moveToward(wp, e.cfg.ArriveDistance, dt) {
				e.WalkIndex = (e.WalkIndex + 1) % len(walkPoints)
			}
		} else {
			e.Moving = false
		}
		return ""
	}

	e.Mode = EnemyEngage
	e.TargetID = target.ID
	if !e.moveToward(target.Pos, e.cfg.EngageDistance, dt) {
		return ""
	}

	// Stationary: face the target and shoot on the interval.
	e.turnToward(target.Pos, dt)
	if e.FireCD <= 0 {
		e.FireCD = e.cfg.FireInterval
		return target.ID
	}
	return ""
}

// moveToward steps toward dst and reports whether it is already within
// stop distance.
func (e *Enemy) moveToward(dst mgl64.Vec3, stop, dt float64) bool {
	to := dst.Sub(e.Pos)
	to[1] = 0
	dist := to.Len()
	if dist <= stop {
		e.Moving = false
		return true
	}
	e.Moving = true
	e.turnToward(dst, dt)
	step := math.Min(e.cfg.MoveSpeed*dt, dist-stop)
	e.Pos = e.Pos.Add(to.Mul(step / dist))
	return false
}

func (e *Enemy) turnToward(dst mgl64.Vec3, dt float64) {
	to := dst.Sub(e.Pos)
	if to[0] == 0 && to[2] == 0 {
		return
	}
	want := math.Atan2(to[0], to[2])
	diff := NormalizeAngle(want - e.Yaw)
	maxTurn := e.cfg.TurnSpeed * dt
	e.Yaw = NormalizeAngle(e.Yaw + Clamp(diff, -maxTurn, maxTurn))
}

// TakeDamage reduces health and returns true if the enemy died.
func (e *Enemy) TakeDamage(amount float64) bool {
	if !e.Alive || amount <= 0 {
		return false
	}
	e.Health -= amount
	if e.Health <= 0 {
		e.Health = 0
		e.Alive = false
		e.Mode = EnemyPatrol
		e.TargetID = ""
		e.RespawnT = e.cfg.RespawnDelay
		return true
	}
	return false
}

func (e *Enemy) BodyID() ballistics.TargetID { return ballistics.TargetID(e.ID) }

func (e *Enemy) Hitbox() (mgl64.Vec3, float64) {
	return e.Pos.Add(mgl64.Vec3{0, e.cfg.HitHeight, 0}), e.cfg.HitRadius
}

func (e *Enemy) BodyLayer() uint32   { return LayerEnemy }
func (e *Enemy) Resistance() float64 { return e.cfg.Resistance }
func (e *Enemy) Material() string    { return "flesh" }
func (e *Enemy) Active() bool        { return e.Alive }

// ToState converts to protocol state
func (e *Enemy) ToState() EnemyState {
	return EnemyState{
		ID:     e.ID,
		X:      round2(e.Pos[0]),
		Y:      round2(e.Pos[1]),
		Z:      round2(e.Pos[2]),
		Yaw:    round2(e.Yaw),
		HP:     round2(e.Health),
		Alive:  e.Alive,
		Engage: e.Mode == EnemyEngage,
	}
}
