package main

import (
	"cmp"
	"log/slog"
	"slices"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"fps-server/ballistics"
)

// Scoreboard tracks kills and deaths for one session. It is owned by the
// Game and shares its lock.
type Scoreboard struct {
	rows map[string]*ScoreState
}

func NewScoreboard() *Scoreboard {
	return &Scoreboard{rows: make(map[string]*ScoreState)}
}

// Track adds a row for id if it has none yet.
func (s *Scoreboard) Track(id, name string) {
	if _, ok := s.rows[id]; !ok {
		s.rows[id] = &ScoreState{ID: id, Name: name}
	}
}

func (s *Scoreboard) Forget(id string) {
	delete(s.rows, id)
}

func (s *Scoreboard) AddKill(id string) {
	if r, ok := s.rows[id]; ok {
		r.Kills++
	}
}

func (s *Scoreboard) AddDeath(id string) {
	if r, ok := s.rows[id]; ok {
		r.Deaths++
	}
}

// Get returns a copy of the row for id.
func (s *Scoreboard) Get(id string) (ScoreState, bool) {
	r, ok := s.rows[id]
	if !ok {
		return ScoreState{}, false
	}
	return *r, true
}

// Snapshot returns rows ordered by kills desc, then deaths asc, then name.
func (s *Scoreboard) Snapshot() []ScoreState {
	out := make([]ScoreState, 0, len(s.rows))
	for _, r := range s.rows {
		out = append(out, *r)
	}
	slices.SortFunc(out, func(a, b ScoreState) int {
		if c := cmp.Compare(b.Kills, a.Kills); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Deaths, b.Deaths); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// shotEffects collects the client-facing event for one shot and forwards
// damage to the game. A fresh one is used per shot.
type shotEffects struct {
	game   *Game
	event  ShotEvent
	hits   int
	damage float64
}

func newShotEffects(g *Game, shooter string) *shotEffects {
	return &shotEffects{game: g, event: ShotEvent{Shooter: shooter}}
}

func (s *shotEffects) PlayImpact(point, normal mgl64.Vec3, surface ballistics.TargetID, material string) {
	s.event.Impacts = append(s.event.Impacts, ImpactEvent{
		Point:    vecArray(point),
		Normal:   vecArray(normal),
		Surface:  string(surface),
		Material: material,
	})
}

func (s *shotEffects) PlayTracer(origin, direction mgl64.Vec3, stopFraction float64) {
	s.event.Origin = vecArray(origin)
	s.event.Direction = vecArray(direction)
	s.event.StopFraction = round2(stopFraction)
}

// ApplyDamage follows PlayImpact for the same hit, so the damage belongs
// to the last recorded impact.
func (s *shotEffects) ApplyDamage(target ballistics.TargetID, shooter ballistics.ShooterID, amount float64) {
	if n := len(s.event.Impacts); n > 0 {
		s.event.Impacts[n-1].Damage = round2(amount)
	}
	if amount > 0 {
		s.hits++
		s.damage += amount
	}
	s.game.applyDamage(target, string(shooter), amount)
}

// traceLogger draws debug segments into the log.
type traceLogger struct {
	logger *slog.Logger
}

func (t traceLogger) DrawSegment(start, end mgl64.Vec3, color ballistics.TraceColor, duration time.Duration) {
	t.logger.Debug("trace segment",
		"from", vecArray(start),
		"to", vecArray(end),
		"color", color.String(),
		"ttl", duration,
	)
}

// applyDamage routes resolved damage to whatever owns target.
// Caller must hold g.mu.
func (g *Game) applyDamage(target ballistics.TargetID, shooter string, amount float64) {
	id := string(target)
	if p, ok := g.players[id]; ok {
		if p.TakeDamage(amount) {
			g.onKill(shooter, p.ID, p.Name, p.AuthID)
		}
		return
	}
	for _, e := range g.enemies {
		if e.ID == id {
			if e.TakeDamage(amount) {
				g.onKill(shooter, e.ID, e.ID, 0)
			}
			return
		}
	}
	if prop := g.world.Prop(target); prop != nil {
		if prop.TakeDamage(amount) {
			g.logger.Info("prop destroyed", "prop", id, "by", shooter)
		}
		return
	}
	g.logger.Warn("damage for unknown target", "target", id, "amount", amount)
}

// onKill updates the scoreboard, persists account stats and notifies
// clients. Caller must hold g.mu.
func (g *Game) onKill(killerID, victimID, victimName string, victimAuth int64) {
	killerName := killerID
	var killerAuth int64
	if k, ok := g.players[killerID]; ok {
		killerName = k.Name
		killerAuth = k.AuthID
	}

	if killerID != victimID {
		g.scores.AddKill(killerID)
	}
	g.scores.AddDeath(victimID)
	if g.recorder != nil && (killerAuth > 0 || victimAuth > 0) {
		if killerID == victimID {
			killerAuth = 0
		}
		g.recorder.RecordKill(killerAuth, victimAuth)
	}

	g.logger.Info("kill", "killer", killerID, "victim", victimID)
	g.broadcastMsg(Envelope{T: MsgKill, Data: KillMsg{
		KillerID:   killerID,
		KillerName: killerName,
		VictimID:   victimID,
		VictimName: victimName,
	}})
	if c, ok := g.clients[victimID]; ok {
		c.SendJSON(Envelope{T: MsgDeath, Data: DeathMsg{KillerID: killerID, KillerName: killerName}})
	}
}

func vecArray(v mgl64.Vec3) [3]float64 {
	return [3]float64{round2(v[0]), round2(v[1]), round2(v[2])}
}
