// Package ballistics resolves hit-scan rounds against the ordered list of
// surfaces they cross, depleting a penetration budget and applying
// distance falloff to the damage each target receives.
package ballistics

import (
	"cmp"
	"fmt"
	"math"
	"slices"
)

const (
	DefaultFalloffDistance   = 10.0
	DefaultSurfaceAbsorption = 5.0
)

// Config tunes the resolver. It is the only state a Resolver holds.
type Config struct {
	// FalloffDistance is K in K/(d+K): damage halves at d == K.
	FalloffDistance float64 `yaml:"falloff_distance"`
	// SurfaceAbsorption is taken from the budget by each scenery hit.
	SurfaceAbsorption float64 `yaml:"surface_absorption"`
}

func DefaultConfig() Config {
	return Config{
		FalloffDistance:   DefaultFalloffDistance,
		SurfaceAbsorption: DefaultSurfaceAbsorption,
	}
}

func (c Config) Validate() error {
	if !(c.FalloffDistance > 0) || math.IsInf(c.FalloffDistance, 0) {
		return fmt.Errorf("falloff distance %v: %w", c.FalloffDistance, ErrInvalidFalloff)
	}
	if !(c.SurfaceAbsorption >= 0) || math.IsInf(c.SurfaceAbsorption, 0) {
		return fmt.Errorf("surface absorption %v: %w", c.SurfaceAbsorption, ErrInvalidPenetration)
	}
	return nil
}

// Resolver is safe for concurrent use; Resolve does not mutate it.
type Resolver struct {
	cfg Config
}

func NewResolver(cfg Config) (*Resolver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Resolver{cfg: cfg}, nil
}

func (r *Resolver) Config() Config {
	return r.cfg
}

// DistanceFalloff is 1 at distance 0 and approaches 0 without reaching it.
func DistanceFalloff(distance, k float64) float64 {
	if distance < 0 {
		distance = 0
	}
	return k / (distance + k)
}

// Resolve walks hits front to back. The caller's slice is left untouched.
// The shot must already be valid (see Shot.Validate).
func (r *Resolver) Resolve(shot Shot, hits []CandidateHit) Result {
	res := Result{
		StoppedDistance: shot.MaxRange,
		Remaining:       shot.Penetration,
	}
	if len(hits) == 0 {
		return res
	}

	ordered := slices.Clone(hits)
	slices.SortStableFunc(ordered, func(a, b CandidateHit) int {
		return cmp.Compare(a.Distance, b.Distance)
	})

	res.Hits = make([]ResolvedHit, 0, len(ordered))
	budget := shot.Penetration
	remaining := budget
	prev := shot.Origin

	for _, c := range ordered {
		out := ResolvedHit{
			Target:         c.Target,
			Distance:       c.Distance,
			Point:          c.Point,
			Normal:         c.Normal,
			Material:       c.Material,
			DefaultSurface: c.DefaultSurface,
			SegmentStart:   prev,
			SegmentEnd:     c.Point,
		}
		prev = c.Point

		if c.DefaultSurface {
			out.Color = TraceGrey
			remaining -= r.cfg.SurfaceAbsorption
			res.Hits = append(res.Hits, out)
			continue
		}

		resistance := math.Max(c.Resistance, 0)
		falloff := DistanceFalloff(c.Distance, r.cfg.FalloffDistance)
		ratio := (remaining - resistance) / budget

		if ratio*falloff <= 0 {
			// The target absorbs whatever is left of the round.
			frag := math.Min(2*remaining/budget, 1)
			out.Damage = clampDamage(frag*shot.Damage*falloff, shot.Damage)
			out.Stopped = true
			out.Color = TraceRed
			res.Hits = append(res.Hits, out)
			res.StoppedDistance = c.Distance
			break
		}

		out.Damage = clampDamage(remaining/budget*shot.Damage*falloff, shot.Damage)
		out.Color = TraceYellow
		remaining -= resistance
		res.Hits = append(res.Hits, out)
	}

	res.Remaining = remaining
	return res
}

// clampDamage keeps a single hit inside [0, max]. Scenery can drive the
// remaining budget below zero before a target is reached.
func clampDamage(v, limit float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > limit {
		return limit
	}
	return v
}
