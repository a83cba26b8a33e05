package ballistics

import "github.com/go-gl/mathgl/mgl64"

// TraceColor tags a diagnostic segment.
type TraceColor uint8

const (
	TraceGrey   TraceColor = iota // scenery the round went through
	TraceYellow                   // pass-through damage
	TraceRed                      // fragmentation stop
)

func (c TraceColor) String() string {
	switch c {
	case TraceYellow:
		return "yellow"
	case TraceRed:
		return "red"
	default:
		return "grey"
	}
}

// CandidateHit is one ray/geometry intersection reported by the
// environment query.
type CandidateHit struct {
	Distance       float64
	Point          mgl64.Vec3
	Normal         mgl64.Vec3
	Target         TargetID
	DefaultSurface bool
	Resistance     float64 // only meaningful when !DefaultSurface
	Material       string
}

// ResolvedHit is the outcome of processing one CandidateHit.
type ResolvedHit struct {
	Target         TargetID
	Distance       float64
	Point          mgl64.Vec3
	Normal         mgl64.Vec3
	Material       string
	DefaultSurface bool
	Damage         float64
	SegmentStart   mgl64.Vec3
	SegmentEnd     mgl64.Vec3
	Stopped        bool
	Color          TraceColor
}

// Damageable reports whether the hit should reach a damage sink.
func (h ResolvedHit) Damageable() bool {
	return !h.DefaultSurface
}

// Result is everything one Resolve call produces.
type Result struct {
	Hits            []ResolvedHit
	StoppedDistance float64
	Remaining       float64 // penetration left after the last processed hit
}

// Stopped reports whether a target absorbed the round.
func (r Result) Stopped() bool {
	return len(r.Hits) > 0 && r.Hits[len(r.Hits)-1].Stopped
}

// StopFraction scales the stopped distance for tracer rendering.
func (r Result) StopFraction(scale float64) float64 {
	if scale <= 0 {
		return 0
	}
	return r.StoppedDistance / scale
}

// TotalDamage sums the damage applied across all hits.
func (r Result) TotalDamage() float64 {
	var sum float64
	for _, h := range r.Hits {
		sum += h.Damage
	}
	return sum
}
