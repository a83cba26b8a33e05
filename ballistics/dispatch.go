package ballistics

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	DefaultTraceDuration = time.Second
	DefaultTracerScale   = 100.0
)

// DamageSink receives damage for targets that can take it.
type DamageSink interface {
	ApplyDamage(target TargetID, shooter ShooterID, amount float64)
}

// EffectSink plays impacts and tracers. Calls are fire-and-forget.
type EffectSink interface {
	PlayImpact(point, normal mgl64.Vec3, surface TargetID, material string)
	PlayTracer(origin, direction mgl64.Vec3, stopFraction float64)
}

// TraceSink draws diagnostic segments.
type TraceSink interface {
	DrawSegment(start, end mgl64.Vec3, color TraceColor, duration time.Duration)
}

// EnvironmentQuery reports every surface crossed by a ray, unordered,
// without the geometry of exclude.
type EnvironmentQuery interface {
	QueryAlongRay(origin, direction mgl64.Vec3, maxRange float64, mask uint32, exclude TargetID) []CandidateHit
}

// Dispatcher forwards a resolved shot to its collaborators in hit order.
// Any nil sink is skipped.
type Dispatcher struct {
	Damage        DamageSink
	Effects       EffectSink
	Trace         TraceSink
	TraceDuration time.Duration
	TracerScale   float64
}

// Dispatch delivers every hit synchronously, front to back, then the tracer.
func (d *Dispatcher) Dispatch(shooter ShooterID, shot Shot, res Result) {
	dur := d.TraceDuration
	if dur <= 0 {
		dur = DefaultTraceDuration
	}
	scale := d.TracerScale
	if scale <= 0 {
		scale = DefaultTracerScale
	}

	for _, h := range res.Hits {
		if d.Effects != nil {
			d.Effects.PlayImpact(h.Point, h.Normal, h.Target, h.Material)
		}
		if h.Damageable() && d.Damage != nil {
			d.Damage.ApplyDamage(h.Target, shooter, h.Damage)
		}
		if d.Trace != nil {
			d.Trace.DrawSegment(h.SegmentStart, h.SegmentEnd, h.Color, dur)
		}
	}

	if d.Effects != nil {
		d.Effects.PlayTracer(shot.Origin, shot.Direction, res.StopFraction(scale))
	}
}

// Fire queries env along the shot and resolves the result. The shooter's
// own geometry is excluded by the query.
func (r *Resolver) Fire(env EnvironmentQuery, shooter ShooterID, shot Shot) Result {
	hits := env.QueryAlongRay(shot.Origin, shot.Direction, shot.MaxRange, shot.Mask, TargetID(shooter))
	return r.Resolve(shot, hits)
}
