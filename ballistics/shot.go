package ballistics

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	ErrInvalidPenetration = errors.New("penetration budget must be positive")
	ErrInvalidRange       = errors.New("max range must be positive")
	ErrInvalidDamage      = errors.New("damage must not be negative")
	ErrInvalidDirection   = errors.New("direction must be a non-zero finite vector")
	ErrInvalidFalloff     = errors.New("falloff distance must be positive")
)

// TargetID identifies a struck entity. It is only a lookup key; the
// resolver never dereferences it.
type TargetID string

// ShooterID attributes damage to whoever fired.
type ShooterID string

// Shot is one fire action's ray and numeric budget.
type Shot struct {
	Origin      mgl64.Vec3
	Direction   mgl64.Vec3 // unit length
	Penetration float64
	Damage      float64
	MaxRange    float64
	Mask        uint32 // passed through to the environment query
}

// NewShot validates the inputs and normalises direction.
func NewShot(origin, direction mgl64.Vec3, penetration, damage, maxRange float64, mask uint32) (Shot, error) {
	s := Shot{
		Origin:      origin,
		Direction:   direction,
		Penetration: penetration,
		Damage:      damage,
		MaxRange:    maxRange,
		Mask:        mask,
	}
	if err := s.Validate(); err != nil {
		return Shot{}, err
	}
	s.Direction = direction.Normalize()
	return s, nil
}

// Validate reports configuration errors that must be caught before Resolve.
func (s Shot) Validate() error {
	if !(s.Penetration > 0) || math.IsInf(s.Penetration, 0) {
		return fmt.Errorf("shot penetration %v: %w", s.Penetration, ErrInvalidPenetration)
	}
	if !(s.MaxRange > 0) || math.IsInf(s.MaxRange, 0) {
		return fmt.Errorf("shot range %v: %w", s.MaxRange, ErrInvalidRange)
	}
	if !(s.Damage >= 0) || math.IsInf(s.Damage, 0) {
		return fmt.Errorf("shot damage %v: %w", s.Damage, ErrInvalidDamage)
	}
	l := s.Direction.Len()
	if !(l > 0) || math.IsInf(l, 0) {
		return fmt.Errorf("shot direction %v: %w", s.Direction, ErrInvalidDirection)
	}
	return nil
}

// PointAt returns the point at distance d along the shot.
func (s Shot) PointAt(d float64) mgl64.Vec3 {
	return s.Origin.Add(s.Direction.Mul(d))
}
