package aobake

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// Errors returned by the baker.
var (
	ErrInvalidParameter = errors.New("invalid bake parameter")
	ErrInvalidGeometry  = errors.New("invalid mesh geometry")
)

// Default parameter values.
const (
	DefaultSampleRate = 3
	DefaultGamma      = 3.0
	DefaultExposure   = 1.0
	DefaultDistance   = 5.0
	DefaultEpsilon    = 1e-10
)

// Params controls sampling and the occlusion curve.
type Params struct {
	// SampleRate sets the density of the direction set (>= 1). Fractional
	// rates are allowed; see Directions.
	SampleRate float64
	// Gamma is the exponent applied after exposure (>= 0).
	Gamma float64
	// Exposure scales the raw occlusion (>= 0).
	Exposure float64
	// Distance scales the falloff: a hit at h occludes by min(1, h*h/Distance).
	Distance float64
	// Epsilon is the self-intersection offset. Triangles are pushed back
	// along their normals by Epsilon and inflated by 1+10*Epsilon; sample
	// origins are lifted by 10*Epsilon. Zero selects DefaultEpsilon, so the
	// offsets cannot be switched off entirely; math.SmallestNonzeroFloat64
	// makes them vanish for any practical scene scale.
	Epsilon float64
}

// DefaultParams returns the stock parameters.
func DefaultParams() Params {
	return Params{
		SampleRate: DefaultSampleRate,
		Gamma:      DefaultGamma,
		Exposure:   DefaultExposure,
		Distance:   DefaultDistance,
		Epsilon:    DefaultEpsilon,
	}
}

// Validate reports every out-of-range field. Each error wraps
// ErrInvalidParameter.
func (p Params) Validate() error {
	var err error
	if !(p.SampleRate >= 1) {
		err = multierr.Append(err, fmt.Errorf("%w: sample rate must be >= 1, got %v", ErrInvalidParameter, p.SampleRate))
	}
	if !(p.Gamma >= 0) {
		err = multierr.Append(err, fmt.Errorf("%w: gamma must be >= 0, got %v", ErrInvalidParameter, p.Gamma))
	}
	if !(p.Exposure >= 0) {
		err = multierr.Append(err, fmt.Errorf("%w: exposure must be >= 0, got %v", ErrInvalidParameter, p.Exposure))
	}
	if !(p.Distance > 0) {
		err = multierr.Append(err, fmt.Errorf("%w: distance must be > 0, got %v", ErrInvalidParameter, p.Distance))
	}
	if !(p.Epsilon >= 0) {
		err = multierr.Append(err, fmt.Errorf("%w: epsilon must be >= 0, got %v", ErrInvalidParameter, p.Epsilon))
	}
	return err
}

// withDefaults fills Epsilon when it is zero.
func (p Params) withDefaults() Params {
	if p.Epsilon == 0 {
		p.Epsilon = DefaultEpsilon
	}
	return p
}
