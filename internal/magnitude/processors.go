package magnitude

import "math"

// LinearProcessor implements the common magnitude-formula shape used by
// most amplitude-based magnitude types: magnitude = log10(amplitude) +
// distance/depth correction terms supplied by corr, optionally followed
// by an Mw estimate of the form mw = a*magnitude + b.
type LinearProcessor struct {
	amplitudeType string
	magType       string
	mwType        string
	mwCoefficientA float64
	mwCoefficientB float64
	hasMw          bool

	// corr computes the calibration correction added to log10(amplitude)
	// given distance and depth in kilometres.
	corr func(distanceKM, depthKM float64) (float64, bool)
}

// NewLinearProcessor builds a processor for amplitudeType producing
// magnitudes of magType, using corr as the distance/depth calibration.
func NewLinearProcessor(amplitudeType, magType string, corr func(distanceKM, depthKM float64) (float64, bool)) *LinearProcessor {
	return &LinearProcessor{amplitudeType: amplitudeType, magType: magType, corr: corr}
}

// WithMwEstimate enables Mw estimation via mw = a*magnitude + b, publishing
// results under mwType — grounded on magtool.cpp's per-type Mw coefficient
// table (Mw(mB) and Mw(Mwp) both default to a=0.4, b=-1).
func (p *LinearProcessor) WithMwEstimate(mwType string, a, b float64) *LinearProcessor {
	p.mwType = mwType
	p.mwCoefficientA = a
	p.mwCoefficientB = b
	p.hasMw = true
	return p
}

func (p *LinearProcessor) AmplitudeType() string { return p.amplitudeType }
func (p *LinearProcessor) Type() string          { return p.magType }
func (p *LinearProcessor) TypeMw() string        { return p.mwType }

// Setup performs no per-station configuration for the linear formula;
// station overrides only matter to processors whose correction term
// depends on them, which this generic implementation does not.
func (p *LinearProcessor) Setup(_ StationSettings) bool { return true }

func (p *LinearProcessor) ComputeMagnitude(amplitudeValue float64, _ *float64, distanceKM, depthKM float64) (float64, Status) {
	if amplitudeValue <= 0 {
		return 0, StatusFailed
	}
	correction, ok := p.corr(distanceKM, depthKM)
	if !ok {
		return 0, StatusFailed
	}
	return math.Log10(amplitudeValue) + correction, OK
}

func (p *LinearProcessor) EstimateMw(magnitude float64) (float64, float64, bool) {
	if !p.hasMw {
		return 0, 0, false
	}
	return p.mwCoefficientA*magnitude + p.mwCoefficientB, 0, true
}

// IdentityCorrection is a correction function producing zero correction
// regardless of distance/depth, so ComputeMagnitude reduces to
// log10(amplitude); DefaultProcessors uses it for mB and Mwp. It does not
// map amplitude to magnitude one-to-one: the "magnitude = amplitude value"
// processor used by scenario S1 is IdentityProcessor.
func IdentityCorrection(_, _ float64) (float64, bool) { return 0, true }

// RichterCorrection implements a Richter-style local-magnitude distance
// correction: -log10(A0(distanceKM)), approximated with the classical
// Richter (1935) attenuation table via a smooth analytic fit rather than
// the tabulated original, matching how most modern processors calibrate MLv.
func RichterCorrection(distanceKM, _ float64) (float64, bool) {
	if distanceKM <= 0 {
		return 0, false
	}
	return 1.110*math.Log10(distanceKM) + 0.00189*distanceKM - 2.09, true
}

// IdentityProcessor passes the amplitude value straight through as the
// magnitude value, ignoring distance and depth. It exists for test
// fixtures and calibration harnesses that need a processor with no
// formula of its own.
type IdentityProcessor struct {
	amplitudeType string
	magType       string
}

// NewIdentityProcessor builds an IdentityProcessor for the given type pair.
func NewIdentityProcessor(amplitudeType, magType string) *IdentityProcessor {
	return &IdentityProcessor{amplitudeType: amplitudeType, magType: magType}
}

func (p *IdentityProcessor) AmplitudeType() string       { return p.amplitudeType }
func (p *IdentityProcessor) Type() string                { return p.magType }
func (p *IdentityProcessor) TypeMw() string              { return "" }
func (p *IdentityProcessor) Setup(_ StationSettings) bool { return true }

func (p *IdentityProcessor) ComputeMagnitude(amplitudeValue float64, _ *float64, _, _ float64) (float64, Status) {
	return amplitudeValue, OK
}

func (p *IdentityProcessor) EstimateMw(_ float64) (float64, float64, bool) { return 0, 0, false }

// DefaultProcessors returns the standard processor set: MLv via the
// Richter attenuation correction, and mB/Mwp with their Mw(mB)/Mw(Mwp)
// estimates, matching magtool.cpp's default magnitude-type table.
func DefaultProcessors() []Processor {
	return []Processor{
		NewLinearProcessor("MLv", "MLv", RichterCorrection),
		NewLinearProcessor("mB", "mB", IdentityCorrection).WithMwEstimate("Mw(mB)", 0.4, -1),
		NewLinearProcessor("Mwp", "Mwp", IdentityCorrection).WithMwEstimate("Mw(Mwp)", 0.4, -1),
	}
}
