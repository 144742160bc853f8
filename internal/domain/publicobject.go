package domain

// Kind identifies which variant a PublicObject holds.
type Kind int

const (
	KindPick Kind = iota
	KindAmplitude
	KindOrigin
)

// PublicObject is a tagged union standing in for the inheritance SeisComP
// uses (Pick/Amplitude/Origin all derive from a common PublicObject base).
// Go has no inheritance, so the cache and indexes (internal/cache,
// internal/index) hold PublicObjects and switch on Kind where the original
// would have relied on virtual dispatch or RTTI.
type PublicObject struct {
	kind      Kind
	pick      *Pick
	amplitude *Amplitude
	origin    *Origin
}

// NewPickObject wraps a Pick as a PublicObject.
func NewPickObject(p *Pick) PublicObject { return PublicObject{kind: KindPick, pick: p} }

// NewAmplitudeObject wraps an Amplitude as a PublicObject.
func NewAmplitudeObject(a *Amplitude) PublicObject {
	return PublicObject{kind: KindAmplitude, amplitude: a}
}

// NewOriginObject wraps an Origin as a PublicObject.
func NewOriginObject(o *Origin) PublicObject { return PublicObject{kind: KindOrigin, origin: o} }

// Kind reports which variant is held.
func (po PublicObject) Kind() Kind { return po.kind }

// ID returns the wrapped object's public id.
func (po PublicObject) ID() string {
	switch po.kind {
	case KindPick:
		return po.pick.PublicID
	case KindAmplitude:
		return po.amplitude.PublicID
	case KindOrigin:
		return po.origin.PublicID
	default:
		return ""
	}
}

// Pick returns the wrapped Pick and true, or nil and false if this
// PublicObject holds a different variant.
func (po PublicObject) Pick() (*Pick, bool) { return po.pick, po.kind == KindPick }

// Amplitude returns the wrapped Amplitude and true, or nil and false.
func (po PublicObject) Amplitude() (*Amplitude, bool) {
	return po.amplitude, po.kind == KindAmplitude
}

// Origin returns the wrapped Origin and true, or nil and false.
func (po PublicObject) Origin() (*Origin, bool) { return po.origin, po.kind == KindOrigin }
