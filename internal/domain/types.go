package domain

import "time"

// WaveformStreamID identifies a station channel: network, station, location, channel.
type WaveformStreamID struct {
	Network  string `json:"network"`
	Station  string `json:"station"`
	Location string `json:"location"`
	Channel  string `json:"channel"`
}

// StationID returns the (network, station) portion used to key per-station
// parameter overrides and station magnitude identities.
func (w WaveformStreamID) StationID() string {
	return w.Network + "." + w.Station
}

// LocationID returns the (network, station, location) portion used by the
// retroactive updater's arrival match, which must not confuse two
// co-located stations' channels across different location codes
// (spec.md §4.8 step 4).
func (w WaveformStreamID) LocationID() string {
	return w.Network + "." + w.Station + "." + w.Location
}

// AbstractStream returns the stream grouping used to pick one "first" pick
// per station during origin processing: network.station.location and the
// first two bytes of the channel code (e.g. "BH" regardless of component).
func (w WaveformStreamID) AbstractStream() string {
	cha := w.Channel
	if len(cha) > 2 {
		cha = cha[:2]
	}
	return w.Network + "." + w.Station + "." + w.Location + "." + cha
}

// EvaluationMode is the evaluation mode of an amplitude measurement.
type EvaluationMode string

const (
	Automatic EvaluationMode = "automatic"
	Manual    EvaluationMode = "manual"
)

// CreationInfo carries provenance fields shared by every persisted object
// the engine creates or updates.
type CreationInfo struct {
	AgencyID         string     `json:"agency_id,omitempty"`
	Author           string     `json:"author,omitempty"`
	CreationTime     time.Time  `json:"creation_time,omitempty"`
	ModificationTime *time.Time `json:"modification_time,omitempty"`
}

// Pick is a timed arrival detection at one station, independent of any origin.
type Pick struct {
	PublicID  string           `json:"public_id"`
	WaveformID WaveformStreamID `json:"waveform_id"`
	Time      time.Time        `json:"time"`
	AgencyID  string           `json:"agency_id,omitempty"`
}

// ID returns the pick's public id.
func (p *Pick) ID() string { return p.PublicID }

// Amplitude is a measured ground-motion value attached to a pick.
type Amplitude struct {
	PublicID       string           `json:"public_id"`
	Type           string           `json:"type"`
	WaveformID     WaveformStreamID `json:"waveform_id"`
	Value          float64          `json:"value"`
	Period         *float64         `json:"period,omitempty"`
	PickID         string           `json:"pick_id"`
	EvaluationMode EvaluationMode   `json:"evaluation_mode,omitempty"`
	CreationTime   time.Time        `json:"creation_time"`
	AgencyID       string           `json:"agency_id,omitempty"`
}

// ID returns the amplitude's public id.
func (a *Amplitude) ID() string { return a.PublicID }

// Arrival is a pick's use within a specific origin.
type Arrival struct {
	PickID   string  `json:"pick_id"`
	Distance float64 `json:"distance"`
	Weight   float64 `json:"weight"`
}

// StationMagnitude is a per-station magnitude of one type, attached to an origin.
type StationMagnitude struct {
	PublicID    string           `json:"public_id"`
	OriginID    string           `json:"origin_id"`
	WaveformID  WaveformStreamID `json:"waveform_id"`
	Type        string           `json:"type"`
	Value       float64          `json:"value"`
	AmplitudeID string           `json:"amplitude_id,omitempty"`
	CreationInfo
}

// Contribution references a StationMagnitude contributing to a NetworkMagnitude.
type Contribution struct {
	StationMagnitudeID string  `json:"station_magnitude_id"`
	Weight              float64 `json:"weight"`
}

// NetworkMagnitude is the aggregate magnitude of one type for an origin.
type NetworkMagnitude struct {
	PublicID         string         `json:"public_id"`
	OriginID         string         `json:"origin_id"`
	Type             string         `json:"type"`
	Value            float64        `json:"value"`
	StdDev           float64        `json:"stddev"`
	StationCount     int            `json:"station_count"`
	MethodID         string         `json:"method_id"`
	EvaluationStatus string         `json:"evaluation_status,omitempty"`
	Contributions    []Contribution `json:"contributions,omitempty"`
	CreationInfo
}

// Frozen reports whether this NetworkMagnitude is a manual override that the
// engine must never rewrite (invariant 4 of spec.md §3).
func (n *NetworkMagnitude) Frozen() bool { return n.EvaluationStatus != "" }

// Origin is a hypocentre with arrivals and derived magnitudes.
type Origin struct {
	PublicID         string             `json:"public_id"`
	Depth            *float64           `json:"depth,omitempty"`
	Arrivals         []Arrival          `json:"arrivals,omitempty"`
	EvaluationStatus string             `json:"evaluation_status,omitempty"`
	AgencyID         string             `json:"agency_id,omitempty"`
	StationMagnitudes []StationMagnitude `json:"station_magnitudes,omitempty"`
	NetworkMagnitudes []NetworkMagnitude `json:"network_magnitudes,omitempty"`
	CreationInfo
}

// ID returns the origin's public id.
func (o *Origin) ID() string { return o.PublicID }

// Rejected mirrors spec.md §4.7 step 1: an origin whose evaluation status
// marks it rejected must never be processed.
func (o *Origin) Rejected() bool { return o.EvaluationStatus == "rejected" }

// StationMagnitudeByKey returns the station magnitude matching (waveform
// stream id, type), if present, and its index in o.StationMagnitudes.
func (o *Origin) StationMagnitudeByKey(wfid WaveformStreamID, magType string) (*StationMagnitude, int) {
	for i := range o.StationMagnitudes {
		sm := &o.StationMagnitudes[i]
		if sm.WaveformID == wfid && sm.Type == magType {
			return sm, i
		}
	}
	return nil, -1
}

// NetworkMagnitudeByType returns the network magnitude of the given type, if present.
func (o *Origin) NetworkMagnitudeByType(magType string) (*NetworkMagnitude, int) {
	for i := range o.NetworkMagnitudes {
		if o.NetworkMagnitudes[i].Type == magType {
			return &o.NetworkMagnitudes[i], i
		}
	}
	return nil, -1
}

// ValidArrival reports whether an arrival's weight meets the configured
// minimum and thus participates in station/network magnitude computation.
func ValidArrival(a Arrival, minWeight float64) bool {
	return a.Weight >= minWeight
}
