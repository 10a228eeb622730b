package domain

import "time"

// SignalKind is the closed set of evidence types the engine fuses.
type SignalKind string

const (
	KindOperatorFault  SignalKind = "operator_fault"
	KindRepairActivity SignalKind = "repair_activity"
)

// JoinMethod records how a warning was attributed to a cable.
type JoinMethod string

const (
	JoinName     JoinMethod = "name"
	JoinGeometry JoinMethod = "geometry"
)

// HealthStatus is the classified state of a single cable.
type HealthStatus string

const (
	StatusOK       HealthStatus = "ok"
	StatusDegraded HealthStatus = "degraded"
	StatusFault    HealthStatus = "fault"
)

// EvidenceSource is the only upstream the engine currently attributes.
const EvidenceSource = "NGA"

// Coordinate is a WGS-84 latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Valid reports whether the pair lies within [-90,90] x [-180,180].
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// EvidenceMeta ties an evidence item back to its warning.
type EvidenceMeta struct {
	WarningID  string     `json:"warningId"`
	JoinMethod JoinMethod `json:"joinMethod"`
	DistanceKm *float64   `json:"distanceKm,omitempty"`
	Vessel     string     `json:"vessel,omitempty"`
}

// EvidenceItem is a human-readable trace of why a signal exists.
type EvidenceItem struct {
	Source  string       `json:"source"`
	Summary string       `json:"summary"`
	TS      time.Time    `json:"ts"`
	Meta    EvidenceMeta `json:"meta"`
}

// Signal is one typed observation about one cable. Signals are values and are
// never modified after synthesis.
type Signal struct {
	CableID    string         `json:"cableId"`
	TS         time.Time      `json:"ts"`
	Severity   float64        `json:"severity"`
	Confidence float64        `json:"confidence"`
	TTLSeconds int64          `json:"ttlSeconds"`
	Kind       SignalKind     `json:"kind"`
	Evidence   []EvidenceItem `json:"evidence"`
}

// TTL returns the signal lifetime as a duration.
func (s Signal) TTL() time.Duration {
	return time.Duration(s.TTLSeconds) * time.Second
}

// EffectiveSignal is a Signal scored at a particular evaluation time.
type EffectiveSignal struct {
	Signal
	Effective     float64 `json:"effective"`
	RecencyWeight float64 `json:"recencyWeight"`
}

// CableHealth is the fused, classified state of one cable.
type CableHealth struct {
	Status      HealthStatus   `json:"status"`
	Score       float64        `json:"score"`
	Confidence  float64        `json:"confidence"`
	LastUpdated time.Time      `json:"lastUpdated"`
	Evidence    []EvidenceItem `json:"evidence"`
}

// HealthMap is keyed by cable ID. Cables without a live signal are absent.
type HealthMap map[string]CableHealth

// HealthSnapshot is a health map stamped with its evaluation time.
type HealthSnapshot struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Cables      HealthMap `json:"cables"`
}
