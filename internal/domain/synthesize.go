package domain

import (
	"math"
	"slices"
	"time"
)

// Signal parameters per hazard class.
const (
	faultSeverity    = 1.0
	advisorySeverity = 0.6
	faultTTL         = 5 * 24 * time.Hour
	advisoryTTL      = 3 * 24 * time.Hour

	nameMatchConfidence   = 0.9
	geometryConfidenceMax = 0.8
	geometryConfidenceMin = 0.4
	geometryFalloffKm     = 500.0

	repairOnStationSeverity   = 0.8
	repairOnStationConfidence = 0.85
	repairOnStationTTL        = 24 * time.Hour
	repairTransitSeverity     = 0.5
	repairTransitConfidence   = 0.6
	repairTransitTTL          = 12 * time.Hour

	summaryMaxRunes = 150
)

// SynthesisStats counts what happened to each warning during synthesis.
type SynthesisStats struct {
	Warnings         int `json:"warnings"`
	CableRelated     int `json:"cableRelated"`
	Unresolved       int `json:"unresolved"`
	UnparseableDates int `json:"unparseableDates"`
	FaultSignals     int `json:"faultSignals"`
	RepairSignals    int `json:"repairSignals"`
}

// Add accumulates another stats value.
func (s *SynthesisStats) Add(o SynthesisStats) {
	s.Warnings += o.Warnings
	s.CableRelated += o.CableRelated
	s.Unresolved += o.Unresolved
	s.UnparseableDates += o.UnparseableDates
	s.FaultSignals += o.FaultSignals
	s.RepairSignals += o.RepairSignals
}

// Synthesizer turns warnings into signals using a cable registry and a rule
// table. It holds no mutable state and is safe for concurrent use.
type Synthesizer struct {
	registry *Registry
	rules    *Rules
}

// NewSynthesizer builds a Synthesizer. Nil arguments fall back to the
// embedded registry and the default rule table.
func NewSynthesizer(registry *Registry, rules *Rules) *Synthesizer {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if rules == nil {
		rules = DefaultRules()
	}
	return &Synthesizer{registry: registry, rules: rules}
}

// Synthesize returns zero, one, or two signals for a single warning: an
// operator_fault signal for the fault or advisory, and independently a
// repair_activity signal when a vessel is named.
func (s *Synthesizer) Synthesize(w Warning) ([]Signal, SynthesisStats) {
	stats := SynthesisStats{Warnings: 1}

	hazard := s.rules.ClassifyHazard(w.Text)
	if hazard == HazardNone {
		return nil, stats
	}
	stats.CableRelated = 1

	coords := slices.Collect(ExtractCoordinates(w.Text))
	res, ok := s.registry.Resolve(w.Text, coords)
	if !ok {
		stats.Unresolved = 1
		return nil, stats
	}

	ts, ok := ParseIssueDate(w.IssueDate)
	if !ok {
		stats.UnparseableDates = 1
	}

	meta := EvidenceMeta{WarningID: w.ID(), JoinMethod: res.Method}
	if res.Method == JoinGeometry {
		km := res.DistanceKm()
		meta.DistanceKm = &km
	}

	severity, ttl := advisorySeverity, advisoryTTL
	if hazard == HazardFault {
		severity, ttl = faultSeverity, faultTTL
	}
	signals := []Signal{{
		CableID:    res.CableID,
		TS:         ts,
		Severity:   severity,
		Confidence: resolutionConfidence(res),
		TTLSeconds: int64(ttl / time.Second),
		Kind:       KindOperatorFault,
		Evidence:   []EvidenceItem{newEvidence(w, ts, meta)},
	}}
	stats.FaultSignals = 1

	if ship, ok := s.rules.MatchRepairShip(w.Text); ok {
		severity, confidence, ttl := repairTransitSeverity, repairTransitConfidence, repairTransitTTL
		if ship.OnStation {
			severity, confidence, ttl = repairOnStationSeverity, repairOnStationConfidence, repairOnStationTTL
		}
		repairMeta := meta
		repairMeta.Vessel = ship.Vessel
		signals = append(signals, Signal{
			CableID:    res.CableID,
			TS:         ts,
			Severity:   severity,
			Confidence: confidence,
			TTLSeconds: int64(ttl / time.Second),
			Kind:       KindRepairActivity,
			Evidence:   []EvidenceItem{newEvidence(w, ts, repairMeta)},
		})
		stats.RepairSignals = 1
	}

	return signals, stats
}

// BuildSignals synthesizes signals for every warning in feed order.
func (s *Synthesizer) BuildSignals(warnings []Warning) ([]Signal, SynthesisStats) {
	var (
		out   []Signal
		stats SynthesisStats
	)
	for _, w := range warnings {
		sigs, st := s.Synthesize(w)
		out = append(out, sigs...)
		stats.Add(st)
	}
	return out, stats
}

// resolutionConfidence trusts explicit names most; proximity matches lose
// confidence linearly with distance down to a floor.
func resolutionConfidence(res Resolution) float64 {
	if res.Method == JoinName {
		return nameMatchConfidence
	}
	return math.Max(geometryConfidenceMin, geometryConfidenceMax-res.DistanceKm()/geometryFalloffKm)
}

func newEvidence(w Warning, ts time.Time, meta EvidenceMeta) EvidenceItem {
	return EvidenceItem{
		Source:  EvidenceSource,
		Summary: truncateRunes(w.Text, summaryMaxRunes),
		TS:      ts,
		Meta:    meta,
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
