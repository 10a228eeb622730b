package domain

import (
	"cmp"
	"math"
	"slices"
	"time"
)

// Classification thresholds.
const (
	escalationThreshold     = 0.80
	degradedThreshold       = 0.50
	operatorFaultThreshold  = 0.50
	repairActivityThreshold = 0.40

	maxEvidenceItems = 3
)

// RecencyWeight is the linear decay factor for a signal of the given age. It
// is 1 at age zero and reaches exactly 0 once age >= ttl. Negative ages (clock
// skew, future-dated warnings) count as zero.
func RecencyWeight(age, ttl time.Duration) float64 {
	if ttl <= 0 {
		return 0
	}
	if age < 0 {
		age = 0
	}
	return clamp01(1 - age.Seconds()/ttl.Seconds())
}

// EffectiveSignals scores signals at now, drops the fully decayed ones, and
// returns the survivors sorted by effective score, highest first. Signals
// with equal scores keep their input order.
func EffectiveSignals(signals []Signal, now time.Time) []EffectiveSignal {
	out := make([]EffectiveSignal, 0, len(signals))
	for _, s := range signals {
		w := RecencyWeight(now.Sub(s.TS), s.TTL())
		if w <= 0 {
			continue
		}
		out = append(out, EffectiveSignal{
			Signal:        s,
			Effective:     clamp01(s.Severity * s.Confidence * w),
			RecencyWeight: w,
		})
	}
	slices.SortStableFunc(out, func(a, b EffectiveSignal) int {
		return cmp.Compare(b.Effective, a.Effective)
	})
	return out
}

// ClassifyHealth fuses one cable's ranked survivors into a CableHealth. The
// input must be sorted as returned by EffectiveSignals; ok is false when it
// is empty.
func ClassifyHealth(ranked []EffectiveSignal) (CableHealth, bool) {
	if len(ranked) == 0 {
		return CableHealth{}, false
	}
	top := ranked[0]
	topScore := top.Effective
	topConfidence := top.Confidence * top.RecencyWeight

	var hasOperatorFault, hasRepairActivity bool
	lastUpdated := top.TS
	for _, s := range ranked {
		switch s.Kind {
		case KindOperatorFault:
			hasOperatorFault = hasOperatorFault || s.Effective >= operatorFaultThreshold
		case KindRepairActivity:
			hasRepairActivity = hasRepairActivity || s.Effective >= repairActivityThreshold
		}
		if s.TS.After(lastUpdated) {
			lastUpdated = s.TS
		}
	}

	var status HealthStatus
	switch {
	case topScore >= escalationThreshold && hasOperatorFault:
		status = StatusFault
	case topScore >= escalationThreshold && hasRepairActivity:
		// Repair ships alone never escalate past degraded.
		status = StatusDegraded
	case topScore >= degradedThreshold:
		status = StatusDegraded
	default:
		status = StatusOK
	}

	evidence := make([]EvidenceItem, 0, maxEvidenceItems)
	for _, s := range ranked[:min(len(ranked), maxEvidenceItems)] {
		evidence = append(evidence, s.Evidence...)
	}
	if len(evidence) > maxEvidenceItems {
		evidence = evidence[:maxEvidenceItems]
	}

	return CableHealth{
		Status:      status,
		Score:       roundTo(topScore, 2),
		Confidence:  roundTo(topConfidence, 2),
		LastUpdated: lastUpdated,
		Evidence:    evidence,
	}, true
}

// ComputeHealthMap groups signals by cable and classifies each cable at now.
// Cables whose signals have all decayed are omitted. An empty input yields an
// empty, non-nil map.
func ComputeHealthMap(signals []Signal, now time.Time) HealthMap {
	byCable := make(map[string][]Signal)
	for _, s := range signals {
		byCable[s.CableID] = append(byCable[s.CableID], s)
	}

	out := make(HealthMap, len(byCable))
	for id, sigs := range byCable {
		if h, ok := ClassifyHealth(EffectiveSignals(sigs, now)); ok {
			out[id] = h
		}
	}
	return out
}

// EvaluateHealth computes the health map at the package clock's current time.
func EvaluateHealth(signals []Signal) HealthSnapshot {
	now := clock.Now().UTC()
	return HealthSnapshot{
		GeneratedAt: now,
		Cables:      ComputeHealthMap(signals, now),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func roundTo(v float64, prec int) float64 {
	p := math.Pow10(prec)
	return math.Round(v*p) / p
}
