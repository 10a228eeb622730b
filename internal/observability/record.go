package observability

import (
	"github.com/couchcryptid/cable-health-service/internal/domain"
)

// RecordSynthesis adds the outcome of one synthesis pass to the counters.
func (m *Metrics) RecordSynthesis(stats domain.SynthesisStats) {
	m.SynthesisResults.WithLabelValues("unrelated").Add(float64(stats.Warnings - stats.CableRelated))
	m.SynthesisResults.WithLabelValues("unresolved").Add(float64(stats.Unresolved))
	m.SynthesisResults.WithLabelValues("resolved").Add(float64(stats.CableRelated - stats.Unresolved))
	m.UnparseableDates.Add(float64(stats.UnparseableDates))
	m.SignalsByKind.WithLabelValues(string(domain.KindOperatorFault)).Add(float64(stats.FaultSignals))
	m.SignalsByKind.WithLabelValues(string(domain.KindRepairActivity)).Add(float64(stats.RepairSignals))
}

// RecordHealth sets the per-status cable gauges from an evaluated health map.
// Statuses absent from the map are reported as zero.
func (m *Metrics) RecordHealth(hm domain.HealthMap) {
	counts := map[domain.HealthStatus]int{
		domain.StatusOK:       0,
		domain.StatusDegraded: 0,
		domain.StatusFault:    0,
	}
	for _, h := range hm {
		counts[h.Status]++
	}
	for status, n := range counts {
		m.CablesByStatus.WithLabelValues(string(status)).Set(float64(n))
	}
}

// RecordWarningLog reports the current size of the warning log.
func (m *Metrics) RecordWarningLog(entries int) {
	m.WarningLogEntries.Set(float64(entries))
}
