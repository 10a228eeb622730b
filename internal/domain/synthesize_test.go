package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIssueDate = "151200Z FEB 2026"

var testIssueTime = time.Date(2026, time.February, 15, 12, 0, 0, 0, time.UTC)

func testWarning(text string) Warning {
	return Warning{
		Text:      text,
		IssueDate: testIssueDate,
		NavArea:   "4",
		MsgYear:   "2026",
		MsgNumber: "123",
	}
}

func TestSynthesize_NameMatchedFaultWithRepairShip(t *testing.T) {
	s := NewSynthesizer(nil, nil)
	w := testWarning("CABLESHIP RESOLUTE ON STATION REPAIRING SUBMARINE CABLE FAULT ON MAREA.")

	signals, stats := s.Synthesize(w)

	require.Len(t, signals, 2)
	want := []Signal{
		{
			CableID:    "marea",
			TS:         testIssueTime,
			Severity:   1.0,
			Confidence: 0.9,
			TTLSeconds: 5 * 86400,
			Kind:       KindOperatorFault,
			Evidence: []EvidenceItem{{
				Source:  "NGA",
				Summary: w.Text,
				TS:      testIssueTime,
				Meta:    EvidenceMeta{WarningID: "4-2026-123", JoinMethod: JoinName},
			}},
		},
		{
			CableID:    "marea",
			TS:         testIssueTime,
			Severity:   0.8,
			Confidence: 0.85,
			TTLSeconds: 86400,
			Kind:       KindRepairActivity,
			Evidence: []EvidenceItem{{
				Source:  "NGA",
				Summary: w.Text,
				TS:      testIssueTime,
				Meta:    EvidenceMeta{WarningID: "4-2026-123", JoinMethod: JoinName, Vessel: "RESOLUTE"},
			}},
		},
	}
	if diff := cmp.Diff(want, signals); diff != "" {
		t.Fatalf("signals mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, SynthesisStats{Warnings: 1, CableRelated: 1, FaultSignals: 1, RepairSignals: 1}, stats)
}

func TestSynthesize_GeometryMatchedAdvisory(t *testing.T) {
	s := NewSynthesizer(nil, nil)

	signals, stats := s.Synthesize(testWarning("CABLE OPERATIONS 36-50N 075-58W. WIDE BERTH REQUESTED."))

	require.Len(t, signals, 1)
	sig := signals[0]
	assert.Equal(t, "marea", sig.CableID)
	assert.Equal(t, KindOperatorFault, sig.Kind)
	assert.Equal(t, 0.6, sig.Severity)
	assert.Equal(t, int64(3*86400), sig.TTLSeconds)
	// 0.02 degrees from Virginia Beach rounds to 2 km: 0.8 - 2/500.
	assert.InDelta(t, 0.796, sig.Confidence, 1e-9)

	meta := sig.Evidence[0].Meta
	assert.Equal(t, JoinGeometry, meta.JoinMethod)
	require.NotNil(t, meta.DistanceKm)
	assert.Equal(t, 2.0, *meta.DistanceKm)
	assert.Equal(t, 1, stats.FaultSignals)
	assert.Zero(t, stats.RepairSignals)
}

func TestSynthesize_GeometryConfidenceFloor(t *testing.T) {
	s := NewSynthesizer(nil, nil)

	// Three degrees south of Virginia Beach: 333 km, below the floor.
	signals, _ := s.Synthesize(testWarning("SUBMARINE CABLE FAULT 33-51N 075-59W"))

	require.Len(t, signals, 1)
	assert.Equal(t, 0.4, signals[0].Confidence)
	assert.Equal(t, 1.0, signals[0].Severity)
}

func TestSynthesize_TransitingRepairShip(t *testing.T) {
	s := NewSynthesizer(nil, nil)

	signals, _ := s.Synthesize(testWarning("CABLE SHIP TELIRI TRANSITING TO SEA-ME-WE 6 SEGMENT."))

	require.Len(t, signals, 2)
	repair := signals[1]
	assert.Equal(t, KindRepairActivity, repair.Kind)
	assert.Equal(t, "seamewe6", repair.CableID)
	assert.Equal(t, 0.5, repair.Severity)
	assert.Equal(t, 0.6, repair.Confidence)
	assert.Equal(t, int64(12*3600), repair.TTLSeconds)
	assert.Equal(t, "TELIRI", repair.Evidence[0].Meta.Vessel)
}

func TestSynthesize_Dropped(t *testing.T) {
	s := NewSynthesizer(nil, nil)

	t.Run("not cable related", func(t *testing.T) {
		signals, stats := s.Synthesize(testWarning("GUNNERY EXERCISES 36-50N 075-58W"))
		assert.Empty(t, signals)
		assert.Equal(t, SynthesisStats{Warnings: 1}, stats)
	})

	t.Run("unresolved", func(t *testing.T) {
		signals, stats := s.Synthesize(testWarning("SUBMARINE CABLE OPERATIONS 45-00S 140-00W"))
		assert.Empty(t, signals)
		assert.Equal(t, SynthesisStats{Warnings: 1, CableRelated: 1, Unresolved: 1}, stats)
	})

	t.Run("no name and no position", func(t *testing.T) {
		signals, stats := s.Synthesize(testWarning("SUBMARINE CABLE DAMAGE REPORTED"))
		assert.Empty(t, signals)
		assert.Equal(t, 1, stats.Unresolved)
	})
}

func TestSynthesize_UnparseableDateDecaysImmediately(t *testing.T) {
	s := NewSynthesizer(nil, nil)
	w := testWarning("SUBMARINE CABLE FAULT ON MAREA")
	w.IssueDate = "yesterday"

	signals, stats := s.Synthesize(w)

	require.Len(t, signals, 1)
	assert.Equal(t, 1, stats.UnparseableDates)
	assert.True(t, signals[0].TS.Equal(time.Unix(0, 0)))
	assert.Empty(t, ComputeHealthMap(signals, testIssueTime))
}

func TestSynthesize_SummaryTruncated(t *testing.T) {
	s := NewSynthesizer(nil, nil)
	text := "SUBMARINE CABLE FAULT ON MAREA. " + strings.Repeat("X", 300)

	signals, _ := s.Synthesize(testWarning(text))

	require.Len(t, signals, 1)
	summary := signals[0].Evidence[0].Summary
	assert.Len(t, summary, 150)
	assert.True(t, strings.HasPrefix(text, summary))
}

func TestSynthesize_NameBeatsGeometryOnConfidence(t *testing.T) {
	s := NewSynthesizer(nil, nil)

	named, _ := s.Synthesize(testWarning("SUBMARINE CABLE FAULT ON MAREA 36-50N 075-58W"))
	inferred, _ := s.Synthesize(testWarning("SUBMARINE CABLE FAULT 36-50N 075-58W"))

	require.Len(t, named, 1)
	require.Len(t, inferred, 1)
	assert.Equal(t, named[0].CableID, inferred[0].CableID)
	assert.Greater(t, named[0].Confidence, inferred[0].Confidence)
}

func TestBuildSignals(t *testing.T) {
	s := NewSynthesizer(nil, nil)
	warnings := []Warning{
		testWarning("SUBMARINE CABLE FAULT ON MAREA"),
		testWarning("GUNNERY EXERCISES"),
		testWarning("CS SOVEREIGN WORKING ON DUNANT CABLE"),
		testWarning("SUBMARINE CABLE OPERATIONS 45-00S 140-00W"),
	}

	signals, stats := s.BuildSignals(warnings)

	require.Len(t, signals, 3)
	assert.Equal(t, "marea", signals[0].CableID)
	assert.Equal(t, "dunant", signals[1].CableID)
	assert.Equal(t, KindRepairActivity, signals[2].Kind)
	assert.Equal(t, SynthesisStats{
		Warnings:      4,
		CableRelated:  3,
		Unresolved:    1,
		FaultSignals:  2,
		RepairSignals: 1,
	}, stats)
}

func TestWarningID(t *testing.T) {
	assert.Equal(t, "4-2026-123", testWarning("").ID())
}
