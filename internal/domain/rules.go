package domain

import (
	"regexp"
	"strings"
	"time"
)

// Hazard is what a cable-related warning says about the cable itself.
type Hazard int

const (
	HazardNone Hazard = iota
	HazardAdvisory
	HazardFault
)

func (h Hazard) String() string {
	switch h {
	case HazardAdvisory:
		return "advisory"
	case HazardFault:
		return "fault"
	default:
		return "none"
	}
}

// RepairActivity describes a repair or cable-laying vessel named in a warning.
type RepairActivity struct {
	Vessel    string
	OnStation bool
}

// Rules is the keyword and pattern table used to classify warning text.
// Swap fields to extend the classifier without touching control flow.
type Rules struct {
	CableKeywords    []string
	FaultPattern     *regexp.Regexp
	ShipPatterns     []*regexp.Regexp
	OnStationPattern *regexp.Regexp
	// VesselStopWords end a vessel name captured by ShipPatterns.
	VesselStopWords map[string]bool
}

// maxVesselWords bounds a vessel name when no stop word follows it.
const maxVesselWords = 4

// DefaultRules returns the classifier table tuned for NGA broadcast warnings.
func DefaultRules() *Rules {
	return &Rules{
		CableKeywords: []string{
			"CABLE",
			"CABLESHIP",
			"SUBMARINE CABLE",
			"FIBER OPTIC",
			"FIBRE OPTIC",
		},
		FaultPattern: regexp.MustCompile(`(?i)FAULT|BREAK|CUT|DAMAGE|SEVERED|RUPTURE|OUTAGE|FAILURE`),
		ShipPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bCABLESHIP[ \t]+([A-Z0-9][A-Z0-9.'\- \t]*)`),
			regexp.MustCompile(`(?i)\bCABLE[ \t]+SHIP[ \t]+([A-Z0-9][A-Z0-9.'\- \t]*)`),
			regexp.MustCompile(`\bCS[ \t]+([A-Z0-9][A-Z0-9.'\- \t]*)`),
			regexp.MustCompile(`(?i)\bM/V[ \t]+([A-Z0-9][A-Z0-9.'\- \t]*)`),
		},
		OnStationPattern: regexp.MustCompile(`(?i)ON STATION|OPERATIONS IN PROGRESS|LAYING|REPAIRING|WORKING|COMMENCED`),
		VesselStopWords: stopWords(
			"ON", "IN", "AT", "TO", "IS", "WILL", "FOR", "NEAR", "VICINITY", "AND",
			"CABLE", "CABLES", "OPERATIONS", "TRANSITING", "WORKING", "CONDUCTING",
			"REPAIRING", "LAYING", "ENGAGED", "COMMENCED", "OPERATING",
		),
	}
}

func stopWords(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// IsCableRelated reports whether text mentions any cable keyword.
func (r *Rules) IsCableRelated(text string) bool {
	upper := strings.ToUpper(text)
	for _, kw := range r.CableKeywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}

// ClassifyHazard distinguishes faults from advisories. Text that is not cable
// related is HazardNone.
func (r *Rules) ClassifyHazard(text string) Hazard {
	if !r.IsCableRelated(text) {
		return HazardNone
	}
	if r.FaultPattern.MatchString(text) {
		return HazardFault
	}
	return HazardAdvisory
}

// MatchRepairShip finds a named repair or laying vessel. The first pattern
// in table order that matches supplies the vessel name.
func (r *Rules) MatchRepairShip(text string) (RepairActivity, bool) {
	for _, re := range r.ShipPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		name := r.vesselName(m[1])
		if name == "" {
			continue
		}
		return RepairActivity{
			Vessel:    name,
			OnStation: r.OnStationPattern.MatchString(text),
		}, true
	}
	return RepairActivity{}, false
}

// vesselName takes words from the run captured after a ship prefix until a
// stop word, the end of a sentence, or maxVesselWords.
func (r *Rules) vesselName(run string) string {
	var words []string
	for _, w := range strings.Fields(strings.ToUpper(run)) {
		if r.VesselStopWords[w] || len(words) == maxVesselWords {
			break
		}
		words = append(words, w)
		if strings.HasSuffix(w, ".") {
			break
		}
	}
	return strings.TrimRight(strings.Join(words, " "), ".'-")
}

// issueDateRe matches the NGA DTG form "151200Z FEB 2026".
var issueDateRe = regexp.MustCompile(`^(\d{2})(\d{2})(\d{2})Z\s+([A-Za-z]{3})\s+(\d{4})$`)

var months = map[string]time.Month{
	"JAN": time.January, "FEB": time.February, "MAR": time.March,
	"APR": time.April, "MAY": time.May, "JUN": time.June,
	"JUL": time.July, "AUG": time.August, "SEP": time.September,
	"OCT": time.October, "NOV": time.November, "DEC": time.December,
}

// unixEpoch is returned for unparseable dates so the resulting signal has
// already decayed by the time it is evaluated.
var unixEpoch = time.Unix(0, 0).UTC()

// ParseIssueDate parses "DDHHMMZ MON YYYY" in UTC. On failure it returns the
// Unix epoch and false.
func ParseIssueDate(s string) (time.Time, bool) {
	m := issueDateRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return unixEpoch, false
	}
	month, ok := months[strings.ToUpper(m[4])]
	if !ok {
		return unixEpoch, false
	}
	day, hour, minute := atoi2(m[1]), atoi2(m[2]), atoi2(m[3])
	year := atoi2(m[5][:2])*100 + atoi2(m[5][2:])
	if hour > 23 || minute > 59 || day < 1 {
		return unixEpoch, false
	}

	t := time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
	// time.Date normalizes overflow (31 FEB -> 3 MAR); reject it instead.
	if t.Day() != day || t.Month() != month {
		return unixEpoch, false
	}
	return t, true
}

// atoi2 converts a two-digit numeric string already validated by a regex.
func atoi2(s string) int {
	return int(s[0]-'0')*10 + int(s[1]-'0')
}
