// Package domain turns NGA maritime safety warnings into submarine cable
// health.
//
// # Data Source
//
// Warnings come from the NGA Maritime Safety Information broadcast-warn feed
// (https://msi.nga.mil/api/publications/broadcast-warn). Each record carries a
// NAVAREA, a message year and number, a date-time group, and free text written
// for mariners. The text is uppercase by convention but nothing about its
// layout is guaranteed.
//
// # NAVAREA Text Conventions
//
// Positions:
//
//	"DD-MM.MN DDD-MM.MW"  →  e.g. "36-50.2N 075-58.0W"
//	Degrees and decimal minutes, hemisphere letter last. Seconds are not used.
//	A warning may list several positions (a track or an area); they are
//	averaged into a centroid for proximity matching.
//
// Issue dates:
//
//	"DDHHMMZ MON YYYY"  →  e.g. "151200Z FEB 2026" = 2026-02-15 12:00 UTC.
//	Anything else parses to the Unix epoch, so the signal it produces is
//	already expired when evaluated.
//
// Vessels:
//
//	Repair and laying ships appear as "CABLESHIP <NAME>", "CABLE SHIP <NAME>",
//	"CS <NAME>" or "M/V <NAME>". Phrases like "ON STATION" or "OPERATIONS IN
//	PROGRESS" mean the ship is working rather than transiting.
//
// # Pipeline
//
// Text is classified by a [Rules] table, attributed to a cable by the
// [Registry] (alias match first, nearest landing point within 5 degrees
// second), and turned into typed [Signal] values by the [Synthesizer].
// [ComputeHealthMap] decays each signal linearly over its TTL, ranks the
// survivors, and classifies every cable:
//
//	fault     top effective ≥ 0.80 and an operator_fault signal ≥ 0.50
//	degraded  top effective ≥ 0.80 with repair activity ≥ 0.40, or top ≥ 0.50
//	ok        otherwise
//
// Repair activity on its own never yields fault. Nothing is persisted between
// evaluations: the same signals evaluated later simply carry less weight.
package domain
