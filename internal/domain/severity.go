package domain

import "strings"

// Severity is the ordered risk category of a report entry.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severities lists the known categories from least to most severe.
var Severities = []Severity{SeverityInfo, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// ParseSeverity normalises a severity as emitted by leapp. Unknown values are
// kept verbatim (lowercased) so they still round-trip through the API.
func ParseSeverity(s string) Severity {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "informational", "information":
		return SeverityInfo
	}
	return Severity(v)
}

// Rank orders severities; unknown values rank below info.
func (s Severity) Rank() int {
	for i, known := range Severities {
		if s == known {
			return i + 1
		}
	}
	return 0
}

func (s Severity) Known() bool { return s.Rank() > 0 }
