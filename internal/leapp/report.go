// Package leapp reads leapp-report.json files into preupgrade report entries.
package leapp

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/net/idna"

	"preupgrade/internal/domain"
)

var ErrInvalidReport = errors.New("invalid leapp report")

type rawReport struct {
	LeappRunID string     `json:"leapp_run_id"`
	Entries    []rawEntry `json:"entries"`
}

type rawEntry struct {
	Title      string          `json:"title"`
	Summary    string          `json:"summary"`
	Severity   string          `json:"severity"`
	Tags       []string        `json:"tags"`
	Groups     []string        `json:"groups"`
	Flags      []string        `json:"flags"`
	Detail     json.RawMessage `json:"detail"`
	Actor      string          `json:"actor"`
	Audience   string          `json:"audience"`
	Hostname   string          `json:"hostname"`
	Key        string          `json:"key"`
	LeappRunID string          `json:"leapp_run_id"`
}

// Host identifies the machine a report was produced on. Its hostname fills
// in for entries that do not carry one.
type Host struct {
	ID       int64
	Hostname string
}

type Report struct {
	LeappRunID string
	Hostname   string
	Entries    []domain.ReportEntry
}

// Parse decodes a leapp-report.json document. Every entry must end up with a
// title, hostname, severity, actor, audience and leapp run id.
func Parse(data []byte, host Host) (Report, error) {
	var raw rawReport
	if err := json.Unmarshal(data, &raw); err != nil {
		return Report{}, fmt.Errorf("%w: %v", ErrInvalidReport, err)
	}

	out := Report{
		LeappRunID: raw.LeappRunID,
		Hostname:   NormalizeHostname(host.Hostname),
		Entries:    make([]domain.ReportEntry, 0, len(raw.Entries)),
	}

	var errs []error
	for i, re := range raw.Entries {
		e := domain.ReportEntry{
			HostID:     host.ID,
			Hostname:   NormalizeHostname(re.Hostname),
			Title:      strings.TrimSpace(re.Title),
			Summary:    re.Summary,
			Severity:   domain.ParseSeverity(re.Severity),
			Tags:       nonNil(re.Tags),
			Flags:      mergeFlags(re.Flags, re.Groups),
			Actor:      re.Actor,
			Audience:   re.Audience,
			LeappRunID: re.LeappRunID,
			Key:        re.Key,
		}
		if e.Hostname == "" {
			e.Hostname = out.Hostname
		}
		if e.LeappRunID == "" {
			e.LeappRunID = raw.LeappRunID
		}
		if d := domain.Detail(re.Detail); !d.IsNull() {
			e.Detail = d
		}
		if err := validate(e); err != nil {
			errs = append(errs, fmt.Errorf("entry %d: %w", i, err))
			continue
		}
		out.Entries = append(out.Entries, e)
	}
	if len(errs) > 0 {
		return Report{}, fmt.Errorf("%w: %w", ErrInvalidReport, errors.Join(errs...))
	}
	if out.Hostname == "" && len(out.Entries) > 0 {
		out.Hostname = out.Entries[0].Hostname
	}
	return out, nil
}

func validate(e domain.ReportEntry) error {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"title", e.Title},
		{"hostname", e.Hostname},
		{"severity", string(e.Severity)},
		{"actor", e.Actor},
		{"audience", e.Audience},
		{"leapp_run_id", e.LeappRunID},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// mergeFlags folds the newer "groups" list into flags; leapp moved the
// inhibitor marker there.
func mergeFlags(flags, groups []string) []string {
	out := nonNil(slices.Clone(flags))
	for _, g := range groups {
		if g == domain.InhibitorFlag && !slices.Contains(out, g) {
			out = append(out, g)
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// NormalizeHostname lowercases and punycodes a hostname. Names idna rejects
// are kept lowercased as given.
func NormalizeHostname(h string) string {
	h = strings.TrimSuffix(strings.TrimSpace(h), ".")
	if h == "" {
		return ""
	}
	if ascii, err := idna.Lookup.ToASCII(h); err == nil {
		return ascii
	}
	return strings.ToLower(h)
}
