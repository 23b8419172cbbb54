package reportview

import (
	"strings"

	"preupgrade/internal/domain"
)

// DetailLine is one labelled line of an expanded row.
type DetailLine struct {
	Label string
	Text  string
}

// Details lists what an expanded row shows beneath the table line.
func Details(e domain.ReportEntry) []DetailLine {
	var out []DetailLine
	if e.Summary != "" {
		out = append(out, DetailLine{Label: "Summary", Text: e.Summary})
	}
	if len(e.Tags) > 0 {
		out = append(out, DetailLine{Label: "Tags", Text: strings.Join(e.Tags, ", ")})
	}
	if len(e.Flags) > 0 {
		out = append(out, DetailLine{Label: "Flags", Text: strings.Join(e.Flags, ", ")})
	}
	for _, r := range e.Detail.Remediations() {
		label := "Remediation"
		switch r.Type {
		case "hint":
			label = "Hint"
		case "command":
			label = "Command"
		}
		if text := r.Text(); text != "" {
			out = append(out, DetailLine{Label: label, Text: text})
		}
	}
	for _, r := range e.Detail.RelatedResources() {
		out = append(out, DetailLine{Label: "Related " + r.Scheme, Text: r.Title})
	}
	for _, l := range e.Detail.External() {
		out = append(out, DetailLine{Label: "Link", Text: strings.TrimSpace(l.Title + " " + l.URL)})
	}
	if e.Actor != "" {
		out = append(out, DetailLine{Label: "Actor", Text: e.Actor})
	}
	if e.Audience != "" {
		out = append(out, DetailLine{Label: "Audience", Text: e.Audience})
	}
	if e.LeappRunID != "" {
		out = append(out, DetailLine{Label: "Leapp run", Text: e.LeappRunID})
	}
	return out
}
