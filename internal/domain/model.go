package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Core domain models shared by the service, the client and the viewer. Wire
// names follow the preupgrade report API (snake_case).

// LeappTemplateMarker identifies job templates that produce preupgrade reports.
const LeappTemplateMarker = "Run preupgrade via Leapp"

// InhibitorFlag marks an entry that blocks the upgrade.
const InhibitorFlag = "inhibitor"

type JobRun struct {
	ID           int64  `json:"id"`
	TemplateName string `json:"template_name"`
}

// HasPreupgradeReport reports whether the job template produces a preupgrade report.
func (j JobRun) HasPreupgradeReport() bool {
	return strings.Contains(j.TemplateName, LeappTemplateMarker)
}

type Report struct {
	ID              int64     `json:"id"`
	JobInvocationID int64     `json:"job_invocation_id"`
	HostID          *int64    `json:"host_id"`
	Hostname        string    `json:"hostname,omitempty"`
	Status          string    `json:"status,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Report statuses derived from the entries at import time.
const (
	ReportReady     = "ready"
	ReportInhibited = "inhibited"
)

// ReportStatus is inhibited when any entry blocks the upgrade.
func ReportStatus(entries []ReportEntry) string {
	for _, e := range entries {
		if e.IsInhibitor() {
			return ReportInhibited
		}
	}
	return ReportReady
}

type ReportEntry struct {
	ID                 int64      `json:"id"`
	PreupgradeReportID int64      `json:"preupgrade_report_id"`
	HostID             int64      `json:"host_id"`
	Hostname           string     `json:"hostname,omitempty"`
	Title              string     `json:"title"`
	Summary            string     `json:"summary,omitempty"`
	Severity           Severity   `json:"severity"`
	Tags               []string   `json:"tags"`
	Flags              []string   `json:"flags"`
	Detail             Detail     `json:"detail"`
	Actor              string     `json:"actor"`
	Audience           string     `json:"audience"`
	LeappRunID         string     `json:"leapp_run_id"`
	Key                string     `json:"key,omitempty"`
	CreatedAt          *time.Time `json:"created_at,omitempty"`
}

// IsInhibitor reports whether the entry carries the inhibitor flag.
func (e ReportEntry) IsInhibitor() bool {
	for _, f := range e.Flags {
		if f == InhibitorFlag {
			return true
		}
	}
	return false
}

// Detail is the opaque structured payload of an entry. Only a handful of
// top-level keys are ever inspected.
type Detail json.RawMessage

func (d Detail) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}

func (d *Detail) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*d = nil
		return nil
	}
	*d = append((*d)[:0], b...)
	return nil
}

// IsNull reports whether the payload is absent or JSON null.
func (d Detail) IsNull() bool {
	t := bytes.TrimSpace(d)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

func (d Detail) field(key string) (json.RawMessage, bool) {
	if d.IsNull() {
		return nil, false
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(d, &top); err != nil {
		return nil, false
	}
	v, ok := top[key]
	if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return nil, false
	}
	return v, true
}

// HasRemediations is true iff the top-level remediations key is present and non-null.
func (d Detail) HasRemediations() bool {
	_, ok := d.field("remediations")
	return ok
}

type Remediation struct {
	Type    string `json:"type"`
	Context any    `json:"context"`
}

// Text flattens the remediation context; commands arrive as argv lists.
func (r Remediation) Text() string {
	switch v := r.Context.(type) {
	case string:
		return v
	case []any:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			if s, ok := p.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	case nil:
		return ""
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

type ExternalLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type RelatedResource struct {
	Scheme string `json:"scheme"`
	Title  string `json:"title"`
}

func (d Detail) Remediations() []Remediation {
	var out []Remediation
	if raw, ok := d.field("remediations"); ok {
		_ = json.Unmarshal(raw, &out)
	}
	return out
}

func (d Detail) External() []ExternalLink {
	var out []ExternalLink
	if raw, ok := d.field("external"); ok {
		_ = json.Unmarshal(raw, &out)
	}
	return out
}

func (d Detail) RelatedResources() []RelatedResource {
	var out []RelatedResource
	if raw, ok := d.field("related_resources"); ok {
		_ = json.Unmarshal(raw, &out)
	}
	return out
}
