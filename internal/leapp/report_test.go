package leapp

import (
	"errors"
	"os"
	"strings"
	"testing"

	"preupgrade/internal/domain"
)

func TestParse(t *testing.T) {
	data, err := os.ReadFile("testdata/leapp-report.json")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}

	rep, err := Parse(data, Host{ID: 11, Hostname: "rhel8.example.com"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if rep.LeappRunID != "c2b8f9d6-2f0f-4c2c-9a8f-6c5b6b8f3e11" {
		t.Errorf("LeappRunID = %q", rep.LeappRunID)
	}
	if len(rep.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(rep.Entries))
	}

	first := rep.Entries[0]
	tests := []struct {
		name string
		got  any
		want any
	}{
		{"Hostname", first.Hostname, "rhel8.example.com"},
		{"HostID", first.HostID, int64(11)},
		{"Severity", first.Severity, domain.SeverityHigh},
		{"Inhibitor", first.IsInhibitor(), true},
		{"HasRemediations", first.Detail.HasRemediations(), true},
		{"LeappRunID", first.LeappRunID, rep.LeappRunID},
		{"Actor", first.Actor, "check_kernel_drivers"},
		{"Key", first.Key, "3fa2c1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}

	second := rep.Entries[1]
	if second.Hostname != "rhel8.example.com" {
		t.Errorf("fallback Hostname = %q, want host hostname", second.Hostname)
	}
	if second.Detail != nil {
		t.Errorf("Detail = %s, want nil for JSON null", second.Detail)
	}
	if second.Flags == nil || len(second.Flags) != 0 {
		t.Errorf("Flags = %#v, want empty non-nil slice", second.Flags)
	}
}

func TestParse_MissingFields(t *testing.T) {
	data := []byte(`{"entries":[{"title":"x","severity":"low","hostname":"h"}]}`)

	_, err := Parse(data, Host{})
	if !errors.Is(err, ErrInvalidReport) {
		t.Fatalf("Parse() error = %v, want ErrInvalidReport", err)
	}
	for _, field := range []string{"actor", "audience", "leapp_run_id"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error %q does not name missing %s", err, field)
		}
	}
}

func TestParse_Malformed(t *testing.T) {
	if _, err := Parse([]byte(`{"entries":`), Host{}); !errors.Is(err, ErrInvalidReport) {
		t.Errorf("Parse() error = %v, want ErrInvalidReport", err)
	}
}

func TestNormalizeHostname(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"Host.Example.COM.", "host.example.com"},
		{"  db01.example.com ", "db01.example.com"},
		{"bücher.example", "xn--bcher-kva.example"},
		{"Under_Score.local", "under_score.local"},
	}
	for _, tt := range tests {
		if got := NormalizeHostname(tt.in); got != tt.want {
			t.Errorf("NormalizeHostname(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
