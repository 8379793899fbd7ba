package cmd

import (
	"testing"

	"github.com/spiffcs/claimwatch/internal/model"
)

func TestNewRegistersSubcommands(t *testing.T) {
	root := New()

	want := []string{"run", "watch", "detections", "trust", "config", "ratelimit", "version"}
	for _, name := range want {
		found := false
		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestParseDetectionState(t *testing.T) {
	tests := []struct {
		input   string
		want    model.DetectionState
		wantErr bool
	}{
		{"pending", model.StatePending, false},
		{"REMINDED", model.StateReminded, false},
		{"Resolved", model.StateResolved, false},
		{"bogus", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := parseDetectionState(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseDetectionState(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseDetectionState(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNewOptions(t *testing.T) {
	opts := NewOptions(
		WithFormat("json"),
		WithRepo("octo/widgets"),
		WithWorkers(8),
		WithVerbosity(2),
	)

	if opts.Format != "json" {
		t.Errorf("Format = %q, want json", opts.Format)
	}
	if opts.Repo != "octo/widgets" {
		t.Errorf("Repo = %q, want octo/widgets", opts.Repo)
	}
	if opts.Workers != 8 {
		t.Errorf("Workers = %d, want 8", opts.Workers)
	}
	if opts.Verbosity != 2 {
		t.Errorf("Verbosity = %d, want 2", opts.Verbosity)
	}
}
