package syncrun

import (
	"strings"
	"testing"
	"time"
)

func TestRunSummary(t *testing.T) {
	run := Run{
		ID:    "run_0001",
		Clean: false,
		Steps: []StepResult{
			{
				Name:     "sync_master",
				Status:   StepStatusOK,
				Duration: 1200 * time.Millisecond,
				Counters: map[string]int{"matched": 18, "upserted": 240},
			},
			{
				Name:   "link_teams",
				Status: StepStatusFailed,
				Error:  "upstream 503",
			},
		},
	}

	out := run.Summary()

	if !strings.HasPrefix(out, "run run_0001 clean=false steps=2") {
		t.Fatalf("unexpected header line: %q", out)
	}
	for _, want := range []string{"sync_master", "matched=18", "upserted=240", "link_teams", "error=upstream 503"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestRunValidate(t *testing.T) {
	valid := Run{ID: "run_0001", StartedAt: time.Now()}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid run rejected: %v", err)
	}
	if err := (Run{StartedAt: time.Now()}).Validate(); err == nil {
		t.Fatal("missing id must be rejected")
	}
	if err := (Run{ID: "run_0001"}).Validate(); err == nil {
		t.Fatal("missing start time must be rejected")
	}
}
