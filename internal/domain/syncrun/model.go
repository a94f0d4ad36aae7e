package syncrun

import (
	"fmt"
	"time"
)

const (
	StepStatusOK      = "ok"
	StepStatusFailed  = "failed"
	StepStatusSkipped = "skipped"
)

// StepResult is the outcome of one named pipeline step.
type StepResult struct {
	Name     string
	Status   string
	Error    string
	Duration time.Duration
	Counters map[string]int
}

// Run is one orchestrator execution. Clean is true only when every step
// finished with StepStatusOK.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Clean      bool
	Steps      []StepResult
}

func (r Run) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("run id is required")
	}
	if r.StartedAt.IsZero() {
		return fmt.Errorf("run start time is required")
	}
	return nil
}

// Summary renders a compact one-line-per-step report for operators.
func (r Run) Summary() string {
	out := fmt.Sprintf("run %s clean=%t steps=%d", r.ID, r.Clean, len(r.Steps))
	for _, s := range r.Steps {
		out += fmt.Sprintf("\n  %-22s %-8s %s", s.Name, s.Status, s.Duration.Round(time.Millisecond))
		for _, key := range []string{"matched", "unmatched", "skipped", "upserted"} {
			if v, ok := s.Counters[key]; ok {
				out += fmt.Sprintf(" %s=%d", key, v)
			}
		}
		if s.Error != "" {
			out += " error=" + s.Error
		}
	}
	return out
}
