package delivery

import "testing"

func TestResultOutcome(t *testing.T) {
	cases := []struct {
		name   string
		result Result
		want   Outcome
	}{
		{"no targets", Result{Total: 0}, OutcomeFailed},
		{"all failed", Result{Total: 2, Success: 0, Failed: 2}, OutcomeFailed},
		{"all succeeded", Result{Total: 2, Success: 2, Failed: 0}, OutcomeOK},
		{"partial", Result{Total: 2, Success: 1, Failed: 1}, OutcomePartial},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.result.Outcome(); got != c.want {
				t.Errorf("Outcome() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestDispatchNoTargets(t *testing.T) {
	result := Dispatch(nil, "subject", "body", SeverityInfo)
	if result.Total != 0 {
		t.Fatalf("Total = %d, want 0", result.Total)
	}
	if result.Outcome() != OutcomeFailed {
		t.Fatalf("Outcome() = %v, want OutcomeFailed for zero targets", result.Outcome())
	}
}

func TestSeverityPriority(t *testing.T) {
	cases := []struct {
		severity Severity
		want     string
	}{
		{SeverityInfo, "3"},
		{SeverityWarning, "4"},
		{SeverityCritical, "5"},
		{Severity("unknown"), "3"},
	}
	for _, c := range cases {
		if got := c.severity.priority(); got != c.want {
			t.Errorf("%s.priority() = %q, want %q", c.severity, got, c.want)
		}
	}
}
