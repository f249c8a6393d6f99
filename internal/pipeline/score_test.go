package pipeline

import (
	"testing"

	"github.com/netsecio/netsecd/internal/models"
)

func makeAlert(sev models.Severity, raw map[string]any) *models.NormalizedAlert {
	return &models.NormalizedAlert{Severity: sev, RawData: raw}
}

func TestScoreNoBoost(t *testing.T) {
	alert := makeAlert(models.SeverityLow, map[string]any{"port": 8080})
	if got := Score(alert, []int{22, 3389, 445}); got != models.SeverityLow {
		t.Errorf("Score = %q, want low", got)
	}
}

func TestScoreCriticalPortBoost(t *testing.T) {
	alert := makeAlert(models.SeverityLow, map[string]any{"port": 22})
	if got := Score(alert, []int{22, 3389, 445}); got != models.SeverityMedium {
		t.Errorf("Score = %q, want medium", got)
	}
}

func TestScoreClampAtCritical(t *testing.T) {
	alert := makeAlert(models.SeverityCritical, map[string]any{"port": 445})
	if got := Score(alert, []int{445}); got != models.SeverityCritical {
		t.Errorf("Score = %q, want critical", got)
	}
}

func TestIsCriticalPortAlert(t *testing.T) {
	critical := []int{22, 3389, 445}

	tests := []struct {
		name string
		raw  map[string]any
		want bool
	}{
		{"port field", map[string]any{"port": 22}, true},
		{"dst_port field", map[string]any{"dst_port": 3389}, true},
		{"dest_port field", map[string]any{"dest_port": 445}, true},
		{"non-critical port", map[string]any{"port": 8080}, false},
		{"no port field", map[string]any{"other": "value"}, false},
	}
	for _, tt := range tests {
		if got := IsCriticalPortAlert(makeAlert(models.SeverityInfo, tt.raw), critical); got != tt.want {
			t.Errorf("%s: IsCriticalPortAlert = %v, want %v", tt.name, got, tt.want)
		}
	}
}
