package framectx

import (
	"testing"

	"github.com/pvann/faultline/internal/capability"
	"github.com/pvann/faultline/internal/event"
)

func TestSourceLinkEligible(t *testing.T) {
	linked := capability.NewStaticSet(capability.StacktraceLink)
	eligibleFrame := event.Frame{InApp: true, Filename: "worker.py"}

	// Each condition of the conjunction must fail independently.
	tests := []struct {
		name     string
		frame    event.Frame
		expanded bool
		caps     capability.Set
		want     bool
	}{
		{"all conditions met", eligibleFrame, true, linked, true},
		{"not in-app", event.Frame{Filename: "worker.py"}, true, linked, false},
		{"no filename", event.Frame{InApp: true}, true, linked, false},
		{"collapsed", eligibleFrame, false, linked, false},
		{"missing capability", eligibleFrame, true, capability.NewStaticSet("weekly-digest"), false},
		{"empty capability set", eligibleFrame, true, capability.None, false},
		{"nil capability set", eligibleFrame, true, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SourceLinkEligible(&tt.frame, tt.expanded, tt.caps)
			if got != tt.want {
				t.Errorf("SourceLinkEligible() = %v, want %v", got, tt.want)
			}
		})
	}
}
