package framectx

import (
	"github.com/pvann/faultline/internal/capability"
	"github.com/pvann/faultline/internal/event"
)

// SourceLinkEligible reports whether the frame qualifies for per-line
// source-link lookups: an in-app frame with a filename, in expanded view,
// for an organization with the stacktrace-link capability. The composer
// combines this frame-level predicate with per-line "is this the active
// line"; inactive context lines are never eligible.
func SourceLinkEligible(f *event.Frame, expanded bool, caps capability.Set) bool {
	if caps == nil {
		caps = capability.None
	}
	return f.InApp &&
		f.Filename != "" &&
		expanded &&
		caps.Includes(capability.StacktraceLink)
}
