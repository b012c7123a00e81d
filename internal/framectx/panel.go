package framectx

import (
	"github.com/pvann/faultline/internal/assembly"
	"github.com/pvann/faultline/internal/event"
)

// PanelKind tags one diagnostic panel of a frame.
type PanelKind string

const (
	KindErrors       PanelKind = "errors"
	KindContextLines PanelKind = "context-lines"
	KindVariables    PanelKind = "variables"
	KindRegisters    PanelKind = "registers"
	KindAssembly     PanelKind = "assembly"
	KindSourceLink   PanelKind = "source-link"
	KindPlaceholder  PanelKind = "placeholder"
)

// FallbackPolicy controls what an isolation boundary substitutes when
// rendering a panel (or an inline element) faults.
type FallbackPolicy int

const (
	// FallbackOmit substitutes nothing. Used for whole panels and the
	// frame-level source-link attempt: a failed lookup must vanish silently.
	FallbackOmit FallbackPolicy = iota

	// FallbackMini substitutes a compact inline placeholder. Used for
	// per-line elements so a failed inline widget never blanks the source
	// line it sits on.
	FallbackMini
)

// Availability carries the caller-supplied panel-availability flags.
type Availability struct {
	Source    bool `json:"source"`
	Vars      bool `json:"vars"`
	Registers bool `json:"registers"`
	Assembly  bool `json:"assembly"`
}

// Any reports whether at least one flag is set.
func (a Availability) Any() bool {
	return a.Source || a.Vars || a.Registers || a.Assembly
}

// FrameAvailability derives default availability flags from the frame itself.
// Callers may override individual flags before composing.
func FrameAvailability(f *event.Frame) Availability {
	return Availability{
		Source:    f.HasContextSource(),
		Vars:      f.HasContextVars(),
		Registers: f.HasContextRegisters(),
		Assembly:  f.HasAssembly(),
	}
}

// Descriptor is one composed panel. Exactly one payload field matching Kind
// is set. Descriptors are created fresh per render pass and never reordered
// after composition.
type Descriptor struct {
	Kind     PanelKind      `json:"kind"`
	Fallback FallbackPolicy `json:"-"`

	Errors      *ErrorsPanel      `json:"errors,omitempty"`
	Lines       *LinesPanel       `json:"lines,omitempty"`
	Variables   *VariablesPanel   `json:"variables,omitempty"`
	Registers   *RegistersPanel   `json:"registers,omitempty"`
	Assembly    *AssemblyPanel    `json:"assembly,omitempty"`
	SourceLink  *SourceLinkPanel  `json:"source_link,omitempty"`
	Placeholder *PlaceholderPanel `json:"placeholder,omitempty"`
}

// ErrorsPanel shows frame-level processing errors.
type ErrorsPanel struct {
	// Text is the error strings joined for display
	Text string `json:"text"`
}

// LinesPanel shows the selected context lines.
type LinesPanel struct {
	// StartLine is the line-numbering origin when expanded (0 when collapsed
	// or when the selection is empty)
	StartLine int `json:"start_line,omitempty"`

	Entries []LineEntry `json:"entries"`
}

// LineEntry is one rendered source line plus its inline elements.
type LineEntry struct {
	Lineno int    `json:"lineno"`
	Text   string `json:"text"`

	// Active marks the frame's active line
	Active bool `json:"active,omitempty"`

	// OpenInTool attaches the "open in external tool" element (active line
	// only, and only when the caller supplied UI components for the frame)
	OpenInTool bool `json:"open_in_tool,omitempty"`

	// LinkEligible marks the line for a source-link lookup attempt
	LinkEligible bool `json:"link_eligible,omitempty"`
}

// VariablesPanel shows captured local variables.
type VariablesPanel struct {
	Vars map[string]any `json:"vars"`
}

// RegistersPanel shows CPU register state.
type RegistersPanel struct {
	Registers map[string]string `json:"registers"`

	// Arch is the device architecture from event contexts, when present
	Arch string `json:"arch,omitempty"`
}

// AssemblyPanel shows the parsed binary symbol location.
type AssemblyPanel struct {
	Descriptor *assembly.Descriptor `json:"descriptor"`

	// AbsPath is the frame's absolute file path, shown alongside the symbol
	AbsPath string `json:"abs_path,omitempty"`
}

// SourceLinkPanel delegates the whole frame to the source-link lookup
// collaborator (the mobile shortcut path).
type SourceLinkPanel struct {
	// Ref is the lookup key: the active line's text when available,
	// otherwise the function name
	Ref string `json:"ref"`
}

// PlaceholderPanel is the "no details available" notice for frames with no
// diagnostic content.
type PlaceholderPanel struct {
	// Notice is markdown text, rendered by the presentation layer
	Notice string `json:"notice"`
}
