package framectx

import (
	"strings"

	"github.com/pvann/faultline/internal/assembly"
	"github.com/pvann/faultline/internal/capability"
	"github.com/pvann/faultline/internal/event"
	"github.com/pvann/faultline/internal/platform"
)

// Mode identifies which composition path a frame took.
type Mode string

const (
	// ModeStandard is the ordered panel set: errors, context lines,
	// variables, registers, assembly.
	ModeStandard Mode = "standard"

	// ModeMobileShortcut delegates the whole frame to the source-link
	// lookup collaborator.
	ModeMobileShortcut Mode = "mobile-shortcut"

	// ModeEmpty is a frame with no diagnostic content: nothing, or a single
	// placeholder panel.
	ModeEmpty Mode = "empty"
)

// Options are the caller-supplied inputs to one composition pass.
type Options struct {
	// Expanded is the caller-owned expansion state, read-only for this pass
	Expanded bool

	// Availability flags decide which panels exist. Zero value means
	// "derive from the frame" is NOT implied; callers wanting derived flags
	// use FrameAvailability.
	Availability Availability

	// EmptySourceNotation controls whether a contentless frame emits a
	// placeholder panel (true) or nothing (false)
	EmptySourceNotation bool

	// EmptyNotice is the markdown text of the placeholder panel
	EmptyNotice string

	// HasComponents is true when the caller supplied at least one external
	// UI component for this frame
	HasComponents bool

	// Capabilities is the organization's enabled-feature set
	Capabilities capability.Set

	// FirstPartyPrefixes is the deployment-specific set of Java package
	// prefixes considered first-party
	FirstPartyPrefixes []string
}

// Composition is the ordered panel list for one frame, plus the path taken.
type Composition struct {
	Mode     Mode          `json:"mode"`
	Platform platform.Kind `json:"-"`
	Panels   []Descriptor  `json:"panels"`
}

// Compose decides which diagnostic panels exist for the frame and in what
// order. Panel order is fixed and never changed after composition:
// errors, context lines, variables, registers, assembly.
func Compose(e *event.Event, f *event.Frame, opts Options) Composition {
	kind := platform.Classify(e.Platform, f.Module, opts.FirstPartyPrefixes)

	// Mobile frames delegate rendering to the source-link collaborator,
	// except third-party Java frames, which fall through to standard
	// composition below.
	if kind.TakesLinkShortcut() {
		return Composition{
			Mode:     ModeMobileShortcut,
			Platform: kind,
			Panels: []Descriptor{{
				Kind:       KindSourceLink,
				Fallback:   FallbackOmit,
				SourceLink: &SourceLinkPanel{Ref: lookupRef(f)},
			}},
		}
	}

	// A non-mobile frame with no diagnostic content renders nothing, or a
	// single placeholder, per the caller's notation flag.
	if !opts.Availability.Any() && !kind.IsMobile() {
		c := Composition{Mode: ModeEmpty, Platform: kind}
		if opts.EmptySourceNotation {
			c.Panels = []Descriptor{{
				Kind:        KindPlaceholder,
				Fallback:    FallbackOmit,
				Placeholder: &PlaceholderPanel{Notice: opts.EmptyNotice},
			}}
		}
		return c
	}

	c := Composition{Mode: ModeStandard, Platform: kind}

	if len(f.Errors) > 0 {
		c.Panels = append(c.Panels, Descriptor{
			Kind:     KindErrors,
			Fallback: FallbackOmit,
			Errors:   &ErrorsPanel{Text: strings.Join(f.Errors, "\n")},
		})
	}

	if opts.Availability.Source {
		c.Panels = append(c.Panels, linesDescriptor(f, opts))
	}

	if opts.Availability.Vars {
		vars := f.Vars
		if vars == nil {
			vars = map[string]any{}
		}
		c.Panels = append(c.Panels, Descriptor{
			Kind:      KindVariables,
			Fallback:  FallbackOmit,
			Variables: &VariablesPanel{Vars: vars},
		})
	}

	if opts.Availability.Registers {
		c.Panels = append(c.Panels, Descriptor{
			Kind:      KindRegisters,
			Fallback:  FallbackOmit,
			Registers: &RegistersPanel{Registers: f.Registers, Arch: e.DeviceArch()},
		})
	}

	if opts.Availability.Assembly {
		// An unparseable module string means absent, not an error: the
		// assembly panel is simply omitted.
		if d := assembly.Parse(f.Module); d != nil {
			c.Panels = append(c.Panels, Descriptor{
				Kind:     KindAssembly,
				Fallback: FallbackOmit,
				Assembly: &AssemblyPanel{Descriptor: d, AbsPath: f.AbsPath},
			})
		}
	}

	return c
}

// linesDescriptor builds the context-lines panel: the selected line subset
// with per-line inline-element flags. The frame-level eligibility predicate
// is evaluated once and combined per line with the active-line check.
func linesDescriptor(f *event.Frame, opts Options) Descriptor {
	selected := SelectLines(f.Context, f.Lineno, opts.Expanded)
	eligible := SourceLinkEligible(f, opts.Expanded, opts.Capabilities)

	entries := make([]LineEntry, 0, len(selected))
	for _, line := range selected {
		active := line.Lineno == f.Lineno
		entries = append(entries, LineEntry{
			Lineno:       line.Lineno,
			Text:         line.Text,
			Active:       active,
			OpenInTool:   active && opts.HasComponents,
			LinkEligible: active && eligible,
		})
	}

	return Descriptor{
		Kind:     KindContextLines,
		Fallback: FallbackOmit,
		Lines: &LinesPanel{
			StartLine: StartLine(selected, opts.Expanded),
			Entries:   entries,
		},
	}
}

// lookupRef picks the lookup key for the mobile shortcut: the active line's
// text when the context window contains it, otherwise the function name.
func lookupRef(f *event.Frame) string {
	for _, line := range f.Context {
		if line.Lineno == f.Lineno && strings.TrimSpace(line.Text) != "" {
			return line.Text
		}
	}
	return f.Function
}
