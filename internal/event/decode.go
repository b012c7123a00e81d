package event

import (
	"encoding/json"
	"fmt"
	"io"
)

// wireEvent is the JSON shape accepted at ingest time. The capture protocol
// nests frames under exception.values[].stacktrace; already-flattened
// payloads may put them at the top level instead.
type wireEvent struct {
	Platform    string                    `json:"platform"`
	Message     string                    `json:"message,omitempty"`
	Annotations []string                  `json:"annotations,omitempty"`
	Contexts    map[string]map[string]any `json:"contexts,omitempty"`
	Exception   *wireException            `json:"exception,omitempty"`
	Stacktrace  *wireStacktrace           `json:"stacktrace,omitempty"`
	Frames      []wireFrame               `json:"frames,omitempty"`
}

type wireException struct {
	Values []wireExceptionValue `json:"values"`
}

type wireExceptionValue struct {
	Type       string          `json:"type,omitempty"`
	Value      string          `json:"value,omitempty"`
	Stacktrace *wireStacktrace `json:"stacktrace,omitempty"`
}

type wireStacktrace struct {
	Frames    []wireFrame       `json:"frames"`
	Registers map[string]string `json:"registers,omitempty"`
}

type wireFrame struct {
	Function    string            `json:"function,omitempty"`
	Filename    string            `json:"filename,omitempty"`
	AbsPath     string            `json:"abs_path,omitempty"`
	Module      string            `json:"module,omitempty"`
	InApp       bool              `json:"in_app,omitempty"`
	Lineno      int               `json:"lineno,omitempty"`
	Context     []wireContextLine `json:"context,omitempty"`
	PreContext  []string          `json:"pre_context,omitempty"`
	ContextLine *string           `json:"context_line,omitempty"`
	PostContext []string          `json:"post_context,omitempty"`
	Vars        map[string]any    `json:"vars,omitempty"`
	Registers   map[string]string `json:"registers,omitempty"`
	Errors      []string          `json:"errors,omitempty"`
}

// wireContextLine decodes the two-element [lineno, text] array form.
type wireContextLine struct {
	Lineno int
	Text   string
}

func (c *wireContextLine) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("context line must be a [lineno, text] pair, got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &c.Lineno); err != nil {
		return fmt.Errorf("context line number: %w", err)
	}
	if err := json.Unmarshal(pair[1], &c.Text); err != nil {
		return fmt.Errorf("context line text: %w", err)
	}
	return nil
}

func (c wireContextLine) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{c.Lineno, c.Text})
}

// Decode reads one event payload and normalizes it into an Event.
// Frames come from the first exception value carrying a stacktrace, falling
// back to a top-level stacktrace, then to top-level frames. Stacktrace-level
// registers are copied onto frames that have none of their own.
func Decode(r io.Reader) (*Event, error) {
	var w wireEvent
	dec := json.NewDecoder(r)
	if err := dec.Decode(&w); err != nil {
		return nil, err
	}
	if w.Platform == "" {
		return nil, fmt.Errorf("platform is required")
	}

	st := pickStacktrace(&w)
	frames := make([]Frame, 0)
	if st != nil {
		for _, wf := range st.Frames {
			frames = append(frames, flattenFrame(wf, st.Registers))
		}
	} else {
		for _, wf := range w.Frames {
			frames = append(frames, flattenFrame(wf, nil))
		}
	}

	e := &Event{
		Platform:    w.Platform,
		Message:     w.Message,
		Annotations: w.Annotations,
		Contexts:    w.Contexts,
		Frames:      frames,
	}
	if e.Message == "" && w.Exception != nil && len(w.Exception.Values) > 0 {
		v := w.Exception.Values[0]
		if v.Type != "" && v.Value != "" {
			e.Message = v.Type + ": " + v.Value
		} else if v.Value != "" {
			e.Message = v.Value
		} else {
			e.Message = v.Type
		}
	}
	return e, nil
}

// pickStacktrace returns the first exception stacktrace, or the top-level one.
func pickStacktrace(w *wireEvent) *wireStacktrace {
	if w.Exception != nil {
		for _, v := range w.Exception.Values {
			if v.Stacktrace != nil && len(v.Stacktrace.Frames) > 0 {
				return v.Stacktrace
			}
		}
	}
	if w.Stacktrace != nil && len(w.Stacktrace.Frames) > 0 {
		return w.Stacktrace
	}
	return nil
}

// flattenFrame converts a wire frame, building the context window from
// explicit [lineno, text] pairs when present, otherwise from
// pre_context/context_line/post_context around lineno.
func flattenFrame(wf wireFrame, stRegisters map[string]string) Frame {
	f := Frame{
		Function:  wf.Function,
		Filename:  wf.Filename,
		AbsPath:   wf.AbsPath,
		Module:    wf.Module,
		InApp:     wf.InApp,
		Lineno:    wf.Lineno,
		Vars:      wf.Vars,
		Registers: wf.Registers,
		Errors:    wf.Errors,
	}
	if f.Registers == nil && len(stRegisters) > 0 {
		f.Registers = stRegisters
	}

	if len(wf.Context) > 0 {
		f.Context = make([]ContextLine, 0, len(wf.Context))
		for _, c := range wf.Context {
			f.Context = append(f.Context, ContextLine{Lineno: c.Lineno, Text: c.Text})
		}
		return f
	}

	if wf.ContextLine == nil && len(wf.PreContext) == 0 && len(wf.PostContext) == 0 {
		return f
	}

	// Line numbers count backward from lineno across pre_context.
	n := wf.Lineno - len(wf.PreContext)
	for _, text := range wf.PreContext {
		f.Context = append(f.Context, ContextLine{Lineno: n, Text: text})
		n++
	}
	if wf.ContextLine != nil {
		f.Context = append(f.Context, ContextLine{Lineno: wf.Lineno, Text: *wf.ContextLine})
	}
	n = wf.Lineno + 1
	for _, text := range wf.PostContext {
		f.Context = append(f.Context, ContextLine{Lineno: n, Text: text})
		n++
	}
	return f
}
