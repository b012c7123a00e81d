package event

import (
	"strings"
	"testing"
)

func TestDecode_ExceptionStacktrace(t *testing.T) {
	payload := `{
		"platform": "python",
		"exception": {"values": [{
			"type": "ValueError",
			"value": "bad input",
			"stacktrace": {"frames": [{
				"function": "process",
				"filename": "worker.py",
				"abs_path": "/srv/app/worker.py",
				"in_app": true,
				"lineno": 42,
				"pre_context": ["a", "b"],
				"context_line": "c",
				"post_context": ["d"],
				"vars": {"job_id": "J-1"}
			}]}
		}]}
	}`

	e, err := Decode(strings.NewReader(payload))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if e.Platform != "python" {
		t.Errorf("Platform = %q, want %q", e.Platform, "python")
	}
	if e.Message != "ValueError: bad input" {
		t.Errorf("Message = %q, want %q", e.Message, "ValueError: bad input")
	}
	if len(e.Frames) != 1 {
		t.Fatalf("len(Frames) = %d, want 1", len(e.Frames))
	}

	f := e.Frames[0]
	if f.Lineno != 42 {
		t.Errorf("Lineno = %d, want 42", f.Lineno)
	}
	want := []ContextLine{{40, "a"}, {41, "b"}, {42, "c"}, {43, "d"}}
	if len(f.Context) != len(want) {
		t.Fatalf("len(Context) = %d, want %d", len(f.Context), len(want))
	}
	for i, line := range want {
		if f.Context[i] != line {
			t.Errorf("Context[%d] = %v, want %v", i, f.Context[i], line)
		}
	}
	if !f.HasContextVars() {
		t.Error("HasContextVars() = false, want true")
	}
}

func TestDecode_ContextPairs(t *testing.T) {
	payload := `{
		"platform": "javascript",
		"frames": [{
			"filename": "app.js",
			"lineno": 10,
			"context": [[9, "let a;"], [10, "a.b();"], [11, "done();"]]
		}]
	}`

	e, err := Decode(strings.NewReader(payload))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(e.Frames) != 1 {
		t.Fatalf("len(Frames) = %d, want 1", len(e.Frames))
	}

	f := e.Frames[0]
	if len(f.Context) != 3 {
		t.Fatalf("len(Context) = %d, want 3", len(f.Context))
	}
	if f.Context[1].Lineno != 10 || f.Context[1].Text != "a.b();" {
		t.Errorf("Context[1] = %v, want {10 a.b();}", f.Context[1])
	}
}

func TestDecode_StacktraceRegistersCopiedToFrames(t *testing.T) {
	payload := `{
		"platform": "cocoa",
		"stacktrace": {
			"registers": {"x0": "0x1", "pc": "0xdead"},
			"frames": [
				{"function": "main", "lineno": 1},
				{"function": "crash", "lineno": 2, "registers": {"pc": "0xbeef"}}
			]
		}
	}`

	e, err := Decode(strings.NewReader(payload))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(e.Frames) != 2 {
		t.Fatalf("len(Frames) = %d, want 2", len(e.Frames))
	}

	// Frame without its own registers inherits the stacktrace-level set.
	if e.Frames[0].Registers["pc"] != "0xdead" {
		t.Errorf("Frames[0].Registers[pc] = %q, want %q", e.Frames[0].Registers["pc"], "0xdead")
	}
	// Frame with its own registers keeps them.
	if e.Frames[1].Registers["pc"] != "0xbeef" {
		t.Errorf("Frames[1].Registers[pc] = %q, want %q", e.Frames[1].Registers["pc"], "0xbeef")
	}
}

func TestDecode_MissingPlatform(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"frames": []}`))
	if err == nil {
		t.Error("Decode should fail without platform")
	}
}

func TestDecode_MalformedContextPair(t *testing.T) {
	payload := `{"platform": "python", "frames": [{"lineno": 1, "context": [[1, "a", "extra"]]}]}`
	_, err := Decode(strings.NewReader(payload))
	if err == nil {
		t.Error("Decode should fail on a context pair with 3 elements")
	}
}

func TestDeviceArch(t *testing.T) {
	tests := []struct {
		name     string
		contexts map[string]map[string]any
		want     string
	}{
		{"present", map[string]map[string]any{"device": {"arch": "arm64"}}, "arm64"},
		{"no device context", map[string]map[string]any{"os": {"name": "iOS"}}, ""},
		{"no arch key", map[string]map[string]any{"device": {"model": "iPhone"}}, ""},
		{"non-string arch", map[string]map[string]any{"device": {"arch": 64}}, ""},
		{"nil contexts", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Event{Contexts: tt.contexts}
			if got := e.DeviceArch(); got != tt.want {
				t.Errorf("DeviceArch() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFrameAvailability(t *testing.T) {
	f := Frame{}
	if f.HasContextSource() || f.HasContextVars() || f.HasContextRegisters() || f.HasAssembly() {
		t.Error("empty frame should have no availability")
	}

	f = Frame{
		Filename:  "a.c",
		Context:   []ContextLine{{1, "x"}},
		Vars:      map[string]any{"n": 1},
		Registers: map[string]string{"pc": "0x0"},
		Module:    "libfoo",
	}
	if !f.HasContextSource() || !f.HasContextVars() || !f.HasContextRegisters() || !f.HasAssembly() {
		t.Error("fully populated frame should have all availability")
	}

	// A context window without a filename is not a usable source panel.
	f = Frame{Context: []ContextLine{{1, "x"}}}
	if f.HasContextSource() {
		t.Error("HasContextSource() = true without filename, want false")
	}
}
