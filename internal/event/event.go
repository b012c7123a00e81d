package event

// Frame represents one stack entry of a captured error event.
// All fields other than Lineno are optional in the capture protocol;
// absence is a normal condition, not an error.
type Frame struct {
	// Function is the name of the function activation, if symbolicated
	Function string `json:"function,omitempty"`

	// Filename is the basename of the source file
	Filename string `json:"filename,omitempty"`

	// AbsPath is the absolute path of the source file
	AbsPath string `json:"abs_path,omitempty"`

	// Module is the package/module identifier (also used for assembly lookup)
	Module string `json:"module,omitempty"`

	// InApp marks frames belonging to the user's own code
	InApp bool `json:"in_app,omitempty"`

	// Lineno is the active line number at the time of the fault
	Lineno int `json:"lineno,omitempty"`

	// Context is the fetched source window around Lineno, in file order
	Context []ContextLine `json:"context,omitempty"`

	// Vars maps local variable names to their captured values
	Vars map[string]any `json:"vars,omitempty"`

	// Registers maps CPU register names to their captured values
	Registers map[string]string `json:"registers,omitempty"`

	// Errors lists frame-level processing errors attached during capture
	Errors []string `json:"errors,omitempty"`
}

// ContextLine is one (line number, source text) pair of a frame's context window.
type ContextLine struct {
	Lineno int    `json:"lineno"`
	Text   string `json:"text"`
}

// Event represents one captured error occurrence.
// Immutable snapshot for the duration of a render pass.
type Event struct {
	// ID is a ULID assigned at ingest time
	ID string `json:"id,omitempty"`

	// Platform identifies the originating runtime (e.g. "python", "cocoa", "java")
	Platform string `json:"platform"`

	// Message is the top-level error message
	Message string `json:"message,omitempty"`

	// Annotations holds optional markdown notes attached to the event
	Annotations []string `json:"annotations,omitempty"`

	// Contexts is the nested context map (device architecture lives in
	// contexts.device.arch when present)
	Contexts map[string]map[string]any `json:"contexts,omitempty"`

	// Frames is the flattened stack of the primary exception, oldest first
	Frames []Frame `json:"frames"`

	// Received is the Unix timestamp when the event was ingested
	Received int64 `json:"received,omitempty"`
}

// DeviceArch returns contexts.device.arch, or "" when absent.
func (e *Event) DeviceArch() string {
	device, ok := e.Contexts["device"]
	if !ok {
		return ""
	}
	arch, ok := device["arch"].(string)
	if !ok {
		return ""
	}
	return arch
}

// HasContextSource reports whether the frame carries a usable source window:
// a filename on a platform that ships source, with at least one context line.
func (f *Frame) HasContextSource() bool {
	return f.Filename != "" && len(f.Context) > 0
}

// HasContextVars reports whether the frame carries captured local variables.
func (f *Frame) HasContextVars() bool {
	return len(f.Vars) > 0
}

// HasContextRegisters reports whether the frame carries register state.
func (f *Frame) HasContextRegisters() bool {
	return len(f.Registers) > 0
}

// HasAssembly reports whether the frame carries a module identifier that may
// parse into an assembly descriptor.
func (f *Frame) HasAssembly() bool {
	return f.Module != ""
}
