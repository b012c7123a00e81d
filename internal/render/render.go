package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"sort"

	"github.com/yuin/goldmark"

	"github.com/pvann/faultline/internal/framectx"
)

// Panel templates. Each is executed inside its own isolation boundary, so a
// template fault in one panel never hides its siblings.
var (
	errorsTmpl = template.Must(template.New("errors").Parse(
		`<div class="panel panel-errors"><pre>{{.Text}}</pre></div>`))

	lineTmpl = template.Must(template.New("line").Parse(
		`<li class="ctx-line{{if .Entry.Active}} active{{end}}" data-lineno="{{.Entry.Lineno}}"><pre>{{.Entry.Text}}</pre>{{.Inline}}</li>`))

	openInToolTmpl = template.Must(template.New("open-in-tool").Parse(
		`<span class="open-in-tool" data-lineno="{{.Lineno}}">open in external tool</span>`))

	linkPendingTmpl = template.Must(template.New("link-pending").Parse(
		`<span class="source-link" data-lineno="{{.Lineno}}" data-pending="true">&hellip;</span>`))

	kvTmpl = template.Must(template.New("kv").Parse(
		`<div class="panel panel-{{.Class}}"{{if .Arch}} data-arch="{{.Arch}}"{{end}}><table>{{range .Rows}}<tr><th>{{.Key}}</th><td>{{.Value}}</td></tr>{{end}}</table></div>`))

	assemblyTmpl = template.Must(template.New("assembly").Parse(
		`<div class="panel panel-assembly"><code>{{.Descriptor}}</code>{{if .AbsPath}} <span class="path">{{.AbsPath}}</span>{{end}}</div>`))

	frameLinkTmpl = template.Must(template.New("frame-link").Parse(
		`<div class="panel panel-frame-link" data-ref="{{.Ref}}" data-pending="true">&hellip;</div>`))
)

// RenderedPanel is one materialized panel of a frame.
type RenderedPanel struct {
	Kind PanelKind `json:"kind"`

	// HTML is the rendered fragment; empty when the panel was omitted
	HTML template.HTML `json:"html"`

	// Omitted marks a panel whose rendering faulted and was substituted
	// with nothing
	Omitted bool `json:"omitted,omitempty"`
}

// PanelKind aliases the composition kind tag for callers that only import
// this package.
type PanelKind = framectx.PanelKind

// Renderer materializes composed panels as HTML fragments with per-panel
// fault isolation. Safe for concurrent use.
type Renderer struct {
	diag Diagnostics
}

// New creates a Renderer. A nil diagnostics sink defaults to LogDiagnostics.
func New(diag Diagnostics) *Renderer {
	if diag == nil {
		diag = LogDiagnostics{}
	}
	return &Renderer{diag: diag}
}

// Composition renders every panel of a composition in order. A fault in one
// panel omits that panel only.
func (r *Renderer) Composition(c framectx.Composition) []RenderedPanel {
	out := make([]RenderedPanel, 0, len(c.Panels))
	for _, d := range c.Panels {
		out = append(out, r.Panel(d))
	}
	return out
}

// Panel renders one panel descriptor inside its isolation boundary.
func (r *Renderer) Panel(d framectx.Descriptor) RenderedPanel {
	html := Isolate(string(d.Kind), d.Fallback, r.diag, func() (template.HTML, error) {
		return r.panelHTML(d)
	})
	return RenderedPanel{
		Kind:    d.Kind,
		HTML:    html,
		Omitted: html == "",
	}
}

// panelHTML dispatches on the panel kind. Payload fields are not nil-checked:
// a descriptor whose payload is missing is an internal fault, and the
// isolation boundary around this call is the contract for it.
func (r *Renderer) panelHTML(d framectx.Descriptor) (template.HTML, error) {
	switch d.Kind {
	case framectx.KindErrors:
		return execute(errorsTmpl, d.Errors)
	case framectx.KindContextLines:
		return r.linesHTML(d.Lines)
	case framectx.KindVariables:
		return varsHTML(d.Variables)
	case framectx.KindRegisters:
		return registersHTML(d.Registers)
	case framectx.KindAssembly:
		return execute(assemblyTmpl, d.Assembly)
	case framectx.KindSourceLink:
		return execute(frameLinkTmpl, d.SourceLink)
	case framectx.KindPlaceholder:
		return placeholderHTML(d.Placeholder)
	default:
		return "", fmt.Errorf("unknown panel kind %q", d.Kind)
	}
}

// linesHTML renders the context-lines panel. Inline elements on the active
// line get their own mini-fallback boundaries: a failed inline widget must
// never blank the source lines.
func (r *Renderer) linesHTML(p *framectx.LinesPanel) (template.HTML, error) {
	var buf bytes.Buffer
	if p.StartLine > 0 {
		fmt.Fprintf(&buf, `<ol class="panel panel-context" start="%d">`, p.StartLine)
	} else {
		buf.WriteString(`<ol class="panel panel-context">`)
	}

	for _, entry := range p.Entries {
		var inline template.HTML
		if entry.OpenInTool {
			inline += Isolate("open-in-tool", framectx.FallbackMini, r.diag, func() (template.HTML, error) {
				return execute(openInToolTmpl, entry)
			})
		}
		if entry.LinkEligible {
			inline += Isolate("line-source-link", framectx.FallbackMini, r.diag, func() (template.HTML, error) {
				return execute(linkPendingTmpl, entry)
			})
		}

		line, err := execute(lineTmpl, struct {
			Entry  framectx.LineEntry
			Inline template.HTML
		}{entry, inline})
		if err != nil {
			return "", err
		}
		buf.WriteString(string(line))
	}

	buf.WriteString(`</ol>`)
	return template.HTML(buf.String()), nil
}

type kvRow struct {
	Key   string
	Value string
}

type kvData struct {
	Class string
	Arch  string
	Rows  []kvRow
}

func varsHTML(p *framectx.VariablesPanel) (template.HTML, error) {
	rows := make([]kvRow, 0, len(p.Vars))
	for name, value := range p.Vars {
		rows = append(rows, kvRow{Key: name, Value: formatValue(value)})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })
	return execute(kvTmpl, kvData{Class: "variables", Rows: rows})
}

func registersHTML(p *framectx.RegistersPanel) (template.HTML, error) {
	rows := make([]kvRow, 0, len(p.Registers))
	for name, value := range p.Registers {
		rows = append(rows, kvRow{Key: name, Value: value})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })
	return execute(kvTmpl, kvData{Class: "registers", Arch: p.Arch, Rows: rows})
}

// placeholderHTML converts the markdown notice to HTML.
func placeholderHTML(p *framectx.PlaceholderPanel) (template.HTML, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(p.Notice), &buf); err != nil {
		return "", err
	}
	return template.HTML(`<div class="panel panel-placeholder">` + buf.String() + `</div>`), nil
}

// formatValue renders a captured variable value for display. Strings pass
// through; everything else gets compact JSON, falling back to fmt.
func formatValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// execute runs a template into a buffer.
func execute(t *template.Template, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
