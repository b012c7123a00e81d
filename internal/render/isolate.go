package render

import (
	"html/template"
	"log"

	"github.com/pvann/faultline/internal/framectx"
)

// miniFallback is the compact substitute for a per-line inline element that
// failed to render. It must never blank the source line it sits on.
const miniFallback = template.HTML(`<span class="inline-fallback" title="element failed to render">&#8942;</span>`)

// Diagnostics receives panel faults caught at an isolation boundary.
// Implementations must not panic.
type Diagnostics interface {
	// ReportFault is called with the panel (or element) scope and the
	// recovered value or error.
	ReportFault(scope string, cause any)
}

// LogDiagnostics reports faults through the standard logger.
type LogDiagnostics struct{}

// ReportFault implements Diagnostics.
func (LogDiagnostics) ReportFault(scope string, cause any) {
	log.Printf("render fault in %s: %v", scope, cause)
}

// Isolate runs op inside a fault boundary. A panic or error inside op is
// reported to diag and replaced per policy: FallbackOmit substitutes nothing,
// FallbackMini substitutes a compact inline placeholder. Sibling content is
// never affected.
func Isolate(scope string, policy framectx.FallbackPolicy, diag Diagnostics, op func() (template.HTML, error)) (out template.HTML) {
	if diag == nil {
		diag = LogDiagnostics{}
	}

	fallback := template.HTML("")
	if policy == framectx.FallbackMini {
		fallback = miniFallback
	}

	defer func() {
		if r := recover(); r != nil {
			diag.ReportFault(scope, r)
			out = fallback
		}
	}()

	html, err := op()
	if err != nil {
		diag.ReportFault(scope, err)
		return fallback
	}
	return html
}
