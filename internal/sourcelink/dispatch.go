package sourcelink

import (
	"context"
	"crypto/rand"
	"log"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// FaultReporter receives lookup failures. render.LogDiagnostics satisfies it.
type FaultReporter interface {
	ReportFault(scope string, cause any)
}

// logReporter is the default sink.
type logReporter struct{}

func (logReporter) ReportFault(scope string, cause any) {
	log.Printf("lookup fault in %s: %v", scope, cause)
}

// Result is delivered to the dispatch callback when a lookup settles.
type Result struct {
	TaskID  string
	Request Request

	// Link is nil when the lookup failed; the affected sub-element is then
	// simply omitted
	Link *Link
	Err  error
}

// Dispatcher runs source-link lookups fire-and-forget relative to the render
// that spawned them. Lookups for different lines or frames are independent
// and may settle in any order.
type Dispatcher struct {
	resolver Resolver
	diag     FaultReporter
	wg       sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. A nil reporter defaults to the
// standard logger.
func NewDispatcher(resolver Resolver, diag FaultReporter) *Dispatcher {
	if diag == nil {
		diag = logReporter{}
	}
	return &Dispatcher{resolver: resolver, diag: diag}
}

// Dispatch spawns one lookup task and returns its ULID task ID immediately.
// The callback runs on the task goroutine once the lookup settles, and is
// skipped entirely if ctx was cancelled first: a result must never update a
// discarded render. Resolver failures are reported and delivered with a nil
// Link; they never propagate.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request, done func(Result)) string {
	id := newTaskID()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.diag.ReportFault("source-link lookup "+id, r)
			}
		}()

		link, err := d.resolver.Resolve(ctx, req)

		if ctx.Err() != nil {
			// The render was discarded while we were resolving.
			return
		}
		if err != nil {
			d.diag.ReportFault("source-link lookup "+id, err)
		}
		if done != nil {
			done(Result{TaskID: id, Request: req, Link: link, Err: err})
		}
	}()

	return id
}

// Wait blocks until every spawned task has settled.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// newTaskID generates a ULID for task correlation in diagnostics.
func newTaskID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		// ULID generation only fails if entropy is exhausted; fall back to
		// a timestamp-only ID rather than failing the lookup.
		return ulid.Make().String()
	}
	return id.String()
}
