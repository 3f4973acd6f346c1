// Package fatal implements the assertion discipline of the allocator core.
//
// A failed check is a programmer error: the message and the captured call
// stack are logged at error level, then the goroutine panics with a *Failure.
// Nothing in corekit recovers from a Failure; tests use Catch to observe one.
package fatal

import (
	"fmt"
	"runtime/debug"

	"github.com/joshuapare/corekit/internal/logger"
)

// Failure is the panic value raised by a failed assertion.
type Failure struct {
	Msg   string
	Stack string
}

func (f *Failure) Error() string {
	return "assertion failed: " + f.Msg
}

// Check fails with the formatted message when cond is false.
//
// Arguments are boxed even when cond holds; hot paths should test the
// condition themselves and call Failf.
func Check(cond bool, format string, args ...any) {
	if !cond {
		Failf(format, args...)
	}
}

// Failf logs the message with the current stack and panics.
func Failf(format string, args ...any) {
	f := &Failure{
		Msg:   fmt.Sprintf(format, args...),
		Stack: string(debug.Stack()),
	}
	logger.Error("assertion failed", "msg", f.Msg, "stack", f.Stack)
	panic(f)
}

// Catch runs fn and returns the Failure it raised, or nil when fn returned
// normally. Panics that are not a *Failure are propagated.
func Catch(fn func()) (failure *Failure) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		f, ok := r.(*Failure)
		if !ok {
			panic(r)
		}
		failure = f
	}()
	fn()
	return nil
}
