package bridge

import (
	"context"
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	lterrors "github.com/matzehuels/layouttester/pkg/errors"
)

// ScriptFault is an error raised inside the scripting runtime.
type ScriptFault struct {
	Entry     string // stage or module being executed
	Message   string
	Traceback string
	Cause     error
}

func (f *ScriptFault) Error() string {
	if f.Entry == "" {
		return f.Message
	}
	return fmt.Sprintf("%s: %s", f.Entry, f.Message)
}

func (f *ScriptFault) Unwrap() error { return f.Cause }

// ErrorCode classifies the fault. Faults caused by an expired deadline are
// reported as timeouts.
func (f *ScriptFault) ErrorCode() lterrors.Code {
	if errors.Is(f.Cause, context.DeadlineExceeded) || errors.Is(f.Cause, context.Canceled) {
		return lterrors.ErrCodeTimeout
	}
	return lterrors.ErrCodeScriptFault
}

// newFault converts an error returned by the Lua state.
func newFault(ctx context.Context, entry string, err error) *ScriptFault {
	f := &ScriptFault{Entry: entry, Message: err.Error(), Cause: err}
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) {
		if apiErr.Object != nil {
			f.Message = apiErr.Object.String()
		}
		f.Traceback = apiErr.StackTrace
		if apiErr.Cause != nil {
			f.Cause = apiErr.Cause
		}
	}
	if ctx != nil && ctx.Err() != nil {
		f.Cause = ctx.Err()
	}
	return f
}
