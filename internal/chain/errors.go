package chain

import (
	"errors"
	"fmt"
	"strings"
)

// RevertError wraps a transaction submission or mined-but-reverted
// failure, decoding known selectors per spec.md §7 so the executor can
// log a useful reason instead of a raw hex blob.
type RevertError struct {
	Cause error
}

func (e *RevertError) Error() string {
	if sel := e.KnownSelector(); sel != "" {
		return fmt.Sprintf("%s: %s", sel, e.Cause)
	}
	return e.Cause.Error()
}

func (e *RevertError) Unwrap() error { return e.Cause }

// KnownSelector returns a human-readable name for a recognized revert
// selector embedded in the underlying error string, or "" if none is
// recognized. Notably SwapRequestParametersMismatch is a strong hint
// that the request has not yet been verified on the destination chain.
func (e *RevertError) KnownSelector() string {
	msg := strings.ToLower(e.Cause.Error())
	if strings.Contains(msg, strings.ToLower(swapRequestParametersMismatchSelector)) {
		return "SwapRequestParametersMismatch"
	}
	return ""
}

// IsRevert reports whether err is (or wraps) a RevertError.
func IsRevert(err error) bool {
	var re *RevertError
	return errors.As(err, &re)
}
