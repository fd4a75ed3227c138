package utils

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/Nephrolytics-ai/polyglot-translate/pkg/logging"
)

// ContainsErrorSubstring checks if the error or any of its wrapped errors contain the target substring.
func ContainsErrorSubstring(err error, target string) bool {
	for err != nil {
		if strings.Contains(err.Error(), target) {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

func WrapIfNotNil(err error, context ...string) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%s: %w", prefix(callerName(2), context), err)
}

// WrapWithKind tags err with one of the model error kinds so callers can match it
// with errors.Is while keeping the original cause in the chain.
// A nil err yields nil; an err that already carries kind is only prefixed.
func WrapWithKind(kind error, err error, context ...string) error {
	if err == nil {
		return nil
	}

	p := prefix(callerName(2), context)
	if kind == nil || errors.Is(err, kind) {
		return fmt.Errorf("%s: %w", p, err)
	}
	return fmt.Errorf("%s: %w: %w", p, kind, err)
}

func callerName(skip int) string {
	if pc, _, _, ok := runtime.Caller(skip); ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			return fn.Name()
		}
	}
	return "unknown"
}

func prefix(caller string, context []string) string {
	parts := make([]string, 0, 1+len(context))
	parts = append(parts, caller)
	parts = append(parts, context...)
	return strings.Join(parts, " - ")
}

func PrintStack(title string, log logging.Logger) {
	log.Errorf(" %s Stack trace:", title)
	// skip = 2 to ignore printStack and its caller (defer wrapper)
	for i := 2; ; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		fn := runtime.FuncForPC(pc)
		log.Errorf("     *** %s (%s:%d)", fn.Name(), file, line)
	}
}
