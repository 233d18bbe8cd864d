package generator

import (
	"errors"
	"fmt"
)

// Kind classifies why a run was rejected.
type Kind int

const (
	// KindUsage is a malformed invocation: wrong argument count or shape.
	KindUsage Kind = iota
	// KindValidation is a violated file naming or directory convention.
	KindValidation
	// KindMissing is a required legacy flag that was not given.
	KindMissing
	// KindParse is a malformed or incomplete metadata trailer.
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindUsage:
		return "usage"
	case KindValidation:
		return "validation"
	case KindMissing:
		return "missing argument"
	case KindParse:
		return "parse"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Exit codes. The metadata contract reports every failure as ExitUsage.
const (
	ExitUsage      = -1
	ExitValidation = 1
	ExitMissing    = 2
)

// Error is returned for every rejected invocation. Code is the process exit
// status the command line should terminate with.
type Error struct {
	Kind Kind
	Code int
	Path string
	Msg  string
}

func (e *Error) Error() string {
	if e.Path != "" {
		return e.Path + ": " + e.Msg
	}
	return e.Msg
}

func usageErrorf(format string, args ...any) error {
	return &Error{Kind: KindUsage, Code: ExitUsage, Msg: fmt.Sprintf(format, args...)}
}

func headerError(kind Kind, path, msg string) error {
	return &Error{Kind: kind, Code: ExitUsage, Path: path, Msg: msg}
}

func validationErrorf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Code: ExitValidation, Msg: fmt.Sprintf(format, args...)}
}

func missingError(msg string) error {
	return &Error{Kind: KindMissing, Code: ExitMissing, Msg: msg}
}

// UsageErrorf builds a usage error for callers outside the package, such as
// the command line when it receives the wrong number of arguments.
func UsageErrorf(format string, args ...any) error {
	return usageErrorf(format, args...)
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// ExitCode maps err to a process exit status. Errors that are not *Error
// (I/O failures while writing, template errors) exit with 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 1
}
