package uregex

import "github.com/coregx/uregex/compiler"

// ErrorCode is the closed enumeration of compile-time failure kinds spec §7
// defines, re-exported from the compiler package so callers never need to
// import it directly.
type ErrorCode = compiler.ErrorCode

// The compile-time error kinds spec §7 enumerates.
const (
	MismatchedParen         = compiler.MismatchedParen
	RuleSyntax              = compiler.RuleSyntax
	NumberTooBig            = compiler.NumberTooBig
	MaxLtMin                = compiler.MaxLtMin
	BadInterval             = compiler.BadInterval
	BadEscapeSequence       = compiler.BadEscapeSequence
	PropertySyntax          = compiler.PropertySyntax
	InvalidFlag             = compiler.InvalidFlag
	InvalidCaptureGroupName = compiler.InvalidCaptureGroupName
	InvalidRange            = compiler.InvalidRange
	InvalidBackRef          = compiler.InvalidBackRef
	MissingCloseBracket     = compiler.MissingCloseBracket
	LookBehindLimit         = compiler.LookBehindLimit
	Unimplemented           = compiler.Unimplemented
	PatternTooBig           = compiler.PatternTooBig
	InternalError           = compiler.InternalError
)

// CompileError reports a pattern compilation failure, re-exporting the
// compiler package's *Error so package uregex is the only import most callers
// need. Use errors.As to recover the ErrorCode and position context.
type CompileError = compiler.Error

// ErrInvalidState is returned by AppendReplacement when it is called without
// a prior successful match attempt, spec §7's INVALID_STATE. Group, Start
// and End do not return it; they report "" or -1 instead.
type ErrInvalidState struct{ Op string }

func (e *ErrInvalidState) Error() string {
	return "uregex: " + e.Op + " called without a prior successful match"
}
