package compiler

import "fmt"

// ErrorCode is the closed enumeration of compile-time failure kinds from
// spec §7. Values are control-flow tags, not exceptions: every compiler
// function that can fail returns (..., *Error) rather than panicking.
type ErrorCode int

const (
	_ ErrorCode = iota
	MismatchedParen
	RuleSyntax
	NumberTooBig
	MaxLtMin
	BadInterval
	BadEscapeSequence
	PropertySyntax
	InvalidFlag
	InvalidCaptureGroupName
	InvalidRange
	InvalidBackRef
	MissingCloseBracket
	LookBehindLimit
	Unimplemented
	PatternTooBig
	InternalError
)

var codeNames = map[ErrorCode]string{
	MismatchedParen:         "MISMATCHED_PAREN",
	RuleSyntax:              "RULE_SYNTAX",
	NumberTooBig:            "NUMBER_TOO_BIG",
	MaxLtMin:                "MAX_LT_MIN",
	BadInterval:             "BAD_INTERVAL",
	BadEscapeSequence:       "BAD_ESCAPE_SEQUENCE",
	PropertySyntax:          "PROPERTY_SYNTAX",
	InvalidFlag:             "INVALID_FLAG",
	InvalidCaptureGroupName: "INVALID_CAPTURE_GROUP_NAME",
	InvalidRange:            "INVALID_RANGE",
	InvalidBackRef:          "INVALID_BACK_REF",
	MissingCloseBracket:     "MISSING_CLOSE_BRACKET",
	LookBehindLimit:         "LOOK_BEHIND_LIMIT",
	Unimplemented:           "UNIMPLEMENTED",
	PatternTooBig:           "PATTERN_TOO_BIG",
	InternalError:           "INTERNAL_ERROR",
}

func (c ErrorCode) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return "UNKNOWN_ERROR"
}

// Error reports a pattern compilation failure with 1-based line/column and up
// to 16 code points of surrounding context, per spec §7's propagation rule.
type Error struct {
	Code       ErrorCode
	Line       int
	Column     int
	PreContext string
	PostContext string
	Detail     string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s at line %d, column %d: %s (near %q|%q)", e.Code, e.Line, e.Column, e.Detail, e.PreContext, e.PostContext)
	}
	return fmt.Sprintf("%s at line %d, column %d (near %q|%q)", e.Code, e.Line, e.Column, e.PreContext, e.PostContext)
}

func contextWindow(runes []rune, pos int) (pre, post string) {
	lo := pos - 16
	if lo < 0 {
		lo = 0
	}
	hi := pos + 16
	if hi > len(runes) {
		hi = len(runes)
	}
	if pos > len(runes) {
		pos = len(runes)
	}
	return string(runes[lo:pos]), string(runes[pos:hi])
}
