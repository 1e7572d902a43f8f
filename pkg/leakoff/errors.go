package leakoff

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a calculation failure.
type Kind int

const (
	KindUnknown Kind = iota
	// KindGeometry covers missing or non-positive valve dimensions.
	KindGeometry
	// KindParameterMismatch covers array length mismatches and bad pressures.
	KindParameterMismatch
	// KindFlowDirection means upstream pressure does not exceed downstream.
	KindFlowDirection
	// KindNumericDomain means the discharge equation left its real domain.
	KindNumericDomain
	// KindPropertyLookup means the property provider rejected a state.
	KindPropertyLookup
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindGeometry:
		return "geometry"
	case KindParameterMismatch:
		return "parameter_mismatch"
	case KindFlowDirection:
		return "flow_direction"
	case KindNumericDomain:
		return "numeric_domain"
	case KindPropertyLookup:
		return "property_lookup"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. They carry only a kind.
var (
	ErrGeometry          = &Error{Kind: KindGeometry}
	ErrParameterMismatch = &Error{Kind: KindParameterMismatch}
	ErrFlowDirection     = &Error{Kind: KindFlowDirection}
	ErrNumericDomain     = &Error{Kind: KindNumericDomain}
	ErrPropertyLookup    = &Error{Kind: KindPropertyLookup}
)

// Error is the single error type returned by the package.
type Error struct {
	Kind    Kind
	Op      string // normalize, solve, cascade, mix, assemble
	Section int    // 1-based; 0 when the failure is not tied to a section
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("leakoff")
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	if e.Section > 0 {
		fmt.Fprintf(&b, ": section %d", e.Section)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	} else if e.Err == nil {
		b.WriteString(": ")
		b.WriteString(e.Kind.String())
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Message != "" || t.Err != nil || t.Op != "" {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindUnknown
}

// SectionOf returns the section recorded on err, or 0.
func SectionOf(err error) int {
	var le *Error
	if errors.As(err, &le) {
		return le.Section
	}
	return 0
}

func newError(kind Kind, op string, section int, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Section: section, Message: fmt.Sprintf(format, args...)}
}

// lookupError wraps a provider failure.
func lookupError(op string, section int, err error, format string, args ...any) *Error {
	return &Error{
		Kind:    KindPropertyLookup,
		Op:      op,
		Section: section,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// atSection stamps a section index onto err if it is an *Error without one.
func atSection(err error, section int) error {
	var le *Error
	if errors.As(err, &le) && le.Section == 0 {
		cp := *le
		cp.Section = section
		return &cp
	}
	return err
}
