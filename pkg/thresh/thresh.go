// Package thresh parses and evaluates monitoring threshold ranges.
// A range is written as [@]start:end where either bound may be
// omitted and "~" stands for negative infinity: "10" alerts outside
// 0..10, "10:" alerts below 10, "~:10" alerts above 10, and a leading
// "@" inverts the range so values inside it alert.
//
// The command execution core does not consume this package; plugins
// combine it with captured output on their own.
package thresh

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/criyle/go-runcmd/pkg/state"
)

// Range is one parsed threshold range.
type Range struct {
	Start         float64
	End           float64
	StartInfinity bool
	EndInfinity   bool
	AlertInside   bool
}

// ParseRange parses a range expression.
func ParseRange(s string) (*Range, error) {
	orig := s
	r := &Range{EndInfinity: true}

	if strings.HasPrefix(s, "@") {
		r.AlertInside = true
		s = s[1:]
	}

	if start, end, found := strings.Cut(s, ":"); found {
		if start == "~" {
			r.StartInfinity = true
		} else if start != "" {
			v, err := strconv.ParseFloat(start, 64)
			if err != nil {
				return nil, fmt.Errorf("thresh: bad range start in %q: %w", orig, err)
			}
			r.Start = v
		}
		s = end
	}
	if s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("thresh: bad range end in %q: %w", orig, err)
		}
		r.End = v
		r.EndInfinity = false
	}

	if !r.StartInfinity && !r.EndInfinity && r.Start > r.End {
		return nil, fmt.Errorf("thresh: start > end in range %q", orig)
	}
	return r, nil
}

// Check reports whether value raises an alert for this range.
func (r *Range) Check(value float64) bool {
	var inside bool
	switch {
	case !r.StartInfinity && !r.EndInfinity:
		inside = r.Start <= value && value <= r.End
	case !r.StartInfinity && r.EndInfinity:
		inside = r.Start <= value
	case r.StartInfinity && !r.EndInfinity:
		inside = value <= r.End
	default:
		inside = true
	}
	if r.AlertInside {
		return inside
	}
	return !inside
}

func (r *Range) String() string {
	var sb strings.Builder
	if r.AlertInside {
		sb.WriteByte('@')
	}
	if r.StartInfinity {
		sb.WriteString("~:")
	} else if r.Start != 0 {
		fmt.Fprintf(&sb, "%g:", r.Start)
	} else {
		sb.WriteString("0:")
	}
	if !r.EndInfinity {
		fmt.Fprintf(&sb, "%g", r.End)
	}
	return sb.String()
}

// Thresholds couples the warning and critical ranges of a check.
// Either may be nil when that level is not configured.
type Thresholds struct {
	Warning  *Range
	Critical *Range
}

// Parse builds Thresholds from the warning and critical range
// expressions; an empty expression leaves that level unset.
func Parse(warn, crit string) (*Thresholds, error) {
	t := &Thresholds{}
	if warn != "" {
		r, err := ParseRange(warn)
		if err != nil {
			return nil, err
		}
		t.Warning = r
	}
	if crit != "" {
		r, err := ParseRange(crit)
		if err != nil {
			return nil, err
		}
		t.Critical = r
	}
	return t, nil
}

// Status evaluates value against the ranges, critical first.
func (t *Thresholds) Status(value float64) state.State {
	if t.Critical != nil && t.Critical.Check(value) {
		return state.Critical
	}
	if t.Warning != nil && t.Warning.Check(value) {
		return state.Warning
	}
	return state.OK
}

// Unescape expands the backslash escapes \n, \r, \t and \\ in an
// operator-supplied string; any other escape keeps the literal
// character after the backslash.
func Unescape(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			sb.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\':
			sb.WriteByte('\\')
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}
