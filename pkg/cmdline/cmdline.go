// Package cmdline splits a raw command line into an argument vector
// without shell semantics, so operator-supplied command strings cannot
// smuggle shell metacharacters into process creation.
package cmdline

import (
	"errors"
	"strings"
)

// Tokenization failures. A rejected command line must never reach
// process creation.
var (
	ErrDoubleQuote     = errors.New("cmdline: double quote in command")
	ErrAmbiguousQuote  = errors.New("cmdline: ambiguous single quoting")
	ErrUnbalancedQuote = errors.New("cmdline: unbalanced single quote")
)

// whitespace is the token separator set
const whitespace = " \t\r\n"

// Split tokenizes line into an argument vector. This is not a shell:
// double quotes are rejected outright, and single quotes form one
// literal token from quote to quote with no escape processing.
// A standalone quote token or a triple quote cannot be round-tripped
// to a shell-free call and is rejected as unsafe.
// An empty or all-whitespace line yields an empty vector.
func Split(line string) ([]string, error) {
	if strings.Contains(line, `"`) {
		return nil, ErrDoubleQuote
	}
	if strings.Contains(line, " ' ") || strings.Contains(line, "'''") {
		return nil, ErrAmbiguousQuote
	}

	// each argument is whitespace-separated, so the token count is at
	// most (len / 2) + 1; one extra mirrors the vector terminator
	args := make([]string, 0, len(line)/2+2)

	rest := line
	for {
		rest = strings.TrimLeft(rest, whitespace)
		if rest == "" {
			break
		}
		if rest[0] == '\'' {
			rest = rest[1:]
			i := strings.IndexByte(rest, '\'')
			if i < 0 {
				return nil, ErrUnbalancedQuote
			}
			args = append(args, rest[:i])
			rest = rest[i+1:]
			continue
		}
		i := strings.IndexAny(rest, whitespace)
		if i < 0 {
			args = append(args, rest)
			break
		}
		args = append(args, rest[:i])
		rest = rest[i+1:]
	}
	return args, nil
}
