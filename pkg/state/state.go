// Package state holds the exit states of the monitoring plugin
// protocol and the fail-fast termination primitive plugins use when a
// check cannot continue.
package state

import (
	"fmt"
	"os"
)

// State is a plugin exit status.
type State int

// Plugin exit states. The numeric values are the wire protocol and
// must not change.
const (
	OK        State = 0
	Warning   State = 1
	Critical  State = 2
	Unknown   State = 3
	Dependent State = 4
)

var stateString = []string{
	"OK",
	"WARNING",
	"CRITICAL",
	"UNKNOWN",
	"DEPENDENT",
}

func (s State) String() string {
	if s >= OK && s <= Dependent {
		return stateString[s]
	}
	return "UNKNOWN"
}

// Worst returns the more severe of two states. Unknown outranks OK
// but never a real alert.
func Worst(a, b State) State {
	if a == Critical || b == Critical {
		return Critical
	}
	if a == Warning || b == Warning {
		return Warning
	}
	if a == Unknown || b == Unknown {
		return Unknown
	}
	if a > b {
		return a
	}
	return b
}

// exit is swapped out in tests
var exit = os.Exit

// Die prints the message to standard output and terminates the whole
// process with s. It never returns.
func Die(s State, format string, a ...interface{}) {
	fmt.Printf(format, a...)
	exit(int(s))
	panic("unreachable")
}
