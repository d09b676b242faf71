package runcmd

import (
	"fmt"

	"github.com/criyle/go-runcmd/pkg/output"
)

// ExitUnknown is the sentinel exit value reported when the child's
// exit code could not be determined: it terminated abnormally, was
// never registered, or reaping failed. It is never a fabricated code.
const ExitUnknown = -1

// Result is the outcome of one executed command.
type Result struct {
	Status            // termination class
	ExitStatus int    // exit code, or signal number if signalled
	Error      string // detail for runner errors

	Stdout output.Output
	Stderr output.Output
}

// Code collapses the result to the classic integer contract: the exit
// code for a normal exit, ExitUnknown for everything else.
func (r Result) Code() int {
	if r.Status == StatusExited {
		return r.ExitStatus
	}
	return ExitUnknown
}

func (r Result) String() string {
	switch r.Status {
	case StatusExited:
		return fmt.Sprintf("Result[Exited(%d)][out %d bytes, err %d bytes]",
			r.ExitStatus, len(r.Stdout.Buf), len(r.Stderr.Buf))
	case StatusSignalled:
		return fmt.Sprintf("Result[Signalled(%d)]", r.ExitStatus)
	case StatusRunnerError:
		return fmt.Sprintf("Result[RunnerFailed(%s)]", r.Error)
	default:
		return fmt.Sprintf("Result[%v]", r.Status)
	}
}
