package runcmd

// Status classifies how a command terminated.
type Status int

// Termination statuses.
const (
	StatusInvalid Status = iota // 0 not initialized
	StatusExited                // 1 normal exit, code available
	StatusSignalled             // 2 killed or stopped by a signal
	StatusRunnerError           // 3 spawn, reap or bookkeeping failure
)

var statusString = []string{
	"Invalid",
	"Exited",
	"Signalled",
	"Runner Error",
}

func (s Status) String() string {
	i := int(s)
	if i >= 0 && i < len(statusString) {
		return statusString[i]
	}
	return statusString[0]
}

func (s Status) Error() string {
	return s.String()
}
