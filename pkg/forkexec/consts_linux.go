package forkexec

// defines missing consts from syscall package
const (
	seccompSetModeFilter   = 1
	seccompFilterFlagTSync = 1
)
