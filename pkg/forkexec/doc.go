// Package forkexec spawns a command child process without a shell:
// clone, descriptor shuffling onto 0/1/2, resource limits, optional
// seccomp filter, then execve with a caller-supplied environment.
//
// prlimit64 requires kernel >= 3.2; dup3 requires kernel >= 2.6.27
package forkexec
