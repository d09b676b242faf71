// Package runcmd executes operator-supplied command lines for
// monitoring check plugins without spawning a shell, captures the
// child's standard output and standard error, and reports its exit
// status.
//
// The command line is tokenized with restricted single-quote rules
// (package cmdline) so shell metacharacters are never interpreted,
// the child runs with a minimal fixed environment and core dumps
// disabled, and its output is drained through pipes into caller-owned
// containers (package output). Every live child's stdout descriptor
// is registered in a process-wide pid table so a Watchdog can kill
// everything still running when a check overruns its deadline; the
// watchdog then terminates the whole process with the CRITICAL state,
// which is the expected fail-fast behavior for a hung check.
//
// One command is executed at a time per thread of control: stdout is
// drained fully, then stderr, then the child is reaped. Multithreaded
// programs should call Init once up front and serialize their own
// calls into the package.
package runcmd
