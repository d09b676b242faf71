package seccomp

import (
	"syscall"

	libseccomp "github.com/elastic/go-seccomp-bpf"
	"golang.org/x/net/bpf"
)

// Action is the default treatment of syscalls outside the allowlist.
type Action int

// Actions for filtered syscalls. The zero value is invalid.
const (
	ActionErrno Action = iota + 1 // fail the syscall with EPERM
	ActionKill                    // kill the offending process
	ActionTrap                    // deliver SIGSYS
)

// Builder compiles an allowlist filter. Everything named in Allow is
// permitted; any other syscall gets the Default action.
type Builder struct {
	Allow   []string
	Default Action
}

// Build assembles the policy into a kernel-loadable filter.
func (b *Builder) Build() (Filter, error) {
	policy := libseccomp.Policy{
		DefaultAction: toSeccompAction(b.Default),
		Syscalls: []libseccomp.SyscallGroup{
			{
				Action: libseccomp.ActionAllow,
				Names:  b.Allow,
			},
		},
	}

	insts, err := policy.Assemble()
	if err != nil {
		return nil, err
	}
	raw, err := bpf.Assemble(insts)
	if err != nil {
		return nil, err
	}

	filter := make(Filter, 0, len(raw))
	for _, in := range raw {
		filter = append(filter, syscall.SockFilter{
			Code: in.Op,
			Jt:   in.Jt,
			Jf:   in.Jf,
			K:    in.K,
		})
	}
	return filter, nil
}

// toSeccompAction converts the action to a go-seccomp-bpf action.
func toSeccompAction(a Action) libseccomp.Action {
	switch a {
	case ActionKill:
		return libseccomp.ActionKillProcess
	case ActionTrap:
		return libseccomp.ActionTrap
	default:
		return libseccomp.ActionErrno
	}
}
