package pidtable

import (
	"os/exec"
	"syscall"
	"testing"
)

func TestRegisterTake(t *testing.T) {
	t.Parallel()
	tb := New(16)

	if err := tb.Register(5, 1234); err != nil {
		t.Fatal(err)
	}
	if pid, ok := tb.Get(5); !ok || pid != 1234 {
		t.Errorf("Get(5) = %d, %v", pid, ok)
	}
	if pid, ok := tb.Take(5); !ok || pid != 1234 {
		t.Errorf("Take(5) = %d, %v", pid, ok)
	}
	// second take must fail cleanly
	if _, ok := tb.Take(5); ok {
		t.Error("second Take(5) succeeded")
	}
	if _, ok := tb.Get(5); ok {
		t.Error("Get(5) after Take succeeded")
	}
}

func TestRegisterBounds(t *testing.T) {
	t.Parallel()
	tb := New(8)
	if err := tb.Register(-1, 1); err == nil {
		t.Error("Register(-1) succeeded")
	}
	if err := tb.Register(8, 1); err == nil {
		t.Error("Register(cap) succeeded")
	}
	if err := tb.Register(3, 0); err == nil {
		t.Error("Register with pid 0 succeeded")
	}
	if _, ok := tb.Take(99); ok {
		t.Error("Take out of range succeeded")
	}
}

func TestFds(t *testing.T) {
	t.Parallel()
	tb := New(16)
	for _, fd := range []int{3, 7, 11} {
		if err := tb.Register(fd, fd*100); err != nil {
			t.Fatal(err)
		}
	}
	fds := tb.Fds()
	if len(fds) != 3 || fds[0] != 3 || fds[1] != 7 || fds[2] != 11 {
		t.Errorf("Fds() = %v", fds)
	}
}

func TestKill(t *testing.T) {
	t.Parallel()
	cmd := exec.Command("/bin/sleep", "30")
	if err := cmd.Start(); err != nil {
		t.Fatal(err)
	}

	tb := New(0)
	if err := tb.Register(3, cmd.Process.Pid); err != nil {
		t.Fatal(err)
	}
	if n := tb.Kill(syscall.SIGKILL); n != 1 {
		t.Fatalf("Kill signalled %d children, want 1", n)
	}

	err := cmd.Wait()
	ee, ok := err.(*exec.ExitError)
	if !ok {
		t.Fatalf("Wait error = %v, want ExitError", err)
	}
	ws := ee.Sys().(syscall.WaitStatus)
	if !ws.Signaled() || ws.Signal() != syscall.SIGKILL {
		t.Errorf("child status = %v, want killed by SIGKILL", ws)
	}
}

func TestOpenMax(t *testing.T) {
	t.Parallel()
	if n := OpenMax(); n <= 0 {
		t.Errorf("OpenMax() = %d", n)
	}
}
