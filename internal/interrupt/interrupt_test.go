package interrupt_test

import (
	"syscall"
	"testing"
	"time"

	"github.com/latte-bench/floodrpc/internal/interrupt"
)

func TestInstallFlipsOnSignal(t *testing.T) {
	h := interrupt.Install()
	if h.IsInterrupted() {
		t.Fatal("should not be interrupted before any signal is sent")
	}

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGINT); err != nil {
		t.Skipf("cannot send SIGINT in this environment: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if h.IsInterrupted() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("handler did not observe SIGINT within 1s")
}
