// Package interrupt tracks whether the user has requested early
// termination (Ctrl-C), so long-running loops can check a flag instead
// of threading a context.Context through every call site.
package interrupt

import (
	"os"
	"os/signal"
	"sync/atomic"
)

// Handler reports whether an interrupt signal has been received.
type Handler struct {
	interrupted atomic.Bool
}

// Install registers a SIGINT handler and returns a Handler that will
// flip to true the first time it fires. The underlying signal channel is
// never unregistered; a Handler is meant to live for the process's
// lifetime.
func Install() *Handler {
	h := &Handler{}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	go func() {
		<-ch
		h.interrupted.Store(true)
	}()
	return h
}

// IsInterrupted reports whether Ctrl-C has been pressed since Install.
func (h *Handler) IsInterrupted() bool {
	return h.interrupted.Load()
}
