// Process lifecycle: the stdin read loop, signal handling, and clean
// shutdown of the store handle.
package rpc

import (
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
)

// readBufSize is the stdin read chunk size. Frames regularly span multiple
// chunks; the framer reassembles them.
const readBufSize = 4096

// Server ties the engine to the process streams and owns shutdown of the
// store handle.
type Server struct {
	engine *Engine
	store  io.Closer
	in     io.Reader
	logger *log.Logger
}

// NewServer wires an engine to its input stream and the store handle it
// must close on exit.
func NewServer(engine *Engine, store io.Closer, in io.Reader, logger *log.Logger) *Server {
	return &Server{
		engine: engine,
		store:  store,
		in:     in,
		logger: logger,
	}
}

// Run processes the input stream until it closes or a termination signal
// arrives, then closes the store and returns. One message is handled to
// completion before the next buffered one is dispatched; there is no
// overlapping execution of handlers.
func (s *Server) Run() error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	type readResult struct {
		data []byte
		err  error
	}
	readCh := make(chan readResult)

	go func() {
		defer close(readCh)
		for {
			buf := make([]byte, readBufSize)
			n, err := s.in.Read(buf)
			if n > 0 {
				readCh <- readResult{data: buf[:n]}
			}
			if err != nil {
				readCh <- readResult{err: err}
				return
			}
		}
	}()

	var runErr error

loop:
	for {
		select {
		case sig := <-sigCh:
			s.logger.Info("termination signal received", "signal", sig)
			break loop
		case r, ok := <-readCh:
			if !ok {
				break loop
			}
			if r.err != nil {
				if !errors.Is(r.err, io.EOF) {
					s.logger.Error("reading input stream", "err", r.err)
					runErr = r.err
				}
				break loop
			}
			if err := s.engine.Feed(r.data); err != nil {
				s.logger.Error("writing to output stream", "err", err)
				runErr = err
				break loop
			}
		}
	}

	if s.engine.PendingInput() {
		s.logger.Warn("discarding incomplete frame buffered at shutdown")
	}

	if err := s.store.Close(); err != nil {
		s.logger.Error("closing store", "err", err)
		if runErr == nil {
			runErr = err
		}
	}

	s.logger.Info("tool server stopped")
	return runErr
}
