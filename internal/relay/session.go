package relay

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"gopkg.in/op/go-logging.v1"

	"ciphera/internal/crypto"
	"ciphera/internal/domain"
	"ciphera/internal/util/memzero"
	"ciphera/internal/wire"
)

// Session relays between one pair of connections until either side goes
// away.
type Session struct {
	ID string

	a, b     net.Conn
	codec    domain.Codec
	maxFrame int
	log      *logging.Logger
	metrics  *Metrics

	closeOnce sync.Once
	closeErr  error
}

func newSession(a, b net.Conn, codec domain.Codec, maxFrame int, lb logBackend, m *Metrics) *Session {
	id := uuid.NewString()
	return &Session{
		ID:       id,
		a:        a,
		b:        b,
		codec:    codec,
		maxFrame: maxFrame,
		log:      lb.GetLogger("session:" + id[:8]),
		metrics:  m,
	}
}

// Run starts both pipelines and blocks until the session is over. Both
// connections are closed on return. A peer disconnecting is the normal way
// for a session to end and is reported as a nil error.
func (s *Session) Run(ctx context.Context) error {
	s.log.Noticef("Relaying %v <-> %v", s.a.RemoteAddr(), s.b.RemoteAddr())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.pipe("A->B", s.a, s.b) })
	g.Go(func() error { return s.pipe("B->A", s.b, s.a) })

	// Pipelines only return on failure or disconnect, so the group context
	// is cancelled as soon as the first one stops. Closing both connections
	// unblocks the survivor's read.
	go func() {
		<-gctx.Done()
		_ = s.Close()
	}()

	err := g.Wait()
	if cerr := s.Close(); cerr != nil {
		s.log.Debugf("Closing connections: %v", cerr)
	}
	if err == nil || errors.Is(err, wire.ErrPeerClosed) || errors.Is(err, net.ErrClosed) {
		s.log.Notice("Session closed")
		return nil
	}
	s.log.Warningf("Session terminated: %v", err)
	return err
}

// Close tears down both connections. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = multierr.Combine(s.a.Close(), s.b.Close())
	})
	return s.closeErr
}

// pipe forwards frames from src to dst in arrival order.
func (s *Session) pipe(dir string, src io.Reader, dst io.Writer) error {
	for {
		frame, err := wire.ReceiveFrame(src, s.maxFrame)
		if err != nil {
			if errors.Is(err, wire.ErrPeerClosed) {
				s.log.Infof("%s: peer disconnected", dir)
			}
			return err
		}

		nonce, ct, err := wire.SplitFrame(frame)
		if err != nil {
			s.log.Warningf("%s: dropping %d-byte frame: %v", dir, len(frame), err)
			s.metrics.frames.WithLabelValues(frameShort).Inc()
			continue
		}
		pt, err := s.codec.Decrypt(ct, nonce)
		if err != nil {
			if !errors.Is(err, crypto.ErrAuthentication) {
				return err
			}
			s.log.Warningf("%s: dropping frame: %v", dir, err)
			s.metrics.frames.WithLabelValues(frameRejected).Inc()
			continue
		}
		s.log.Debugf("%s: %q", dir, pt)

		err = wire.WriteMessage(dst, s.codec, pt)
		memzero.Zero(pt)
		if err != nil {
			return err
		}
		s.metrics.frames.WithLabelValues(frameRelayed).Inc()
	}
}
