package relay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"gopkg.in/op/go-logging.v1"

	"ciphera/internal/domain"
	"ciphera/internal/wire"
)

// ErrServerFull is logged for connections turned away at capacity.
var ErrServerFull = errors.New("relay: server full")

const noticeTimeout = 5 * time.Second

type logBackend interface {
	GetLogger(module string) *logging.Logger
}

// Config carries the dependencies and limits of a Pairer.
type Config struct {
	Codec domain.Codec
	Log   logBackend

	// Metrics defaults to an unregistered set.
	Metrics *Metrics

	// MaxFrameSize bounds a single frame read, zero means
	// wire.DefaultMaxFrameSize.
	MaxFrameSize int

	// MaxSessions is the number of pairs relayed at once, zero means one.
	MaxSessions int

	// FullNotice is sent to connections rejected at capacity.
	FullNotice string
}

// Pairer accumulates inbound connections into pairs and runs a Session for
// each pair.
//
// All pairing state lives behind mu: the single pending connection and the
// set of live sessions. A connection offered to the Pairer is always either
// left pending, paired into exactly one session, or rejected.
type Pairer struct {
	codec       domain.Codec
	lb          logBackend
	log         *logging.Logger
	metrics     *Metrics
	maxFrame    int
	maxSessions int
	notice      []byte

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	pending net.Conn
	live    map[*Session]struct{}
	closed  bool
}

// NewPairer validates cfg and returns an idle Pairer.
func NewPairer(cfg Config) (*Pairer, error) {
	if cfg.Codec == nil {
		return nil, errors.New("relay: nil codec")
	}
	if cfg.Log == nil {
		return nil, errors.New("relay: nil log backend")
	}
	if cfg.MaxFrameSize == 0 {
		cfg.MaxFrameSize = wire.DefaultMaxFrameSize
	}
	if cfg.MaxFrameSize <= domain.NonceSize {
		return nil, fmt.Errorf("relay: max frame size %d too small", cfg.MaxFrameSize)
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 1
	}
	if cfg.FullNotice == "" {
		cfg.FullNotice = "server full\n"
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NewMetrics(nil)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pairer{
		codec:       cfg.Codec,
		lb:          cfg.Log,
		log:         cfg.Log.GetLogger("pairer"),
		metrics:     cfg.Metrics,
		maxFrame:    cfg.MaxFrameSize,
		maxSessions: cfg.MaxSessions,
		notice:      []byte(cfg.FullNotice),
		ctx:         ctx,
		cancel:      cancel,
		live:        make(map[*Session]struct{}),
	}, nil
}

// Serve accepts connections from ln until ctx is cancelled or ln fails, then
// closes the Pairer. Cancellation is not an error.
func (p *Pairer) Serve(ctx context.Context, ln net.Listener) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = ln.Close()
		case <-done:
		}
	}()

	p.log.Noticef("Server is running on %v", ln.Addr())
	for {
		conn, err := ln.Accept()
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() && ctx.Err() == nil {
				p.log.Warningf("Accept: %v", err)
				continue
			}
			p.Close()
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("relay: accept: %w", err)
		}
		p.log.Noticef("New connection: %v", conn.RemoteAddr())
		p.metrics.accepted.Inc()
		p.Offer(conn)
	}
}

// Offer hands a freshly accepted connection to the Pairer. It never blocks on
// the network.
func (p *Pairer) Offer(conn net.Conn) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		_ = conn.Close()
		return
	}
	if p.occupiedLocked() >= 2*p.maxSessions {
		p.wg.Add(1)
		p.mu.Unlock()
		p.metrics.rejected.Inc()
		go p.reject(conn)
		return
	}
	if p.pending == nil {
		p.pending = conn
		p.mu.Unlock()
		p.log.Infof("%v waiting for a peer", conn.RemoteAddr())
		return
	}

	a := p.pending
	p.pending = nil
	s := newSession(a, conn, p.codec, p.maxFrame, p.lb, p.metrics)
	p.live[s] = struct{}{}
	p.wg.Add(1)
	p.mu.Unlock()

	p.metrics.sessions.Inc()
	p.log.Noticef("Paired %v with %v in session %v", a.RemoteAddr(), conn.RemoteAddr(), s.ID)
	go p.run(s)
}

func (p *Pairer) run(s *Session) {
	defer p.wg.Done()
	_ = s.Run(p.ctx)
	p.metrics.sessions.Dec()

	p.mu.Lock()
	delete(p.live, s)
	p.mu.Unlock()
}

func (p *Pairer) reject(conn net.Conn) {
	defer p.wg.Done()
	p.log.Warningf("Rejecting %v: %v", conn.RemoteAddr(), ErrServerFull)

	_ = conn.SetWriteDeadline(time.Now().Add(noticeTimeout))
	if _, err := conn.Write(p.notice); err != nil {
		p.log.Debugf("Sending notice to %v: %v", conn.RemoteAddr(), err)
	}
	_ = conn.Close()
}

// occupiedLocked counts the connection slots in use. Caller holds mu.
func (p *Pairer) occupiedLocked() int {
	n := 2 * len(p.live)
	if p.pending != nil {
		n++
	}
	return n
}

// Stats reports the number of pending connections and live sessions.
func (p *Pairer) Stats() (pending, sessions int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending != nil {
		pending = 1
	}
	return pending, len(p.live)
}

// Close drops the pending connection, tears down every live session and waits
// for their goroutines. Connections offered afterwards are closed at once.
func (p *Pairer) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.wg.Wait()
		return
	}
	p.closed = true
	if p.pending != nil {
		_ = p.pending.Close()
		p.pending = nil
	}
	for s := range p.live {
		_ = s.Close()
	}
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
}
