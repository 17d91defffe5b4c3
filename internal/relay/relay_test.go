package relay

import (
	"context"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"gopkg.in/op/go-logging.v1"

	"ciphera/internal/crypto"
	"ciphera/internal/domain"
	"ciphera/internal/log"
	"ciphera/internal/wire"
)

const waitFor = 5 * time.Second

var testKey = domain.MustSymmetricKey([]byte("anexampleverysecurekey32bytes!!!"))

type harness struct {
	p     *Pairer
	m     *Metrics
	codec *crypto.Codec
	addr  string
}

func startRelay(t *testing.T, maxSessions int) *harness {
	t.Helper()
	codec, err := crypto.NewCodec(testKey, crypto.DefaultSuite)
	require.NoError(t, err)

	m := NewMetrics(prometheus.NewRegistry())
	p, err := NewPairer(Config{
		Codec:       codec,
		Log:         log.NewWriter(io.Discard, logging.DEBUG),
		Metrics:     m,
		MaxSessions: maxSessions,
	})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- p.Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-errc)
	})
	return &harness{p: p, m: m, codec: codec, addr: ln.Addr().String()}
}

func (h *harness) dial(t *testing.T) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", h.addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// pair dials two clients one after the other and waits for their session.
func (h *harness) pair(t *testing.T) (a, b net.Conn) {
	t.Helper()
	_, before := h.p.Stats()
	a = h.dial(t)
	require.Eventually(t, func() bool {
		pending, _ := h.p.Stats()
		return pending == 1
	}, waitFor, 5*time.Millisecond)
	b = h.dial(t)
	require.Eventually(t, func() bool {
		pending, live := h.p.Stats()
		return pending == 0 && live == before+1
	}, waitFor, 5*time.Millisecond)
	return a, b
}

func (h *harness) send(t *testing.T, conn net.Conn, msg string) domain.Nonce {
	t.Helper()
	ct, nonce, err := h.codec.Encrypt([]byte(msg))
	require.NoError(t, err)
	require.NoError(t, wire.SendFrame(conn, nonce, ct))
	return nonce
}

func (h *harness) recv(t *testing.T, conn net.Conn) (string, domain.Nonce) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(waitFor)))
	frame, err := wire.ReceiveFrame(conn, wire.DefaultMaxFrameSize)
	require.NoError(t, err)
	nonce, ct, err := wire.SplitFrame(frame)
	require.NoError(t, err)
	pt, err := h.codec.Decrypt(ct, nonce)
	require.NoError(t, err)
	return string(pt), nonce
}

func (h *harness) frames(outcome string) float64 {
	return testutil.ToFloat64(h.m.frames.WithLabelValues(outcome))
}

func TestRelay_BothDirections(t *testing.T) {
	h := startRelay(t, 1)
	a, b := h.pair(t)

	sent := h.send(t, a, "hello")
	got, relayed := h.recv(t, b)
	require.Equal(t, "hello", got)
	require.NotEqual(t, sent, relayed, "relay must re-encrypt under a fresh nonce")

	h.send(t, b, "hi there")
	got, _ = h.recv(t, a)
	require.Equal(t, "hi there", got)

	require.Eventually(t, func() bool { return h.frames(frameRelayed) == 2 }, waitFor, 5*time.Millisecond)
}

func TestRelay_InOrder(t *testing.T) {
	h := startRelay(t, 1)
	a, b := h.pair(t)

	for _, msg := range []string{"one", "two", "three"} {
		h.send(t, a, msg)
		got, _ := h.recv(t, b)
		require.Equal(t, msg, got)
	}
}

func TestRelay_SkipsBadFrames(t *testing.T) {
	h := startRelay(t, 1)
	a, b := h.pair(t)

	_, err := a.Write([]byte("short"))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return h.frames(frameShort) == 1 }, waitFor, 5*time.Millisecond)

	ct, nonce, err := h.codec.Encrypt([]byte("tampered"))
	require.NoError(t, err)
	ct[0] ^= 0xff
	require.NoError(t, wire.SendFrame(a, nonce, ct))
	require.Eventually(t, func() bool { return h.frames(frameRejected) == 1 }, waitFor, 5*time.Millisecond)

	other, err := crypto.NewCodec(domain.SymmetricKey{1}, crypto.DefaultSuite)
	require.NoError(t, err)
	require.NoError(t, wire.WriteMessage(a, other, []byte("wrong key")))
	require.Eventually(t, func() bool { return h.frames(frameRejected) == 2 }, waitFor, 5*time.Millisecond)

	h.send(t, a, "hello")
	got, _ := h.recv(t, b)
	require.Equal(t, "hello", got)
	require.Eventually(t, func() bool { return h.frames(frameRelayed) == 1 }, waitFor, 5*time.Millisecond)
}

func TestRelay_DisconnectTearsDownSession(t *testing.T) {
	h := startRelay(t, 1)
	a, b := h.pair(t)

	require.NoError(t, a.Close())

	require.NoError(t, b.SetReadDeadline(time.Now().Add(waitFor)))
	_, err := wire.ReceiveFrame(b, wire.DefaultMaxFrameSize)
	require.ErrorIs(t, err, wire.ErrPeerClosed)

	require.Eventually(t, func() bool {
		_, live := h.p.Stats()
		return live == 0
	}, waitFor, 5*time.Millisecond)
	require.Equal(t, 0.0, testutil.ToFloat64(h.m.sessions))

	// The freed slots take a new pair.
	c, d := h.pair(t)
	h.send(t, c, "again")
	got, _ := h.recv(t, d)
	require.Equal(t, "again", got)
}

func TestRelay_ThirdConnectionRejected(t *testing.T) {
	h := startRelay(t, 1)

	conns := make([]net.Conn, 3)
	var wg sync.WaitGroup
	for i := range conns {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conn, err := net.Dial("tcp", h.addr)
			if err == nil {
				conns[i] = conn
			}
		}(i)
	}
	wg.Wait()
	for _, c := range conns {
		require.NotNil(t, c)
		t.Cleanup(func() { _ = c.Close() })
	}

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(h.m.rejected) == 1
	}, waitFor, 5*time.Millisecond)

	var rejected, paired []net.Conn
	for _, c := range conns {
		require.NoError(t, c.SetReadDeadline(time.Now().Add(500*time.Millisecond)))
		b, err := io.ReadAll(c)
		if err == nil {
			require.Equal(t, "server full\n", string(b))
			rejected = append(rejected, c)
			continue
		}
		var ne net.Error
		require.ErrorAs(t, err, &ne)
		require.True(t, ne.Timeout())
		require.Empty(t, b)
		paired = append(paired, c)
	}
	require.Len(t, rejected, 1)
	require.Len(t, paired, 2)

	pending, live := h.p.Stats()
	require.Equal(t, 0, pending)
	require.Equal(t, 1, live)

	h.send(t, paired[0], "hello")
	got, _ := h.recv(t, paired[1])
	require.Equal(t, "hello", got)
}

func TestRelay_MultipleSessions(t *testing.T) {
	h := startRelay(t, 2)
	a, b := h.pair(t)
	c, d := h.pair(t)

	h.send(t, a, "to b")
	h.send(t, c, "to d")
	got, _ := h.recv(t, b)
	require.Equal(t, "to b", got)
	got, _ = h.recv(t, d)
	require.Equal(t, "to d", got)
}

func TestPairer_ConcurrentOffers(t *testing.T) {
	codec, err := crypto.NewCodec(testKey, crypto.DefaultSuite)
	require.NoError(t, err)
	m := NewMetrics(nil)
	p, err := NewPairer(Config{
		Codec:       codec,
		Log:         log.NewWriter(io.Discard, logging.ERROR),
		Metrics:     m,
		MaxSessions: 3,
	})
	require.NoError(t, err)

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		server, client := net.Pipe()
		go func() { _, _ = io.Copy(io.Discard, client) }()
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Offer(server)
		}()
	}
	wg.Wait()

	pending, live := p.Stats()
	require.Equal(t, 0, pending)
	require.Equal(t, 3, live)
	require.Equal(t, float64(n-6), testutil.ToFloat64(m.rejected))

	p.Close()
	pending, live = p.Stats()
	require.Equal(t, 0, pending)
	require.Equal(t, 0, live)
}

func TestPairer_CloseDropsPending(t *testing.T) {
	codec, err := crypto.NewCodec(testKey, crypto.DefaultSuite)
	require.NoError(t, err)
	p, err := NewPairer(Config{Codec: codec, Log: log.NewWriter(io.Discard, logging.ERROR)})
	require.NoError(t, err)

	server, client := net.Pipe()
	p.Offer(server)
	pending, _ := p.Stats()
	require.Equal(t, 1, pending)

	p.Close()
	_, err = client.Read(make([]byte, 1))
	require.ErrorIs(t, err, io.EOF)

	// Offers after Close are closed straight away.
	server, client = net.Pipe()
	p.Offer(server)
	_, err = client.Read(make([]byte, 1))
	require.ErrorIs(t, err, io.EOF)
}

func TestNewPairer_Validates(t *testing.T) {
	_, err := NewPairer(Config{})
	require.Error(t, err)

	codec, err := crypto.NewCodec(testKey, crypto.DefaultSuite)
	require.NoError(t, err)
	_, err = NewPairer(Config{Codec: codec, Log: log.NewWriter(io.Discard, logging.ERROR), MaxFrameSize: 8})
	require.Error(t, err)
}
