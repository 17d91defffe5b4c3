// Package client is the interactive end of the relay: it dials the server,
// seals each line typed by the user into a frame and prints every message
// relayed from the peer.
package client

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"gopkg.in/op/go-logging.v1"

	"ciphera/internal/crypto"
	"ciphera/internal/domain"
	"ciphera/internal/wire"
)

// ErrServerFull is returned when the relay turns the connection away.
var ErrServerFull = errors.New("client: server full")

// Options tune a Client. Zero values pick the relay defaults.
type Options struct {
	MaxFrameSize int
	// FullNotice is the relay's capacity notice, recognised on the first
	// read.
	FullNotice string
	Log        *logging.Logger
}

// Client is one chat connection to the relay.
type Client struct {
	conn     net.Conn
	codec    domain.Codec
	maxFrame int
	notice   []byte
	log      *logging.Logger
	seenData bool
}

// Dial connects to the relay at addr.
func Dial(ctx context.Context, addr string, codec domain.Codec, opts Options) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", addr, err)
	}
	return New(conn, codec, opts), nil
}

// New wraps an established connection.
func New(conn net.Conn, codec domain.Codec, opts Options) *Client {
	if opts.MaxFrameSize <= 0 {
		opts.MaxFrameSize = wire.DefaultMaxFrameSize
	}
	if opts.FullNotice == "" {
		opts.FullNotice = "server full\n"
	}
	if opts.Log == nil {
		opts.Log = logging.MustGetLogger("client")
	}
	return &Client{
		conn:     conn,
		codec:    codec,
		maxFrame: opts.MaxFrameSize,
		notice:   []byte(opts.FullNotice),
		log:      opts.Log,
	}
}

// Close closes the connection.
func (c *Client) Close() error { return c.conn.Close() }

// Send seals msg into a single frame. Surrounding whitespace is trimmed and
// empty messages are not sent.
func (c *Client) Send(msg string) error {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return nil
	}
	return wire.WriteMessage(c.conn, c.codec, []byte(msg))
}

// Receive blocks for the next frame and opens it. Errors wrapping
// wire.ErrFrameTooShort or crypto.ErrAuthentication concern only that frame;
// the connection remains usable.
func (c *Client) Receive() ([]byte, error) {
	frame, err := wire.ReceiveFrame(c.conn, c.maxFrame)
	if err != nil {
		return nil, err
	}
	first := !c.seenData
	c.seenData = true
	if first && bytes.Equal(frame, c.notice) {
		return nil, ErrServerFull
	}
	return wire.Open(c.codec, frame)
}

// Run chats until the input is exhausted, the server disconnects or ctx is
// cancelled. Lines read from in are sent; received messages are written to out
// as "Received: <msg>". Undecodable frames are reported on out and skipped.
func (c *Client) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	errc := make(chan error, 2)
	go func() { errc <- c.receiveLoop(out) }()
	go func() { errc <- c.sendLoop(in) }()

	var err error
	select {
	case err = <-errc:
	case <-ctx.Done():
	}
	_ = c.conn.Close()

	switch {
	case err == nil, errors.Is(err, net.ErrClosed):
		return nil
	case errors.Is(err, wire.ErrPeerClosed):
		fmt.Fprintln(out, "Server disconnected.")
		return nil
	default:
		return err
	}
}

func (c *Client) receiveLoop(out io.Writer) error {
	for {
		msg, err := c.Receive()
		switch {
		case err == nil:
			fmt.Fprintf(out, "Received: %s\n", strings.ToValidUTF8(string(msg), "�"))
		case errors.Is(err, wire.ErrFrameTooShort):
			c.log.Warning("Received data too short to contain a nonce.")
		case errors.Is(err, crypto.ErrAuthentication):
			c.log.Warning("Dropped a message that failed authentication.")
		default:
			return err
		}
	}
}

func (c *Client) sendLoop(in io.Reader) error {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if err := c.Send(sc.Text()); err != nil {
			return fmt.Errorf("client: writing to socket: %w", err)
		}
	}
	return sc.Err()
}
