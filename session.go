package rbzk

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Client is a connection to a single ZK device. A Client is not safe for
// concurrent use by multiple goroutines; callers needing concurrent access
// should serialize calls themselves.
type Client struct {
	host string
	port int

	mode     Mode
	timeout  time.Duration
	password int
	omitPing bool
	verbose  bool
	logger   *slog.Logger

	tr *transport

	connected bool
	sessionID uint16
	replyID   uint16

	lastCommand uint16
	lastHeader  header
	lastPayload []byte

	counts     DeviceCounts
	usersByUID map[uint16]string

	// nextUID, nextUserID and userPacketSize are the session-engine
	// allocation state GetUsers refreshes and SetUser consumes: the next
	// free internal slot, the next free external id, and the record
	// layout (28 or 72 bytes) the device's firmware reported.
	nextUID        uint16
	nextUserID     string
	userPacketSize int
}

// Option configures a Client constructed by NewClient.
type Option func(*Client)

// WithUDP forces the UDP transport. TCP is the default.
func WithUDP() Option {
	return func(c *Client) { c.mode = ModeUDP }
}

// WithTimeout sets the per-operation I/O deadline. Default is 10s.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithPassword sets the device communication password. Default is 0 (no
// password).
func WithPassword(password int) Option {
	return func(c *Client) { c.password = password }
}

// WithOmitPing skips the fast-fail TCP probe dial performed before the real
// connection attempt. Useful against devices that firewall the
// probe but accept the real connection.
func WithOmitPing() Option {
	return func(c *Client) { c.omitPing = true }
}

// WithVerbose enables debug-level logging of individual commands.
func WithVerbose() Option {
	return func(c *Client) { c.verbose = true }
}

// WithLogger sets the structured logger used for connection lifecycle and,
// when WithVerbose is set, per-command tracing. The default is
// slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient builds a Client for the device at host:port. The connection is
// not opened until Connect is called.
func NewClient(host string, port int, opts ...Option) *Client {
	c := &Client{
		host:    host,
		port:    port,
		mode:    ModeTCP,
		timeout: 10 * time.Second,
		replyID: 0xFFFE, // so the first real exchange's reply-id rolls over to 0
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect dials the device, performs CMD_CONNECT, and if the device answers
// CMD_ACK_UNAUTH, completes the challenge-response CMD_AUTH handshake using
// the configured password.
func (c *Client) Connect(ctx context.Context) error {
	addr := addrString(c.host, c.port)

	tr, err := dial(addr, c.mode, c.timeout, c.omitPing)
	if err != nil {
		return err
	}
	c.tr = tr
	c.sessionID = 0
	c.replyID = 0xFFFE

	h, _, err := c.exchange(ctx, cmdConnect, nil)
	if err != nil {
		c.tr.close()
		c.tr = nil
		return err
	}
	c.sessionID = h.SessionID

	if h.Command == cmdAckUnauth {
		key := commKey(c.password, c.sessionID)
		h2, _, err := c.exchange(ctx, cmdAuth, key)
		if err != nil {
			c.tr.close()
			c.tr = nil
			return err
		}
		if h2.Command == cmdAckUnauth {
			c.tr.close()
			c.tr = nil
			return newError(KindAuth, "Connect", nil)
		}
		if h2.Command != cmdAckOK {
			c.tr.close()
			c.tr = nil
			return newError(KindProtocol, "Connect", fmt.Errorf("CMD_AUTH response command %d", h2.Command))
		}
	} else if h.Command != cmdAckOK {
		c.tr.close()
		c.tr = nil
		return newError(KindDevice, "Connect", nil)
	}

	c.connected = true
	c.logger.Debug("rbzk: connected", "addr", addr, "mode", c.mode, "session_id", c.sessionID)
	return nil
}

// Disconnect sends CMD_EXIT (best-effort) and closes the socket. It is safe
// to call on an already-disconnected Client.
func (c *Client) Disconnect() error {
	if !c.connected {
		return nil
	}
	c.exchange(context.Background(), cmdExit, nil)
	c.connected = false
	err := c.tr.close()
	c.tr = nil
	return err
}

// exchange sends one command and waits for its reply, enforcing the
// reply-id monotonicity and session-id match the protocol requires. It
// returns the decoded reply header and its payload.
func (c *Client) exchange(ctx context.Context, command uint16, payload []byte) (header, []byte, error) {
	if c.tr == nil {
		return header{}, nil, newError(KindState, "exchange", nil)
	}

	if dl, ok := ctx.Deadline(); ok {
		if remaining := time.Until(dl); remaining > 0 && remaining < c.timeout {
			c.tr.timeout = remaining
		}
	}

	packet := packHeader(command, c.sessionID, c.replyID, payload)
	if c.verbose {
		c.logger.Debug("rbzk: send", "command", command, "session_id", c.sessionID, "reply_id", c.replyID, "payload_len", len(payload))
	}
	if err := c.tr.send(packet); err != nil {
		return header{}, nil, err
	}

	resp, err := c.tr.recv()
	if err != nil {
		return header{}, nil, err
	}
	h, body, err := unpackHeader(resp)
	if err != nil {
		return header{}, nil, err
	}

	c.lastCommand = command
	c.lastHeader = h
	c.lastPayload = body

	// The reply-id for the next command is always one past what we just
	// sent, regardless of what the device echoed back. A TCP keep-alive carries no header worth trusting; skip the bump.
	if h.Command != cmdTCPAlive {
		c.bumpReplyID()
	}

	if c.sessionID != 0 && h.Command != cmdTCPAlive && h.SessionID != c.sessionID {
		return header{}, nil, newError(KindProtocol, "exchange", nil)
	}

	if c.verbose {
		c.logger.Debug("rbzk: recv", "command", h.Command, "session_id", h.SessionID, "payload_len", len(body))
	}

	return h, body, nil
}

// bumpReplyID advances the reply-id, wrapping at 0xFFFF rather than the
// native uint16 rollover at 0x10000: the device treats 0xFFFF as a value to
// skip, not a valid reply-id.
func (c *Client) bumpReplyID() {
	c.replyID++
	if c.replyID == 0xFFFF {
		c.replyID = 0
	}
}

// requireConnected is a guard used by every public operation that needs a
// live session.
func (c *Client) requireConnected() error {
	if !c.connected {
		return newError(KindState, "requireConnected", nil)
	}
	return nil
}
