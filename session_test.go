package rbzk

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDevice is a minimal stand-in ZK device: it accepts a single TCP
// connection and answers each request with whatever the test script says.
type fakeDevice struct {
	ln   net.Listener
	port int
}

func newFakeDevice(t *testing.T) *fakeDevice {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return &fakeDevice{ln: ln, port: port}
}

func (f *fakeDevice) close() { f.ln.Close() }

// serve accepts one connection and, for each inbound framed request, calls
// reply to compute the response header/payload to send back. reply returning
// false as its third value closes the connection after that reply is sent.
func (f *fakeDevice) serve(t *testing.T, reply func(h header, body []byte) (header, []byte, bool)) {
	t.Helper()
	go func() {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		tr := &transport{mode: ModeTCP, conn: conn, timeout: 5 * time.Second}
		for {
			req, err := tr.readExactly(8)
			if err != nil {
				return
			}
			length, ok := parseTCPFrame(req)
			if !ok {
				return
			}
			body, err := tr.readExactly(int(length))
			if err != nil {
				return
			}
			h, payload, err := unpackHeader(body)
			if err != nil {
				return
			}

			rh, rpayload, cont := reply(h, payload)
			packet := packHeader(rh.Command, rh.SessionID, rh.ReplyID, rpayload)
			if err := tr.send(packet); err != nil {
				return
			}
			if !cont {
				return
			}
		}
	}()
}

func TestConnectUnauthenticatedAckOK(t *testing.T) {
	dev := newFakeDevice(t)
	defer dev.close()

	const wantSession = uint16(4321)
	dev.serve(t, func(h header, _ []byte) (header, []byte, bool) {
		assert.Equal(t, uint16(cmdConnect), h.Command)
		return header{Command: cmdAckOK, SessionID: wantSession, ReplyID: h.ReplyID}, nil, true
	})

	c := NewClient("127.0.0.1", dev.port, WithOmitPing(), WithTimeout(2*time.Second))
	err := c.Connect(context.Background())
	require.NoError(t, err)
	require.Equal(t, wantSession, c.sessionID)
}

func TestConnectChallengeResponseAuth(t *testing.T) {
	dev := newFakeDevice(t)
	defer dev.close()

	const wantSession = uint16(99)
	const password = 54321
	step := 0
	dev.serve(t, func(h header, body []byte) (header, []byte, bool) {
		step++
		switch step {
		case 1:
			assert.Equal(t, uint16(cmdConnect), h.Command)
			return header{Command: cmdAckUnauth, SessionID: wantSession, ReplyID: h.ReplyID}, nil, true
		default:
			assert.Equal(t, uint16(cmdAuth), h.Command)
			assert.Equal(t, commKey(password, wantSession), body)
			return header{Command: cmdAckOK, SessionID: wantSession, ReplyID: h.ReplyID}, nil, true
		}
	})

	c := NewClient("127.0.0.1", dev.port, WithOmitPing(), WithPassword(password), WithTimeout(2*time.Second))
	err := c.Connect(context.Background())
	require.NoError(t, err)
}

func TestConnectRejectedAuthSurfacesAuthKind(t *testing.T) {
	dev := newFakeDevice(t)
	defer dev.close()

	step := 0
	dev.serve(t, func(h header, _ []byte) (header, []byte, bool) {
		step++
		if step == 1 {
			return header{Command: cmdAckUnauth, SessionID: 1, ReplyID: h.ReplyID}, nil, true
		}
		return header{Command: cmdAckUnauth, SessionID: 1, ReplyID: h.ReplyID}, nil, false
	})

	c := NewClient("127.0.0.1", dev.port, WithOmitPing(), WithPassword(1), WithTimeout(2*time.Second))
	err := c.Connect(context.Background())
	require.Error(t, err)
	var zkErr *Error
	require.ErrorAs(t, err, &zkErr)
	require.Equal(t, KindAuth, zkErr.Kind())
}

func TestExchangeReplyIDMonotonicAcrossCalls(t *testing.T) {
	dev := newFakeDevice(t)
	defer dev.close()

	const session = uint16(7)
	var seenReplyIDs []uint16
	dev.serve(t, func(h header, _ []byte) (header, []byte, bool) {
		seenReplyIDs = append(seenReplyIDs, h.ReplyID)
		sid := session
		if h.Command == cmdConnect {
			return header{Command: cmdAckOK, SessionID: sid, ReplyID: h.ReplyID}, nil, true
		}
		return header{Command: cmdAckOK, SessionID: sid, ReplyID: h.ReplyID}, nil, true
	})

	c := NewClient("127.0.0.1", dev.port, WithOmitPing(), WithTimeout(2*time.Second))
	require.NoError(t, c.Connect(context.Background()))
	firstReply := c.replyID

	require.NoError(t, c.EnableDevice())
	require.Equal(t, firstReply+1, c.replyID, "reply id must advance by exactly one per exchange regardless of what the device echoed")

	require.NoError(t, c.DisableDevice())
	require.Equal(t, firstReply+2, c.replyID)
}

func TestExchangeSessionMismatchIsProtocolError(t *testing.T) {
	dev := newFakeDevice(t)
	defer dev.close()

	step := 0
	dev.serve(t, func(h header, _ []byte) (header, []byte, bool) {
		step++
		if step == 1 {
			return header{Command: cmdAckOK, SessionID: 55, ReplyID: h.ReplyID}, nil, true
		}
		// Wrong session id on the second reply.
		return header{Command: cmdAckOK, SessionID: 9999, ReplyID: h.ReplyID}, nil, true
	})

	c := NewClient("127.0.0.1", dev.port, WithOmitPing(), WithTimeout(2*time.Second))
	require.NoError(t, c.Connect(context.Background()))

	err := c.EnableDevice()
	require.Error(t, err)
	var zkErr *Error
	require.ErrorAs(t, err, &zkErr)
	require.Equal(t, KindProtocol, zkErr.Kind())
}

func TestDisconnectIsIdempotent(t *testing.T) {
	c := NewClient("127.0.0.1", 1, WithOmitPing())
	require.NoError(t, c.Disconnect())
	require.NoError(t, c.Disconnect())
}

func TestOperationBeforeConnectFailsWithStateKind(t *testing.T) {
	c := NewClient("127.0.0.1", 1)
	err := c.EnableDevice()
	require.Error(t, err)
	var zkErr *Error
	require.ErrorAs(t, err, &zkErr)
	require.Equal(t, KindState, zkErr.Kind())
}
