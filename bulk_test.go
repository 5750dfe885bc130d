package rbzk

import (
	"context"
	"encoding/binary"
	"errors"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipeDevice wires a Client directly to a transport backed by net.Pipe, for
// tests that exercise bulk.go without a real socket.
type pipeDevice struct {
	client *Client
	server net.Conn
}

func newPipeDevice() *pipeDevice {
	clientConn, serverConn := net.Pipe()
	tr := &transport{mode: ModeTCP, conn: clientConn, timeout: 2 * time.Second}
	c := &Client{
		tr:        tr,
		connected: true,
		sessionID: 17,
		replyID:   1,
		mode:      ModeTCP,
		logger:    slog.Default(),
	}
	return &pipeDevice{client: c, server: serverConn}
}

// readRequest reads one framed request off the server side and returns its
// header and payload. It runs on the fake-device goroutine, so failures are
// reported with assert (safe from any goroutine) rather than require.
func readRequest(t *testing.T, conn net.Conn) (header, []byte) {
	t.Helper()
	srvTr := &transport{mode: ModeTCP, conn: conn, timeout: 2 * time.Second}
	outer, err := srvTr.readExactly(8)
	if !assert.NoError(t, err) {
		return header{}, nil
	}
	length, ok := parseTCPFrame(outer)
	assert.True(t, ok)
	body, err := srvTr.readExactly(int(length))
	if !assert.NoError(t, err) {
		return header{}, nil
	}
	h, payload, err := unpackHeader(body)
	assert.NoError(t, err)
	return h, payload
}

func sendReply(t *testing.T, conn net.Conn, h header, payload []byte) {
	t.Helper()
	packet := packHeader(h.Command, h.SessionID, h.ReplyID, payload)
	_, err := conn.Write(wrapTCPFrame(packet))
	assert.NoError(t, err)
}

// sendRawChunk writes a raw streamed chunk (own 8-byte header + payload),
// as the device does mid-transfer for Mode B.
func sendRawChunk(t *testing.T, conn net.Conn, payload []byte) {
	t.Helper()
	packet := packHeader(cmdAckData, 17, 0, payload)
	_, err := conn.Write(wrapTCPFrame(packet))
	assert.NoError(t, err)
}

func TestBulkReadStreamSmallReplyInline(t *testing.T) {
	pd := newPipeDevice()
	defer pd.server.Close()

	go func() {
		h, _ := readRequest(t, pd.server)
		sendReply(t, pd.server, header{Command: cmdAckOK, SessionID: 17, ReplyID: h.ReplyID}, []byte("small payload"))
	}()

	body, err := pd.client.bulkReadStream(context.Background(), cmdUserTempRRQ, []byte{fctUser})
	require.NoError(t, err)
	require.Equal(t, []byte("small payload"), body)
}

func TestBulkReadStreamPrepareDataThenChunks(t *testing.T) {
	pd := newPipeDevice()
	defer pd.server.Close()

	want := make([]byte, 0, 5000)
	for i := 0; i < 5000; i++ {
		want = append(want, byte(i))
	}

	go func() {
		h, _ := readRequest(t, pd.server)
		prepareBody := make([]byte, 4)
		binary.LittleEndian.PutUint32(prepareBody, uint32(len(want)))
		sendReply(t, pd.server, header{Command: cmdPrepareData, SessionID: 17, ReplyID: h.ReplyID}, prepareBody)

		// Stream it as two raw chunks, then a trailing ACK.
		sendRawChunk(t, pd.server, want[:2000])
		sendRawChunk(t, pd.server, want[2000:])
		sendReply(t, pd.server, header{Command: cmdAckOK, SessionID: 17, ReplyID: 0}, nil)
	}()

	body, err := pd.client.bulkReadStream(context.Background(), cmdAttLogRRQ, nil)
	require.NoError(t, err)
	require.Equal(t, want, body)
}

func TestBulkReadBufferChunksAndFrees(t *testing.T) {
	pd := newPipeDevice()
	defer pd.server.Close()

	want := []byte("0123456789abcdefghij") // 20 bytes; fits in a single maxChunkTCP-sized chunk

	go func() {
		h, payload := readRequest(t, pd.server)
		assert.Equal(t, uint16(cmdPrepareBuffer), h.Command)
		assert.Equal(t, byte(1), payload[0])
		assert.Equal(t, uint16(cmdUserTempRRQ), binary.LittleEndian.Uint16(payload[1:3]))
		assert.Equal(t, uint32(fctUser), binary.LittleEndian.Uint32(payload[3:7]))
		assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(payload[7:11]))
		prepareBody := make([]byte, 4)
		binary.LittleEndian.PutUint32(prepareBody, uint32(len(want)))
		sendReply(t, pd.server, header{Command: cmdAckOK, SessionID: 17, ReplyID: h.ReplyID}, prepareBody)

		rh, rpayload := readRequest(t, pd.server)
		assert.Equal(t, uint16(cmdReadBuffer), rh.Command)
		assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(rpayload[0:4]))
		assert.Equal(t, uint32(len(want)), binary.LittleEndian.Uint32(rpayload[4:8]))
		sendReply(t, pd.server, header{Command: cmdAckData, SessionID: 17, ReplyID: rh.ReplyID}, want)

		freeH, _ := readRequest(t, pd.server)
		assert.Equal(t, uint16(cmdFreeData), freeH.Command)
		sendReply(t, pd.server, header{Command: cmdAckOK, SessionID: 17, ReplyID: freeH.ReplyID}, nil)
	}()

	body, err := pd.client.bulkReadBuffer(context.Background(), cmdUserTempRRQ, fctUser, 0)
	require.NoError(t, err)
	require.Equal(t, want, body)
}

func TestBulkReadFallsBackToStreamWhenBufferModeUnsupported(t *testing.T) {
	pd := newPipeDevice()
	defer pd.server.Close()

	go func() {
		h, _ := readRequest(t, pd.server)
		assert.Equal(t, uint16(cmdPrepareBuffer), h.Command)
		sendReply(t, pd.server, header{Command: cmdAckError, SessionID: 17, ReplyID: h.ReplyID}, nil)

		h2, _ := readRequest(t, pd.server)
		assert.Equal(t, uint16(cmdUserTempRRQ), h2.Command)
		sendReply(t, pd.server, header{Command: cmdAckOK, SessionID: 17, ReplyID: h2.ReplyID}, []byte("streamed"))
	}()

	body, err := pd.client.bulkRead(context.Background(), cmdUserTempRRQ, fctUser, []byte{fctUser})
	require.NoError(t, err)
	require.Equal(t, []byte("streamed"), body)
}

func TestReadBufferChunkRetriesOnTransientFailure(t *testing.T) {
	pd := newPipeDevice()
	defer pd.server.Close()

	flaky := &flakyConn{Conn: pd.client.tr.conn, failReads: 1}
	pd.client.tr.conn = flaky

	go func() {
		// First attempt: the client's read of this reply is sabotaged by
		// flakyConn, so it retries and resends the identical request.
		readRequest(t, pd.server)
		h, _ := readRequest(t, pd.server)
		sendReply(t, pd.server, header{Command: cmdAckData, SessionID: 17, ReplyID: h.ReplyID}, []byte("chunk-data"))
	}()

	body, err := pd.client.readBufferChunk(context.Background(), 0, 10)
	require.NoError(t, err)
	require.Equal(t, []byte("chunk-data"), body)
}

// flakyConn fails the first failReads calls to Read, to exercise
// readBufferChunk's retry loop without waiting out a real
// timeout.
type flakyConn struct {
	net.Conn
	failReads int
}

func (f *flakyConn) Read(p []byte) (int, error) {
	if f.failReads > 0 {
		f.failReads--
		return 0, errors.New("simulated transient read failure")
	}
	return f.Conn.Read(p)
}
