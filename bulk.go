package rbzk

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
)

// bulkReadStream implements transfer Mode B ("stream until ACK"): trigger
// sends a command that, on a device with more data than fits in one
// reply, answers CMD_PREPARE_DATA carrying the total byte count in its
// payload; the device then pushes that many bytes as a sequence of raw
// frames (no further per-chunk acknowledgement), followed by a trailing ACK
// packet. A device with little enough data skips CMD_PREPARE_DATA entirely
// and answers CMD_ACK_OK/CMD_ACK_DATA with the payload inline.
func (c *Client) bulkReadStream(ctx context.Context, command uint16, payload []byte) ([]byte, error) {
	h, body, err := c.exchange(ctx, command, payload)
	if err != nil {
		return nil, err
	}

	switch h.Command {
	case cmdAckOK, cmdAckData:
		return body, nil
	case cmdPrepareData:
		return c.streamChunks(body)
	case cmdAckUnauth:
		return nil, newError(KindAuth, "bulkReadStream", nil)
	default:
		return nil, newError(KindDevice, "bulkReadStream", fmt.Errorf("unexpected response command %d", h.Command))
	}
}

// streamChunks consumes the byte count announced by a CMD_PREPARE_DATA
// reply, reads raw frames off the transport until that many bytes have
// arrived, then drains the trailing ACK frame.
func (c *Client) streamChunks(prepareBody []byte) ([]byte, error) {
	if len(prepareBody) < 4 {
		return nil, newError(KindProtocol, "streamChunks", fmt.Errorf("PREPARE_DATA payload too short: %d bytes", len(prepareBody)))
	}
	totalSize := int(binary.LittleEndian.Uint32(prepareBody[0:4]))
	if totalSize <= 0 {
		return nil, nil
	}

	out := make([]byte, 0, totalSize)
	for len(out) < totalSize {
		chunk, err := c.tr.recv()
		if err != nil {
			return nil, err
		}
		// Every chunk after the first carries its own 8-byte header; only
		// the payload counts towards totalSize.
		if len(chunk) > headerSize {
			out = append(out, chunk[headerSize:]...)
		} else {
			out = append(out, chunk...)
		}
	}

	// Drain the trailing ACK so the reply-id/session state stays aligned
	// for the next command.
	if ack, err := c.tr.recv(); err == nil {
		if h, _, uerr := unpackHeader(ack); uerr == nil {
			c.lastHeader = h
		}
	}
	c.bumpReplyID()

	return out, nil
}

// bulkRead retrieves a dataset identified by fct, preferring transfer Mode A
// (prepare-buffer/read-chunks) and falling back to Mode B (stream-until-ack)
// when the device answers CMD_PREPARE_BUFFER with CMD_ACK_ERROR, which older
// firmware that never implemented Mode A does.
func (c *Client) bulkRead(ctx context.Context, innerCmd uint16, fct uint8, streamPayload []byte) ([]byte, error) {
	body, err := c.bulkReadBuffer(ctx, innerCmd, fct, 0)
	if err == nil {
		return body, nil
	}
	var zerr *Error
	if errors.As(err, &zerr) && zerr.Kind() == KindDevice {
		return c.bulkReadStream(ctx, innerCmd, streamPayload)
	}
	return nil, err
}

// bulkReadBuffer implements transfer Mode A ("prepare buffer / read
// chunks"): CMD_PREPARE_BUFFER declares which inner command and function
// (fct) to read, plus an extra selector (ext, usually 0), and gets back the
// total size; the caller then issues one CMD_READ_BUFFER per chunk,
// trying an individual chunk up to maxChunkRetries times in all before
// failing the whole transfer, and finally releases the device-side buffer with
// CMD_FREE_DATA.
func (c *Client) bulkReadBuffer(ctx context.Context, innerCmd uint16, fct uint8, ext uint32) ([]byte, error) {
	prepare := make([]byte, 11)
	prepare[0] = 1
	binary.LittleEndian.PutUint16(prepare[1:3], innerCmd)
	binary.LittleEndian.PutUint32(prepare[3:7], uint32(fct))
	binary.LittleEndian.PutUint32(prepare[7:11], ext)
	h, body, err := c.exchange(ctx, cmdPrepareBuffer, prepare)
	if err != nil {
		return nil, err
	}
	if h.Command != cmdAckOK || len(body) < 4 {
		return nil, newError(KindDevice, "bulkReadBuffer", fmt.Errorf("unexpected PREPARE_BUFFER response command %d", h.Command))
	}
	totalSize := int(binary.LittleEndian.Uint32(body[0:4]))

	defer func() {
		c.exchange(ctx, cmdFreeData, nil)
	}()

	if totalSize <= 0 {
		return nil, nil
	}

	maxChunk := maxChunkTCP
	if c.mode == ModeUDP {
		maxChunk = maxChunkUDP
	}

	out := make([]byte, 0, totalSize)
	for offset := 0; offset < totalSize; {
		size := totalSize - offset
		if size > maxChunk {
			size = maxChunk
		}

		chunk, err := c.readBufferChunk(ctx, uint32(offset), uint32(size))
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
		offset += len(chunk)
	}

	return out, nil
}

// readBufferChunk requests a single CMD_READ_BUFFER chunk, making up to
// maxChunkRetries attempts in all (resending after a failed exchange or an
// unexpected response command) before giving up with a protocol error.
func (c *Client) readBufferChunk(ctx context.Context, offset, size uint32) ([]byte, error) {
	req := make([]byte, 8)
	binary.LittleEndian.PutUint32(req[0:4], offset)
	binary.LittleEndian.PutUint32(req[4:8], size)

	var lastErr error
	for attempt := 0; attempt < maxChunkRetries; attempt++ {
		h, body, err := c.exchange(ctx, cmdReadBuffer, req)
		if err != nil {
			lastErr = err
			continue
		}
		switch h.Command {
		case cmdAckOK, cmdAckData:
			return body, nil
		case cmdPrepareData:
			return c.streamChunks(body)
		default:
			lastErr = newError(KindDevice, "readBufferChunk", fmt.Errorf("unexpected response command %d", h.Command))
		}
	}
	return nil, newError(KindProtocol, "readBufferChunk", lastErr)
}
