package rbzk

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// freeSizesBody builds a CMD_GET_FREE_SIZES payload reporting the given
// user count in the slot parseFreeSizes reads it from (index 4).
func freeSizesBody(users int) []byte {
	body := make([]byte, 80)
	binary.LittleEndian.PutUint32(body[16:20], uint32(users))
	return body
}

func TestGetUsersTracksNextUIDAndPacketSize(t *testing.T) {
	pd := newPipeDevice()
	defer pd.server.Close()

	existing := serializeUser(User{UID: 5, UserID: "5", Name: "Ann"}, 28)

	go func() {
		h, _ := readRequest(t, pd.server)
		assert.Equal(t, uint16(cmdGetFreeSizes), h.Command)
		sendReply(t, pd.server, header{Command: cmdAckOK, SessionID: 17, ReplyID: h.ReplyID}, freeSizesBody(1))

		h2, _ := readRequest(t, pd.server)
		assert.Equal(t, uint16(cmdPrepareBuffer), h2.Command)
		sendReply(t, pd.server, header{Command: cmdAckError, SessionID: 17, ReplyID: h2.ReplyID}, nil)

		h3, _ := readRequest(t, pd.server)
		assert.Equal(t, uint16(cmdUserTempRRQ), h3.Command)
		sendReply(t, pd.server, header{Command: cmdAckOK, SessionID: 17, ReplyID: h3.ReplyID}, existing)
	}()

	users, err := pd.client.GetUsers()
	require.NoError(t, err)
	require.Len(t, users, 1)

	require.Equal(t, uint16(6), pd.client.nextUID)
	require.Equal(t, 28, pd.client.userPacketSize)
	require.Equal(t, "1", pd.client.nextUserID)
}

func TestSetUserAllocatesUIDAndDispatchesPacketSize(t *testing.T) {
	pd := newPipeDevice()
	pd.client.nextUID = 6
	pd.client.nextUserID = "7"
	pd.client.userPacketSize = 28
	defer pd.server.Close()

	go func() {
		h, _ := readRequest(t, pd.server)
		assert.Equal(t, uint16(cmdDisable), h.Command)
		sendReply(t, pd.server, header{Command: cmdAckOK, SessionID: 17, ReplyID: h.ReplyID}, nil)

		h2, payload := readRequest(t, pd.server)
		assert.Equal(t, uint16(cmdUserWRQ), h2.Command)
		assert.Equal(t, 28, len(payload))
		assert.Equal(t, uint16(6), binary.LittleEndian.Uint16(payload[0:2]))
		sendReply(t, pd.server, header{Command: cmdAckOK, SessionID: 17, ReplyID: h2.ReplyID}, nil)

		h3, _ := readRequest(t, pd.server)
		assert.Equal(t, uint16(cmdEnable), h3.Command)
		sendReply(t, pd.server, header{Command: cmdAckOK, SessionID: 17, ReplyID: h3.ReplyID}, nil)
	}()

	err := pd.client.SetUser(User{Name: "Bob"})
	require.NoError(t, err)
	require.Equal(t, uint16(7), pd.client.nextUID)
	require.Equal(t, "7", pd.client.usersByUID[6])
}

func TestSetUserLogsEnableFailureWithoutMaskingPrimaryError(t *testing.T) {
	pd := newPipeDevice()
	pd.client.userPacketSize = 72
	defer pd.server.Close()

	go func() {
		h, _ := readRequest(t, pd.server)
		assert.Equal(t, uint16(cmdDisable), h.Command)
		sendReply(t, pd.server, header{Command: cmdAckOK, SessionID: 17, ReplyID: h.ReplyID}, nil)

		h2, _ := readRequest(t, pd.server)
		assert.Equal(t, uint16(cmdUserWRQ), h2.Command)
		sendReply(t, pd.server, header{Command: cmdAckError, SessionID: 17, ReplyID: h2.ReplyID}, nil)

		h3, _ := readRequest(t, pd.server)
		assert.Equal(t, uint16(cmdEnable), h3.Command)
		sendReply(t, pd.server, header{Command: cmdAckError, SessionID: 17, ReplyID: h3.ReplyID}, nil)
	}()

	err := pd.client.SetUser(User{UID: 1, UserID: "1"})
	require.Error(t, err)
	var zerr *Error
	require.ErrorAs(t, err, &zerr)
	require.Equal(t, KindExists, zerr.Kind())
}

func TestDeleteUserWrapsDisableEnable(t *testing.T) {
	pd := newPipeDevice()
	pd.client.usersByUID = map[uint16]string{9: "9"}
	defer pd.server.Close()

	go func() {
		h, _ := readRequest(t, pd.server)
		assert.Equal(t, uint16(cmdDisable), h.Command)
		sendReply(t, pd.server, header{Command: cmdAckOK, SessionID: 17, ReplyID: h.ReplyID}, nil)

		h2, payload := readRequest(t, pd.server)
		assert.Equal(t, uint16(cmdDeleteUser), h2.Command)
		assert.Equal(t, uint16(9), binary.LittleEndian.Uint16(payload[0:2]))
		sendReply(t, pd.server, header{Command: cmdAckOK, SessionID: 17, ReplyID: h2.ReplyID}, nil)

		h3, _ := readRequest(t, pd.server)
		assert.Equal(t, uint16(cmdEnable), h3.Command)
		sendReply(t, pd.server, header{Command: cmdAckOK, SessionID: 17, ReplyID: h3.ReplyID}, nil)
	}()

	err := pd.client.DeleteUser(9)
	require.NoError(t, err)
	_, ok := pd.client.usersByUID[9]
	require.False(t, ok)
}
