package rbzk

import (
	"context"
	"fmt"
	"strconv"
)

// GetUsers retrieves every enrolled user (CMD_USERTEMP_RRQ / FCT_USER). The
// record layout (28- or 72-byte) is chosen from the ratio of payload size
// to device-reported user count, never hard-coded. As a side effect it
// refreshes the uid->userID table used to resolve attendance records that
// only carry a numeric uid.
func (c *Client) GetUsers() ([]User, error) {
	if err := c.requireConnected(); err != nil {
		return nil, err
	}
	counts, err := c.ReadSizes()
	if err != nil {
		return nil, err
	}

	body, err := c.bulkRead(context.Background(), cmdUserTempRRQ, fctUser, []byte{fctUser})
	if err != nil {
		return nil, fmt.Errorf("GetUsers: %w", err)
	}
	if len(body) == 0 {
		return nil, nil
	}

	size := userRecordSize(len(body), counts.Users)
	users := make([]User, 0, len(body)/size)
	byUID := make(map[uint16]string, len(body)/size)
	takenIDs := make(map[string]bool, len(body)/size)
	var maxUID uint16
	for i := 0; i+size <= len(body); i += size {
		u := parseUser(body[i:i+size], size)
		if u.UID == 0 && u.Name == "" {
			continue
		}
		users = append(users, u)
		byUID[u.UID] = u.UserID
		takenIDs[u.UserID] = true
		if u.UID > maxUID {
			maxUID = u.UID
		}
	}
	c.usersByUID = byUID
	c.userPacketSize = size
	c.nextUID = maxUID + 1
	c.nextUserID = nextFreeUserID(takenIDs)

	return users, nil
}

// nextFreeUserID returns the smallest positive decimal user id not present
// in taken.
func nextFreeUserID(taken map[string]bool) string {
	for i := 1; ; i++ {
		id := strconv.Itoa(i)
		if !taken[id] {
			return id
		}
	}
}

// SetUser creates or updates a single user record (CMD_USER_WRQ). A caller
// passing uid 0 gets the next free internal slot (tracked from the last
// GetUsers call, the highest uid in use plus one); a caller passing an
// empty UserID gets the next free external id. The record is dispatched to
// whichever layout (28- or 72-byte) GetUsers last observed the device use,
// defaulting to the wide 72-byte layout when that's never been called. The
// write runs with the device disabled, so it can't race a live punch.
func (c *Client) SetUser(u User) error {
	if err := c.requireConnected(); err != nil {
		return err
	}
	if u.UID == 0 {
		u.UID = c.nextUID
		if u.UID == 0 {
			u.UID = 1
		}
	}
	if u.UserID == "" {
		u.UserID = c.nextUserID
		if u.UserID == "" {
			u.UserID = strconv.Itoa(int(u.UID))
		}
	}

	size := 72
	if c.userPacketSize == 28 {
		size = 28
	}
	payload := serializeUser(u, size)

	err := c.withDeviceDisabled(func() error {
		h, _, err := c.exchange(context.Background(), cmdUserWRQ, payload)
		if err != nil {
			return err
		}
		switch h.Command {
		case cmdAckOK:
			return nil
		case cmdAckError:
			return newError(KindExists, "SetUser", fmt.Errorf("uid %d", u.UID))
		default:
			return newError(KindDevice, "SetUser", fmt.Errorf("response command %d", h.Command))
		}
	})
	if err != nil {
		return err
	}

	if u.UID >= c.nextUID {
		c.nextUID = u.UID + 1
	}
	if c.usersByUID == nil {
		c.usersByUID = make(map[uint16]string)
	}
	c.usersByUID[u.UID] = u.UserID
	return nil
}

// DeleteUser removes a user by uid (CMD_DELETE_USER). It runs with the
// device disabled, so it can't race a live punch.
func (c *Client) DeleteUser(uid uint16) error {
	if err := c.requireConnected(); err != nil {
		return err
	}
	payload := make([]byte, 2)
	payload[0] = byte(uid)
	payload[1] = byte(uid >> 8)

	err := c.withDeviceDisabled(func() error {
		h, _, err := c.exchange(context.Background(), cmdDeleteUser, payload)
		if err != nil {
			return err
		}
		if h.Command != cmdAckOK {
			return newError(KindDevice, "DeleteUser", fmt.Errorf("response command %d", h.Command))
		}
		return nil
	})
	if err != nil {
		return err
	}
	delete(c.usersByUID, uid)
	return nil
}
