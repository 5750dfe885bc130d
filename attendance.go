package rbzk

import (
	"context"
	"fmt"
)

// GetAttendance retrieves every stored attendance log entry
// (CMD_ATTLOG_RRQ / FCT_ATTLOG). Records that only carry a
// numeric uid are resolved to a userID using the table GetUsers populated;
// call GetUsers first for full userID resolution.
func (c *Client) GetAttendance() ([]Attendance, error) {
	if err := c.requireConnected(); err != nil {
		return nil, err
	}
	counts, err := c.ReadSizes()
	if err != nil {
		return nil, err
	}

	body, err := c.bulkRead(context.Background(), cmdAttLogRRQ, fctAttLog, nil)
	if err != nil {
		return nil, fmt.Errorf("GetAttendance: %w", err)
	}
	if len(body) == 0 {
		return nil, nil
	}

	size := attendanceRecordSize(len(body), counts.Records)
	records := make([]Attendance, 0, len(body)/size)
	for i := 0; i+size <= len(body); i += size {
		records = append(records, parseAttendance(body[i:i+size], size, c.usersByUID))
	}
	return records, nil
}

// ClearAttendance erases every attendance log entry (CMD_CLEAR_ATT_LOG).
// This is destructive and cannot be undone.
func (c *Client) ClearAttendance() error {
	return c.simpleCommand("ClearAttendance", cmdClearAttLog, nil)
}

// ClearData wipes all data on the device: users, templates and attendance
// logs alike (CMD_CLEAR_DATA). This is destructive and cannot be undone.
func (c *Client) ClearData() error {
	return c.simpleCommand("ClearData", cmdClearData, nil)
}

// RefreshData asks the device to recompute its internal record indices
// (CMD_REFRESHDATA). Devices that accumulate a large attendance log
// sometimes need this after a bulk ClearAttendance/SetUser sequence before
// GetUsers/GetAttendance reflect the change.
func (c *Client) RefreshData() error {
	return c.simpleCommand("RefreshData", cmdRefresh, nil)
}
