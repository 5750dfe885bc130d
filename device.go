package rbzk

import (
	"context"
	"fmt"
	"time"
)

// DeviceOption reads a single device option by key via CMD_DEVICE, stripping the "key=value" framing and trailing NUL the device
// wraps the answer in. It is the shared primitive behind the named option
// readers below.
func (c *Client) DeviceOption(key string) (string, error) {
	if err := c.requireConnected(); err != nil {
		return "", err
	}
	h, body, err := c.exchange(context.Background(), cmdDevice, []byte(key))
	if err != nil {
		return "", err
	}
	if h.Command != cmdAckOK && h.Command != cmdAckData {
		return "", newError(KindDevice, "DeviceOption", fmt.Errorf("option %q: response command %d", key, h.Command))
	}
	return strip(string(body), key), nil
}

// FirmwareVersion returns the device firmware version (CMD_GET_VERSION).
func (c *Client) FirmwareVersion() (string, error) {
	if err := c.requireConnected(); err != nil {
		return "", err
	}
	h, body, err := c.exchange(context.Background(), cmdGetVersion, nil)
	if err != nil {
		return "", err
	}
	if h.Command != cmdAckOK && h.Command != cmdAckData {
		return "", newError(KindDevice, "FirmwareVersion", fmt.Errorf("response command %d", h.Command))
	}
	return trimCString(body), nil
}

// SerialNumber returns the device's serial number.
func (c *Client) SerialNumber() (string, error) { return c.DeviceOption("~SerialNumber") }

// MAC returns the device's MAC address.
func (c *Client) MAC() (string, error) { return c.DeviceOption("MAC") }

// DeviceName returns the device's model/marketing name.
func (c *Client) DeviceName() (string, error) { return c.DeviceOption("~DeviceName") }

// Platform returns the device's hardware platform identifier.
func (c *Client) Platform() (string, error) { return c.DeviceOption("~Platform") }

// FaceVersion returns the device's face-recognition algorithm version.
func (c *Client) FaceVersion() (string, error) { return c.DeviceOption("ZKFaceVersion") }

// FingerprintVersion returns the device's fingerprint algorithm version.
func (c *Client) FingerprintVersion() (string, error) { return c.DeviceOption("~ZKFPVersion") }

// ExtendFmt returns the device's extended record-format identifier, which
// indicates whether user/attendance records use the wide (ZK8) layout.
func (c *Client) ExtendFmt() (string, error) { return c.DeviceOption("~ExtendFmt") }

// ReadSizes returns the device's current record counts and capacities
// (CMD_GET_FREE_SIZES) and caches them on the Client for use by the
// user/attendance record-size dispatch logic.
func (c *Client) ReadSizes() (DeviceCounts, error) {
	if err := c.requireConnected(); err != nil {
		return DeviceCounts{}, err
	}
	h, body, err := c.exchange(context.Background(), cmdGetFreeSizes, nil)
	if err != nil {
		return DeviceCounts{}, err
	}
	if h.Command != cmdAckOK && h.Command != cmdAckData {
		return DeviceCounts{}, newError(KindDevice, "ReadSizes", fmt.Errorf("response command %d", h.Command))
	}
	c.counts = parseFreeSizes(body)
	return c.counts, nil
}

// GetTime returns the device's current clock (CMD_GET_TIME).
func (c *Client) GetTime() (time.Time, error) {
	if err := c.requireConnected(); err != nil {
		return time.Time{}, err
	}
	h, body, err := c.exchange(context.Background(), cmdGetTime, nil)
	if err != nil {
		return time.Time{}, err
	}
	if h.Command != cmdAckOK || len(body) < 4 {
		return time.Time{}, newError(KindDevice, "GetTime", fmt.Errorf("response command %d, %d bytes", h.Command, len(body)))
	}
	return decodeTimeCompact(leUint32(body)), nil
}

// SetTime sets the device's clock (CMD_SET_TIME).
func (c *Client) SetTime(t time.Time) error {
	if err := c.requireConnected(); err != nil {
		return err
	}
	payload := make([]byte, 4)
	putUint32(payload, encodeTimeCompact(t))
	h, _, err := c.exchange(context.Background(), cmdSetTime, payload)
	if err != nil {
		return err
	}
	if h.Command != cmdAckOK {
		return newError(KindDevice, "SetTime", fmt.Errorf("response command %d", h.Command))
	}
	return nil
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func putUint32(dst []byte, v uint32) {
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
	dst[3] = byte(v >> 24)
}
