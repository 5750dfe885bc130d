package rbzk

import (
	"context"
	"fmt"
)

func (c *Client) simpleCommand(op string, command uint16, payload []byte) error {
	if err := c.requireConnected(); err != nil {
		return err
	}
	h, _, err := c.exchange(context.Background(), command, payload)
	if err != nil {
		return err
	}
	if h.Command != cmdAckOK {
		return newError(KindDevice, op, fmt.Errorf("response command %d", h.Command))
	}
	return nil
}

// EnableDevice resumes normal operation after DisableDevice.
func (c *Client) EnableDevice() error {
	return c.simpleCommand("EnableDevice", cmdEnable, nil)
}

// DisableDevice puts the device into a "working..." state that rejects
// fingerprint/card input, so a multi-step write (e.g. SetUser) can't race a
// live punch.
func (c *Client) DisableDevice() error {
	return c.simpleCommand("DisableDevice", cmdDisable, []byte{0x00, 0x00})
}

// Restart reboots the device.
func (c *Client) Restart() error {
	return c.simpleCommand("Restart", cmdRestart, []byte{0x00, 0x00})
}

// PowerOff powers the device off.
func (c *Client) PowerOff() error {
	return c.simpleCommand("PowerOff", cmdPowerOff, []byte{0x00, 0x00})
}

// Sleep puts the device into standby.
func (c *Client) Sleep() error {
	return c.simpleCommand("Sleep", cmdSleep, []byte{0x00, 0x00})
}

// Resume wakes the device from Sleep.
func (c *Client) Resume() error {
	return c.simpleCommand("Resume", cmdResume, []byte{0x00, 0x00})
}

// TestVoice plays the device's built-in voice prompt at the given index.
func (c *Client) TestVoice(index uint32) error {
	payload := make([]byte, 4)
	putUint32(payload, index)
	return c.simpleCommand("TestVoice", cmdTestVoice, payload)
}

// UnlockDoor releases the attached door relay for tenthsOfSecond tenths of
// a second.
func (c *Client) UnlockDoor(tenthsOfSecond uint32) error {
	payload := make([]byte, 4)
	putUint32(payload, tenthsOfSecond)
	return c.simpleCommand("UnlockDoor", cmdUnlock, payload)
}

// DoorState reports whether the attached door sensor currently reads
// closed (true) or open (false).
func (c *Client) DoorState() (bool, error) {
	if err := c.requireConnected(); err != nil {
		return false, err
	}
	h, body, err := c.exchange(context.Background(), cmdDoorStateQ, nil)
	if err != nil {
		return false, err
	}
	if h.Command != cmdAckOK || len(body) < 1 {
		return false, newError(KindDevice, "DoorState", fmt.Errorf("response command %d", h.Command))
	}
	return body[0] != 0, nil
}

// WriteLCD writes text to the given line of the device's LCD display.
func (c *Client) WriteLCD(line uint16, text string) error {
	payload := make([]byte, 0, 4+len(text))
	payload = append(payload, byte(line), byte(line>>8), 0x00, ' ')
	payload = append(payload, text...)
	return c.simpleCommand("WriteLCD", cmdWriteLCD, payload)
}

// ClearLCD clears the device's LCD display.
func (c *Client) ClearLCD() error {
	return c.simpleCommand("ClearLCD", cmdClearLCD, nil)
}

// withDeviceDisabled runs fn with the device disabled, guaranteeing
// EnableDevice runs afterwards even if fn or the initial disable call
// fails. If fn itself fails, a subsequent EnableDevice failure is logged as
// a warning rather than returned, so it never masks fn's error as the
// primary cause.
func (c *Client) withDeviceDisabled(fn func() error) error {
	if err := c.DisableDevice(); err != nil {
		if enableErr := c.EnableDevice(); enableErr != nil {
			c.logger.Warn("rbzk: EnableDevice failed after failed DisableDevice", "error", enableErr)
		}
		return err
	}
	fnErr := fn()
	enableErr := c.EnableDevice()
	if enableErr != nil {
		c.logger.Warn("rbzk: EnableDevice failed after disabled write", "error", enableErr)
	}
	if fnErr != nil {
		return fnErr
	}
	return enableErr
}
