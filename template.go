package rbzk

import (
	"context"
	"fmt"
)

// GetTemplates retrieves every enrolled fingerprint template in one bulk
// transfer (CMD_USERTEMP_RRQ / FCT_FINGERTMP).
func (c *Client) GetTemplates() ([]FingerTemplate, error) {
	if err := c.requireConnected(); err != nil {
		return nil, err
	}
	body, err := c.bulkRead(context.Background(), cmdUserTempRRQ, fctFingerTmp, []byte{fctFingerTmp})
	if err != nil {
		return nil, fmt.Errorf("GetTemplates: %w", err)
	}

	var templates []FingerTemplate
	for len(body) >= 6 {
		tmpl, consumed := parseFingerTemplate(body)
		templates = append(templates, tmpl)
		if consumed <= 0 {
			break
		}
		body = body[consumed:]
	}
	return templates, nil
}

// GetUserTemplate retrieves a single finger's template for one user
// (CMD_GET_USERTEMP).
func (c *Client) GetUserTemplate(uid uint16, fingerID uint8) (FingerTemplate, error) {
	if err := c.requireConnected(); err != nil {
		return FingerTemplate{}, err
	}
	payload := make([]byte, 3)
	payload[0] = byte(uid)
	payload[1] = byte(uid >> 8)
	payload[2] = fingerID

	body, err := c.bulkReadStream(context.Background(), cmdGetUserTemp, payload)
	if err != nil {
		return FingerTemplate{}, fmt.Errorf("GetUserTemplate: %w", err)
	}
	if len(body) < 6 {
		return FingerTemplate{}, newError(KindDevice, "GetUserTemplate", fmt.Errorf("no template for uid %d finger %d", uid, fingerID))
	}
	tmpl, _ := parseFingerTemplate(body)
	return tmpl, nil
}
