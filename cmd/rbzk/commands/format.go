package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/rbzk/rbzk"
)

const (
	formatJSON  = "json"
	formatTable = "table"
)

// errUnsupportedFormat is returned when the requested output format is not
// supported.
var errUnsupportedFormat = errors.New("unsupported output format")

func formatUsers(users []rbzk.User, format string) (string, error) {
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(users, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal users to JSON: %w", err)
		}
		return string(data), nil
	case formatTable, "":
		var buf strings.Builder
		w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "UID\tUSER-ID\tNAME\tPRIVILEGE\tCARD")
		for _, u := range users {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n", u.UID, u.UserID, u.Name, rbzk.PrivilegeName(u.Privilege), u.Card)
		}
		if err := w.Flush(); err != nil {
			return "", fmt.Errorf("flush tabwriter: %w", err)
		}
		return buf.String(), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

func formatAttendance(records []rbzk.Attendance, format string) (string, error) {
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal attendance to JSON: %w", err)
		}
		return string(data), nil
	case formatTable, "":
		var buf strings.Builder
		w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "UID\tUSER-ID\tTIMESTAMP\tSTATUS\tPUNCH")
		for _, a := range records {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", a.UID, a.UserID, a.Timestamp.Format("2006-01-02 15:04:05"), a.Status, rbzk.PunchName(a.Punch))
		}
		if err := w.Flush(); err != nil {
			return "", fmt.Errorf("flush tabwriter: %w", err)
		}
		return buf.String(), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

func formatDeviceCounts(dc rbzk.DeviceCounts, format string) (string, error) {
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(dc, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal device counts to JSON: %w", err)
		}
		return string(data), nil
	case formatTable, "":
		var buf strings.Builder
		w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Users:\t%d / %d\n", dc.Users, dc.UsersCap)
		fmt.Fprintf(w, "Fingers:\t%d / %d\n", dc.Fingers, dc.FingersCap)
		fmt.Fprintf(w, "Records:\t%d / %d\n", dc.Records, dc.RecordsCap)
		fmt.Fprintf(w, "Faces:\t%d / %d\n", dc.Faces, dc.FacesCap)
		fmt.Fprintf(w, "Cards:\t%d\n", dc.Cards)
		if err := w.Flush(); err != nil {
			return "", fmt.Errorf("flush tabwriter: %w", err)
		}
		return buf.String(), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}
