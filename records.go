package rbzk

import (
	"encoding/binary"
	"strconv"
	"strings"
	"time"
)

// User is a device user record.
type User struct {
	UID       uint16
	UserID    string
	Name      string
	Privilege uint8
	Password  string
	GroupID   string
	Card      uint32
}

// Attendance is a device attendance-log record.
type Attendance struct {
	UID       uint16
	UserID    string
	Timestamp time.Time
	Status    uint8
	Punch     uint8
}

// FingerTemplate is a device fingerprint template record.
type FingerTemplate struct {
	UID      uint16
	FingerID uint8
	Valid    uint8
	Template []byte
}

func trimCString(b []byte) string {
	if i := indexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}

func putCString(dst []byte, s string) {
	n := copy(dst, s)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

// userRecordSize picks the 28 ("ZK6") or 72 ("ZK8") byte user record
// layout given the total bulk-read payload size and the declared user
// count.
func userRecordSize(totalSize, count int) int {
	if count <= 0 {
		return 72
	}
	size := totalSize / count
	if size == 28 {
		return 28
	}
	return 72
}

// parseUser decodes a single user record in either the 28- or 72-byte
// layout.
func parseUser(rec []byte, size int) User {
	if size == 28 {
		return User{
			UID:       binary.LittleEndian.Uint16(rec[0:2]),
			Privilege: rec[2],
			Password:  trimCString(rec[3:8]),
			Name:      trimCString(rec[8:16]),
			Card:      binary.LittleEndian.Uint32(rec[16:20]),
			GroupID:   strconv.Itoa(int(rec[21])),
			UserID:    strconv.FormatUint(uint64(binary.LittleEndian.Uint32(rec[24:28])), 10),
		}
	}
	return User{
		UID:       binary.LittleEndian.Uint16(rec[0:2]),
		Privilege: rec[2],
		Password:  trimCString(rec[3:11]),
		Name:      trimCString(rec[11:35]),
		Card:      binary.LittleEndian.Uint32(rec[35:39]),
		GroupID:   trimCString(rec[40:47]),
		UserID:    trimCString(rec[48:72]),
	}
}

// serializeUser encodes u into the given record layout (size 28 or 72),
// mirroring parseUser's field offsets exactly.
func serializeUser(u User, size int) []byte {
	rec := make([]byte, size)
	binary.LittleEndian.PutUint16(rec[0:2], u.UID)
	rec[2] = u.Privilege

	if size == 28 {
		putCString(rec[3:8], u.Password)
		putCString(rec[8:16], u.Name)
		binary.LittleEndian.PutUint32(rec[16:20], u.Card)
		if gid, err := strconv.Atoi(u.GroupID); err == nil {
			rec[21] = byte(gid)
		}
		uid64, _ := strconv.ParseUint(u.UserID, 10, 32)
		binary.LittleEndian.PutUint32(rec[24:28], uint32(uid64))
		return rec
	}

	putCString(rec[3:11], u.Password)
	putCString(rec[11:35], u.Name)
	binary.LittleEndian.PutUint32(rec[35:39], u.Card)
	rec[39] = 1
	putCString(rec[40:47], u.GroupID)
	putCString(rec[48:72], u.UserID)
	return rec
}

// attendanceRecordSize picks the 8/16/40-byte attendance record layout
// given the total bulk-read payload size and the declared record count.
func attendanceRecordSize(totalSize, count int) int {
	if count <= 0 {
		return 40
	}
	switch totalSize / count {
	case 8:
		return 8
	case 16:
		return 16
	default:
		return 40
	}
}

// parseAttendance decodes a single attendance record in the 8/16/40-byte
// layout, resolving uid -> userID against the supplied user list where the
// record only carries a numeric uid.
func parseAttendance(rec []byte, size int, usersByUID map[uint16]string) Attendance {
	switch size {
	case 8:
		uid := binary.LittleEndian.Uint16(rec[0:2])
		return Attendance{
			UID:       uid,
			UserID:    resolveUserID(uid, usersByUID),
			Status:    rec[2],
			Timestamp: decodeTimeCompact(binary.LittleEndian.Uint32(rec[3:7])),
			Punch:     rec[7],
		}
	case 16:
		// user_id_num is read as a uint32 and formatted once as a decimal
		// string for UserID; it is never parsed back from a string. The
		// record does not keep the numeric value itself, and UID stays 0.
		userIDNum := binary.LittleEndian.Uint32(rec[0:4])
		return Attendance{
			UID:       0,
			UserID:    strconv.FormatUint(uint64(userIDNum), 10),
			Timestamp: decodeTimeCompact(binary.LittleEndian.Uint32(rec[4:8])),
			Status:    rec[8],
			Punch:     rec[9],
		}
	default: // 40
		uid := binary.LittleEndian.Uint16(rec[0:2])
		userID := trimCString(rec[2:26])
		if userID == "" {
			userID = resolveUserID(uid, usersByUID)
		}
		return Attendance{
			UID:       uid,
			UserID:    userID,
			Status:    rec[26],
			Timestamp: decodeTimeCompact(binary.LittleEndian.Uint32(rec[27:31])),
			Punch:     rec[31],
		}
	}
}

// resolveUserID falls through to the decimal uid when no matching user is
// known.
func resolveUserID(uid uint16, usersByUID map[uint16]string) string {
	if name, ok := usersByUID[uid]; ok {
		return name
	}
	return strconv.FormatUint(uint64(uid), 10)
}

// parseFingerTemplate decodes the payload of CMD_GET_USERTEMP /
// a CMD_USERTEMP_RRQ template entry: uid(2) finger_id(1) valid(1) size(2)
// template(size).
func parseFingerTemplate(rec []byte) (FingerTemplate, int) {
	uid := binary.LittleEndian.Uint16(rec[0:2])
	fingerID := rec[2]
	valid := rec[3]
	size := int(binary.LittleEndian.Uint16(rec[4:6]))
	end := 6 + size
	if end > len(rec) {
		end = len(rec)
	}
	tmpl := make([]byte, end-6)
	copy(tmpl, rec[6:end])
	return FingerTemplate{UID: uid, FingerID: fingerID, Valid: valid, Template: tmpl}, end
}

// DeviceCounts reports the record counts, capacities and free slots
// returned by CMD_GET_FREE_SIZES.
type DeviceCounts struct {
	Users        int
	Fingers      int
	Records      int
	Cards        int
	Faces        int
	UsersCap     int
	FingersCap   int
	RecordsCap   int
	FacesCap     int
	UsersAvail   int
	FingersAvail int
	RecordsAvail int
}

// parseFreeSizes decodes the 80-byte (optionally +12-byte face block)
// CMD_GET_FREE_SIZES payload.
func parseFreeSizes(data []byte) DeviceCounts {
	i32 := func(idx int) int {
		off := idx * 4
		if off+4 > len(data) {
			return 0
		}
		return int(int32(binary.LittleEndian.Uint32(data[off : off+4])))
	}

	dc := DeviceCounts{
		Users:        i32(4),
		Fingers:      i32(6),
		Records:      i32(8),
		Cards:        i32(12),
		FingersCap:   i32(14),
		UsersCap:     i32(15),
		RecordsCap:   i32(16),
		FingersAvail: i32(17),
		UsersAvail:   i32(18),
		RecordsAvail: i32(19),
	}
	if len(data) >= 92 {
		dc.Faces = int(int32(binary.LittleEndian.Uint32(data[80:84])))
		dc.FacesCap = int(int32(binary.LittleEndian.Uint32(data[88:92])))
	}
	return dc
}

// strip trims a leading "key=" if value carries one, and the trailing NUL
// the device pads option replies with.
func strip(value, key string) string {
	value = strings.TrimRight(value, "\x00")
	if p := key + "="; strings.HasPrefix(value, p) {
		return value[len(p):]
	}
	if idx := strings.IndexByte(value, '='); idx >= 0 {
		return value[idx+1:]
	}
	return value
}
