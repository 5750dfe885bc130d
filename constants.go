package rbzk

// Command codes, per the wire protocol.
const (
	cmdConnect  = 1000
	cmdExit     = 1001
	cmdEnable   = 1002
	cmdDisable  = 1003
	cmdRestart  = 1004
	cmdPowerOff = 1005
	cmdSleep    = 1006
	cmdResume   = 1007

	cmdRefresh    = 1013
	cmdTestVoice  = 1017
	cmdOptionsRRQ = 11
	cmdOptionsWRQ = 12
	cmdDevice     = 11

	cmdGetTime = 201
	cmdSetTime = 202

	cmdGetVersion   = 1100
	cmdGetFreeSizes = 50

	cmdAttLogRRQ   = 13
	cmdClearAttLog = 15
	cmdClearData   = 14

	cmdUserWRQ     = 8
	cmdUserTempRRQ = 9
	cmdDeleteUser  = 18
	cmdGetUserTemp = 88

	cmdPrepareBuffer = 1503
	cmdReadBuffer    = 1504
	cmdFreeData      = 1502

	cmdPrepareData = 1500
	cmdData        = 1501

	cmdAuth = 1102

	cmdUnlock     = 31
	cmdDoorStateQ = 35
	cmdWriteLCD   = 66
	cmdClearLCD   = 67

	cmdAckOK     = 2000
	cmdAckError  = 2001
	cmdAckData   = 2002
	cmdAckUnauth = 2005
	cmdTCPAlive  = 2007
)

// Function-type selectors used by the bulk-read family (CMD_PREPARE_BUFFER).
const (
	fctAttLog    = 1
	fctFingerTmp = 7
	fctUser      = 5
)

// Privilege levels for User.Privilege.
const (
	PrivilegeUser     = 0
	PrivilegeEnroller = 2
	PrivilegeManager  = 6
	PrivilegeAdmin    = 14
)

// tcpMagic1 / tcpMagic2 are the two 16-bit magic words that open every TCP
// outer frame.
const (
	tcpMagic1 = 0x5050
	tcpMagic2 = 0x7D82
)

// DefaultPort is the factory default listening port of ZK devices.
const DefaultPort = 4370

// Chunk bounds for a single CMD_READ_BUFFER request.
const (
	maxChunkTCP = 0xFFC0
	maxChunkUDP = 16 * 1024
)

// maxChunkRetries is the number of attempts (the first try included) made
// for a single bulk-read chunk before the transfer fails with a protocol
// error.
const maxChunkRetries = 3

// PrivilegeName returns a human-readable name for a User.Privilege value.
func PrivilegeName(p uint8) string {
	switch p {
	case PrivilegeUser:
		return "User"
	case PrivilegeEnroller:
		return "Enroller"
	case PrivilegeManager:
		return "Manager"
	case PrivilegeAdmin:
		return "Admin"
	default:
		return "Unknown"
	}
}

// PunchName returns a human-readable name for an Attendance.Punch value, by
// the conventional 0=check-in/1=check-out mapping. Devices are free to use
// other values; those pass through as "Unknown".
func PunchName(punch uint8) string {
	switch punch {
	case 0:
		return "Check-In"
	case 1:
		return "Check-Out"
	default:
		return "Unknown"
	}
}
