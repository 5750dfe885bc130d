// Package rbzk is a client for the ZKTeco "ZK" binary protocol spoken by
// fingerprint and biometric attendance terminals.
//
// It implements packet framing, the session/reply-id handshake,
// challenge-response authentication, the chunked bulk-transfer protocol used
// to read large record sets, and the record layouts for users, attendance
// logs and fingerprint templates.
//
// Usage:
//
//	c := rbzk.NewClient("192.168.1.201", 4370,
//		rbzk.WithTimeout(25*time.Second),
//		rbzk.WithPassword(0),
//	)
//	if err := c.Connect(context.Background()); err != nil {
//		log.Fatal(err)
//	}
//	defer c.Disconnect()
//
//	serial, _ := c.SerialNumber()
//	fmt.Println("Serial:", serial)
package rbzk
