package protocol

import (
	"fmt"
	"time"
)

// Control commands written to the device's control characteristic.
const (
	CmdSend  = "SEND"  // begin a transfer
	CmdErase = "ERASE" // clear device storage
)

// TimeSyncCommand returns the clock-set command for the given time,
// carrying unix epoch seconds.
func TimeSyncCommand(t time.Time) []byte {
	return fmt.Appendf(nil, "TIME:%d", t.Unix())
}
