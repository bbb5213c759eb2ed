package tool

import (
	"fmt"
	"time"
)

// SerialNumber builds a certificate serial of the form SN-<seq>-<timestamp>.
// The timestamp is nanosecond resolution so serials from batches minted in
// the same instant stay distinct.
func SerialNumber(seq int, at time.Time) string {
	return fmt.Sprintf("SN-%d-%d", seq, at.UnixNano())
}
