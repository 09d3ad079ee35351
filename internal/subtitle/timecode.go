package subtitle

import (
	"fmt"
	"strings"
)

// renders elapsed seconds as H:MM:SS, hours unpadded and unbounded
func FormatTimecode(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// Locate returns the index of the first line containing the timecode for
// seconds. Later matches are never considered.
func Locate(lines Lines, seconds int) (int, bool) {
	if seconds < 0 {
		return 0, false
	}
	tc := FormatTimecode(seconds)
	for i, line := range lines {
		if strings.Contains(line, tc) {
			return i, true
		}
	}
	return 0, false
}
