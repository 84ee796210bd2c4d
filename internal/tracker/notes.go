package tracker

import (
	"strings"
	"time"
)

const moveInPrefix = "Move-in: "

// withMoveInLine inserts, updates, or strips the synthesized move-in
// date line in a notes field. Every other line is the user's and is
// passed through untouched.
func withMoveInLine(notes string, date *time.Time) string {
	var kept []string
	for _, line := range strings.Split(notes, "\n") {
		if strings.HasPrefix(line, moveInPrefix) {
			continue
		}
		kept = append(kept, line)
	}
	// Drop trailing blank lines left behind by a stripped move-in line.
	for len(kept) > 0 && strings.TrimSpace(kept[len(kept)-1]) == "" {
		kept = kept[:len(kept)-1]
	}

	if date == nil {
		return strings.Join(kept, "\n")
	}

	line := moveInPrefix + date.Format("2006-01-02")
	if len(kept) == 0 {
		return line
	}
	return strings.Join(kept, "\n") + "\n" + line
}
