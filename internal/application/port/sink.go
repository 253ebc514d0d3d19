package port

import "time"

type Sink interface {
	// Live line: overwrite the current line (no newline)
	WriteLive(line string) error
	// Snapshot line: append a timestamped historical line, leaving an
	// empty line for future live updates
	WriteSnapshot(ts time.Time, line string) error
	// Normal newline (for logs)
	NewLine() error
}
