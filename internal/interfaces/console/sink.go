package console

import (
	"fmt"
	"io"
	"os"
	"time"

	"papertrade/internal/application/port"
)

const clearLine = "\r\033[K"

// Sink renders the board to one terminal: a live line redrawn in place
// and timestamped snapshot lines kept in scrollback.
type Sink struct {
	out io.Writer
}

func NewSink() port.Sink { return &Sink{out: os.Stdout} }

func (s *Sink) WriteLive(line string) error {
	_, err := fmt.Fprint(s.out, line) // no newline, the next redraw overwrites
	return err
}

// WriteSnapshot replaces the stale live line with the snapshot instead
// of pushing it into scrollback, then leaves a blank line where the
// live updates resume.
func (s *Sink) WriteSnapshot(ts time.Time, line string) error {
	_, err := fmt.Fprintf(s.out, "%s%s %s\n\n", clearLine, ts.Format("2006-01-02 15:04:05"), line)
	return err
}

func (s *Sink) NewLine() error {
	_, err := fmt.Fprint(s.out, "\n")
	return err
}
