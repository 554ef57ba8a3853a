package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"devguard/internal/report"

	"github.com/fatih/color"
)

// Event is a lifecycle marker for the streaming console.
type Event struct {
	Type     string
	Checks   int
	ExitCode int
}

// ConsoleSink streams one line per folded record as the pipeline runs.
type ConsoleSink struct {
	writer          io.Writer
	mu              sync.Mutex
	allowedStatuses map[string]bool
}

func NewConsoleSink(w io.Writer, filterStatuses []string) *ConsoleSink {
	if w == nil {
		w = os.Stderr
	}
	s := &ConsoleSink{writer: w}
	if len(filterStatuses) > 0 {
		s.allowedStatuses = make(map[string]bool)
		for _, st := range filterStatuses {
			s.allowedStatuses[strings.ToUpper(st)] = true
		}
	}
	return s
}

var statusColors = map[report.Status]*color.Color{
	report.StatusPass: color.New(color.FgGreen),
	report.StatusFail: color.New(color.FgRed, color.Bold),
	report.StatusSkip: color.New(color.FgYellow),
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch t := v.(type) {
	case report.Record:
		if len(s.allowedStatuses) > 0 && !s.allowedStatuses[string(t.Status)] {
			return nil
		}
		status := string(t.Status)
		if c, ok := statusColors[t.Status]; ok {
			status = c.Sprint(status)
		}
		line := fmt.Sprintf("[%s] %s", status, t.Name)
		if t.Message != "" {
			line += " - " + t.Message
		}
		_, err := fmt.Fprintln(s.writer, line)
		return err
	case Event:
		switch t.Type {
		case "run.started":
			_, err := fmt.Fprintf(s.writer, "Running %d checks...\n", t.Checks)
			return err
		case "run.finished":
			_, err := fmt.Fprintf(s.writer, "Done (exit %d).\n", t.ExitCode)
			return err
		}
		return nil
	default:
		return nil
	}
}

func (s *ConsoleSink) Close() error {
	return nil
}
