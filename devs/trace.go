package devs

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// TraceEntry is one output that reached the outside world.
type TraceEntry[P any] struct {
	Time   float64
	Output P
}

// Trace is the observable result of a run, in the order the outputs were
// produced.
type Trace[P any] []TraceEntry[P]

// FormatTime renders a real coordinate the way traces print it: the shortest
// representation that reads back to the same float64.
func FormatTime(r float64) string {
	return strconv.FormatFloat(r, 'g', -1, 64)
}

// Print writes one "<time> - <output>" line per entry. Payloads are
// rendered with format, or with fmt's %v when format is nil.
func (t Trace[P]) Print(w io.Writer, format func(P) string) error {
	if format == nil {
		format = func(p P) string { return fmt.Sprint(p) }
	}

	for _, e := range t {
		_, err := fmt.Fprintf(w, "%s - %s\n", FormatTime(e.Time), format(e.Output))
		if err != nil {
			return err
		}
	}

	return nil
}

func (t Trace[P]) String() string {
	sb := new(strings.Builder)
	_ = t.Print(sb, nil)

	return sb.String()
}
