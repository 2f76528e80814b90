package sqlgen

import "fmt"

// warnings collects notes about dropped or rewritten input. A nil collector
// discards everything.
type warnings struct {
	list []string
}

func (w *warnings) addf(format string, args ...any) {
	if w == nil {
		return
	}
	w.list = append(w.list, fmt.Sprintf(format, args...))
}
