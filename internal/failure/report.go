package failure

import (
	"fmt"
	"io"
)

// Report writes the failure summary for a finished run.
// A single failure gets its detailed rendering; several get one short line each.
func Report(w io.Writer, failures []Failure) {
	switch len(failures) {
	case 0:
		return
	case 1:
		fmt.Fprintf(w, "!! %s\n", failures[0].Detail())
	default:
		for _, f := range failures {
			fmt.Fprintf(w, "!! %s\n", f.Short())
		}
	}
}

// ReportShort writes one short line per failure regardless of count.
func ReportShort(w io.Writer, failures []Failure) {
	for _, f := range failures {
		fmt.Fprintf(w, "!! %s\n", f.Short())
	}
}
