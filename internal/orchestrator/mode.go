package orchestrator

import "fmt"

type Mode string

const (
	ModeDryRun Mode = "dry_run"
	ModeShowIR Mode = "show_ir"
	ModeJar    Mode = "jar"
	ModeJavap  Mode = "javap"
	ModeTest   Mode = "test"
)

// Modes lists every mode in help order.
var Modes = []Mode{ModeDryRun, ModeShowIR, ModeJar, ModeJavap, ModeTest}

const (
	ExitSuccess  = 0
	ExitUsage    = 1
	ExitFailures = 2
)

// ParseMode maps a mode name to its Mode.
func ParseMode(name string) (Mode, bool) {
	for _, m := range Modes {
		if string(m) == name {
			return m, true
		}
	}
	return "", false
}

// ExitError carries a mode's nonzero exit code to the process boundary.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("exit status %d", e.Code)
}
