package failure

import "github.com/danmuck/jvlmtest/internal/tools"

// FromResult converts a launched command's result into a stage failure, or nil
// when the command exited zero within its limit.
func FromResult(cmd tools.Command, res tools.Result) Failure {
	if res.TimedOut {
		return TimeoutFailure{Command: cmd.Name, Seconds: cmd.Timeout.Seconds()}
	}
	if res.ExitCode != 0 {
		return StatusCodeFailure{
			Command:  cmd.Name,
			ExitCode: res.ExitCode,
			Stdout:   res.Stdout,
			Stderr:   res.Stderr,
		}
	}
	return nil
}
