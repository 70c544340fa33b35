package model

// ShellResult contains the result of a privileged shell command.
type ShellResult struct {
	// Output is the combined stdout/stderr of the command.
	Output string
	// ExitCode is the exit code of the executed command.
	ExitCode int
}

// Success returns true when the command exited cleanly.
func (r ShellResult) Success() bool { return r.ExitCode == 0 }
