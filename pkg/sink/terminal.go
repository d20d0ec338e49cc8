package sink

import "os"

// writeTerminal is split out from Sink.Write so tests can substitute the
// destination streams.
var (
	terminalStdout = os.Stdout
	terminalStderr = os.Stderr
)

func writeTerminal(isErr bool, p []byte) (int, error) {
	dst := terminalStdout
	if isErr {
		dst = terminalStderr
	}
	return dst.Write(p)
}
