package target

import (
	"os"
	"time"

	"github.com/vikas-lamba/sutwire/pkg/iostream"
)

// CommandRequest is the input to RunCommand.
type CommandRequest struct {
	// Command is the remote command line to execute. Must be non-empty.
	Command string
	// User overrides the target's default user for this one command. Empty
	// means "use the target's configured default" (the SSH backend
	// defaults that to "root").
	User string
	// Timeout bounds the whole command; zero means no deadline.
	Timeout time.Duration
	// RequestTTY asks the backend to allocate a pseudo-terminal for the
	// remote command, which also changes how EOF and interrupts are
	// delivered.
	RequestTTY bool

	Stdin  iostream.Source
	Stdout iostream.Sink
	Stderr iostream.Sink
}

// InjectRequest is the input to InjectFile (upload).
type InjectRequest struct {
	User string
	// Local is the local content to upload. If it also implements
	// io.Seeker, its size is read directly; otherwise it is buffered in
	// memory first so its size can be announced up front, as the SCP wire
	// protocol requires.
	Local      iostream.Source
	RemotePath string
	Mode       os.FileMode
}

// ExtractRequest is the input to ExtractFile (download).
type ExtractRequest struct {
	User       string
	RemotePath string
	Local      iostream.Sink
}
