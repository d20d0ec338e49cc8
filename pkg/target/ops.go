package target

import "github.com/vikas-lamba/sutwire/pkg/twerr"

// The following are the optional capability interfaces a backend's Handle
// may implement. Target.* checks these with a type assertion before
// calling through; a Handle that doesn't implement one reports
// twerr.CodeNotSupported, matching a nil entry in the original's ops
// vector.

// CommandRunner runs a foreground command on the target.
type CommandRunner interface {
	RunCommand(req CommandRequest) (twerr.Status, error)
}

// FileInjector uploads a local file to the target.
type FileInjector interface {
	InjectFile(req InjectRequest) (twerr.Status, error)
}

// FileExtractor downloads a remote file from the target.
type FileExtractor interface {
	ExtractFile(req ExtractRequest) (twerr.Status, error)
}

// Interrupter forwards an interrupt to the target's running foreground
// command.
type Interrupter interface {
	InterruptCommand() error
}

// RemoteExiter asks the target to shut itself down. No backend in this
// module implements it; it exists so the public vector is complete.
type RemoteExiter interface {
	ExitRemote() error
}

// Disposer releases whatever resources a Handle holds. A Handle that
// doesn't implement it is assumed to need no explicit teardown.
type Disposer interface {
	Dispose() error
}
