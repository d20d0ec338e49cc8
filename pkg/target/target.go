package target

import (
	"github.com/vikas-lamba/sutwire/pkg/logger"
	"github.com/vikas-lamba/sutwire/pkg/twerr"
)

// Target is the public handle a controller holds: a resolved backend
// scheme bound to that backend's per-target state. Every operation first
// checks whether the bound Handle implements the corresponding capability
// interface, and fails with twerr.CodeNotSupported if not.
type Target struct {
	scheme string
	handle Handle
}

// Scheme returns the backend name this target resolved to.
func (t *Target) Scheme() string {
	return t.scheme
}

// RunCommand executes req against the target.
func (t *Target) RunCommand(req CommandRequest) (twerr.Status, error) {
	runner, ok := t.handle.(CommandRunner)
	if !ok {
		return twerr.Status{}, twerr.New(twerr.CodeNotSupported)
	}
	return runner.RunCommand(req)
}

// InjectFile uploads req.Local to the target.
func (t *Target) InjectFile(req InjectRequest) (twerr.Status, error) {
	injector, ok := t.handle.(FileInjector)
	if !ok {
		return twerr.Status{}, twerr.New(twerr.CodeNotSupported)
	}
	return injector.InjectFile(req)
}

// ExtractFile downloads req.RemotePath from the target.
func (t *Target) ExtractFile(req ExtractRequest) (twerr.Status, error) {
	extractor, ok := t.handle.(FileExtractor)
	if !ok {
		return twerr.Status{}, twerr.New(twerr.CodeNotSupported)
	}
	return extractor.ExtractFile(req)
}

// Interrupt forwards an interrupt to the target's running foreground
// command, if any.
func (t *Target) Interrupt() error {
	interrupter, ok := t.handle.(Interrupter)
	if !ok {
		return twerr.New(twerr.CodeNotSupported)
	}
	return interrupter.InterruptCommand()
}

// ExitRemote asks the target to shut itself down. No backend in this
// module supports it today.
func (t *Target) ExitRemote() error {
	exiter, ok := t.handle.(RemoteExiter)
	if !ok {
		return twerr.New(twerr.CodeNotSupported)
	}
	return exiter.ExitRemote()
}

// Close releases the target's resources. Unlike the other operations, a
// Handle with no Dispose is not an error — it simply needed no teardown.
func (t *Target) Close() error {
	disposer, ok := t.handle.(Disposer)
	if !ok {
		return nil
	}
	if err := disposer.Dispose(); err != nil {
		logger.Get().Debugf("target: dispose for scheme %q failed: %v", t.scheme, err)
		return err
	}
	return nil
}
