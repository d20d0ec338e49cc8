package target

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vikas-lamba/sutwire/pkg/twerr"
)

// stubHandle implements only CommandRunner and Disposer, to exercise the
// "not supported" fallback for every other capability.
type stubHandle struct {
	disposed bool
}

func (s *stubHandle) RunCommand(req CommandRequest) (twerr.Status, error) {
	return twerr.Status{Major: 0, Minor: 0}, nil
}

func (s *stubHandle) Dispose() error {
	s.disposed = true
	return nil
}

type stubBackend struct {
	name      string
	handle    *stubHandle
	err       error
	nilHandle bool
}

func (b *stubBackend) Name() string { return b.name }
func (b *stubBackend) Init(spec string) (Handle, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.nilHandle {
		return nil, nil
	}
	return b.handle, nil
}

func TestNewDispatchesToRegisteredBackend(t *testing.T) {
	h := &stubHandle{}
	Register(&stubBackend{name: "stub1", handle: h})

	tgt, err := New("stub1:example.com")
	require.NoError(t, err)
	assert.Equal(t, "stub1", tgt.Scheme())

	status, err := tgt.RunCommand(CommandRequest{Command: "echo hi"})
	require.NoError(t, err)
	assert.Equal(t, twerr.Status{Major: 0, Minor: 0}, status)
}

func TestNewUnknownSchemeFails(t *testing.T) {
	_, err := New("nosuchscheme:foo")
	require.Error(t, err)
	assert.Equal(t, twerr.CodeUnknownPlugin, twerr.CodeOf(err))
}

func TestNewNilHandleFromInitFails(t *testing.T) {
	Register(&stubBackend{name: "stub-nil-handle", nilHandle: true})

	_, err := New("stub-nil-handle:foo")
	require.Error(t, err)
	assert.Equal(t, twerr.CodeUnknownPlugin, twerr.CodeOf(err))
}

func TestNewEmptySchemeFails(t *testing.T) {
	_, err := New(":foo")
	require.Error(t, err)
	assert.Equal(t, twerr.CodeInvalidTargetSpec, twerr.CodeOf(err))
}

func TestUnimplementedOperationReportsNotSupported(t *testing.T) {
	h := &stubHandle{}
	Register(&stubBackend{name: "stub2", handle: h})

	tgt, err := New("stub2:example.com")
	require.NoError(t, err)

	_, err = tgt.InjectFile(InjectRequest{})
	assert.Equal(t, twerr.CodeNotSupported, twerr.CodeOf(err))

	_, err = tgt.ExtractFile(ExtractRequest{})
	assert.Equal(t, twerr.CodeNotSupported, twerr.CodeOf(err))

	err = tgt.Interrupt()
	assert.Equal(t, twerr.CodeNotSupported, twerr.CodeOf(err))

	err = tgt.ExitRemote()
	assert.Equal(t, twerr.CodeNotSupported, twerr.CodeOf(err))
}

func TestCloseCallsDispose(t *testing.T) {
	h := &stubHandle{}
	Register(&stubBackend{name: "stub3", handle: h})

	tgt, err := New("stub3:example.com")
	require.NoError(t, err)

	require.NoError(t, tgt.Close())
	assert.True(t, h.disposed)
}

func TestRegisterDuplicateNamePanics(t *testing.T) {
	Register(&stubBackend{name: "stub4", handle: &stubHandle{}})
	assert.Panics(t, func() {
		Register(&stubBackend{name: "stub4", handle: &stubHandle{}})
	})
}
