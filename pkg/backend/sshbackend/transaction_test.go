package sshbackend

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/vikas-lamba/sutwire/pkg/iostream"
	"github.com/vikas-lamba/sutwire/pkg/target"
	"github.com/vikas-lamba/sutwire/pkg/twerr"
)

func TestRunCommandCleanExitCapturesStatusAndOutput(t *testing.T) {
	addr, stop := startFakeSSHServer(t, func(cmd string, ch ssh.Channel) {
		_, _ = ch.Write([]byte("hello\n"))
		exitStatus(ch, 0)
	})
	defer stop()

	h := testHandle(t, addr)
	outSink, out := iostream.ToBuffer()

	status, err := h.RunCommand(target.CommandRequest{
		Command: "echo hello",
		Stdout:  outSink,
		Stderr:  iostream.NoSink,
	})

	require.NoError(t, err)
	assert.False(t, status.Signaled())
	assert.Equal(t, 0, status.ExitCode())
	assert.Equal(t, "hello\n", out.String())
}

func TestRunCommandNonZeroExitIsReportedAsStatusNotError(t *testing.T) {
	addr, stop := startFakeSSHServer(t, func(cmd string, ch ssh.Channel) {
		exitStatus(ch, 3)
	})
	defer stop()

	h := testHandle(t, addr)
	status, err := h.RunCommand(target.CommandRequest{
		Command: "exit 3",
		Stdout:  iostream.NoSink,
		Stderr:  iostream.NoSink,
	})

	require.NoError(t, err)
	assert.False(t, status.Signaled())
	assert.Equal(t, 3, status.ExitCode())
}

func TestRunCommandSignalKillMapsToEFAULTAndSignalNumber(t *testing.T) {
	addr, stop := startFakeSSHServer(t, func(cmd string, ch ssh.Channel) {
		exitSignal(ch, "KILL")
	})
	defer stop()

	h := testHandle(t, addr)
	status, err := h.RunCommand(target.CommandRequest{
		Command: "sleep 100",
		Stdout:  iostream.NoSink,
		Stderr:  iostream.NoSink,
	})

	require.NoError(t, err)
	assert.True(t, status.Signaled())
	assert.Equal(t, twerr.EFAULT, status.Major)
	assert.Equal(t, signalNumber("KILL"), status.SignalNumber())
}

func TestRunCommandForwardsStdinAndSeparatesStderr(t *testing.T) {
	addr, stop := startFakeSSHServer(t, func(cmd string, ch ssh.Channel) {
		in, err := io.ReadAll(ch)
		if err != nil {
			exitStatus(ch, 1)
			return
		}
		_, _ = ch.Write([]byte("out:" + string(in)))
		_, _ = ch.Stderr().Write([]byte("err:" + string(in)))
		exitStatus(ch, 0)
	})
	defer stop()

	h := testHandle(t, addr)
	outSink, out := iostream.ToBuffer()
	errSink, errBuf := iostream.ToBuffer()

	status, err := h.RunCommand(target.CommandRequest{
		Command: "cat",
		Stdin:   strings.NewReader("ping"),
		Stdout:  outSink,
		Stderr:  errSink,
	})

	require.NoError(t, err)
	assert.Equal(t, 0, status.ExitCode())
	assert.Equal(t, "out:ping", out.String())
	assert.Equal(t, "err:ping", errBuf.String())
}

func TestRunCommandTimeoutReturnsWithoutWaitingForStdinEOF(t *testing.T) {
	addr, stop := startFakeSSHServer(t, func(cmd string, ch ssh.Channel) {
		// Simulate a remote command that outlives the client's deadline;
		// the server side is never told to hurry up, matching a real
		// unresponsive remote process.
		time.Sleep(2 * time.Second)
		exitStatus(ch, 0)
	})
	defer stop()

	h := testHandle(t, addr)

	// A pipe whose write end is never written to or closed: Read blocks
	// forever. Before the stdinDone fix, RunCommand would hang on this
	// regardless of the timeout.
	stdinReader, stdinWriter := io.Pipe()
	defer stdinWriter.Close()

	started := time.Now()
	status, err := h.RunCommand(target.CommandRequest{
		Command: "sleep 2",
		Timeout: 150 * time.Millisecond,
		Stdin:   stdinReader,
		Stdout:  iostream.NoSink,
		Stderr:  iostream.NoSink,
	})
	elapsed := time.Since(started)

	require.Error(t, err)
	assert.Equal(t, twerr.CodeCommandTimeout, twerr.CodeOf(err))
	assert.Equal(t, twerr.Status{}, status)
	assert.Less(t, elapsed, time.Second,
		"RunCommand must return close to its timeout even when local stdin never reaches EOF")
}

func TestRunCommandRejectsEmptyCommand(t *testing.T) {
	h := &Handle{}
	_, err := h.RunCommand(target.CommandRequest{Command: ""})
	require.Error(t, err)
	assert.Equal(t, twerr.CodeParameter, twerr.CodeOf(err))
}

func TestRunCommandRejectsReentrantForegroundCommand(t *testing.T) {
	addr, stop := startFakeSSHServer(t, func(cmd string, ch ssh.Channel) {
		time.Sleep(200 * time.Millisecond)
		exitStatus(ch, 0)
	})
	defer stop()

	h := testHandle(t, addr)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = h.RunCommand(target.CommandRequest{
			Command: "sleep 0.2",
			Stdout:  iostream.NoSink,
			Stderr:  iostream.NoSink,
		})
	}()

	// Give the first command a moment to register itself as foreground
	// before the second one tries to start.
	time.Sleep(20 * time.Millisecond)
	_, err := h.RunCommand(target.CommandRequest{
		Command: "echo too-soon",
		Stdout:  iostream.NoSink,
		Stderr:  iostream.NoSink,
	})
	require.Error(t, err)
	assert.Equal(t, twerr.CodeParameter, twerr.CodeOf(err))

	<-done
}

func TestRunCommandWithTTYSendsCtrlDBeforeClosingStdin(t *testing.T) {
	received := make(chan []byte, 1)
	addr, stop := startFakeSSHServer(t, func(cmd string, ch ssh.Channel) {
		buf, _ := io.ReadAll(ch)
		received <- buf
		exitStatus(ch, 0)
	})
	defer stop()

	h := testHandle(t, addr)
	status, err := h.RunCommand(target.CommandRequest{
		Command:    "cat",
		RequestTTY: true,
		Stdin:      strings.NewReader("hi"),
		Stdout:     iostream.NoSink,
		Stderr:     iostream.NoSink,
	})

	require.NoError(t, err)
	assert.Equal(t, 0, status.ExitCode())

	buf := <-received
	require.NotEmpty(t, buf)
	assert.Equal(t, byte(0x04), buf[len(buf)-1],
		"a TTY-backed session must see a literal Ctrl-D before the stdin channel closes")
}

func TestInterruptWithoutOpenChannelReportsOpenSessionError(t *testing.T) {
	tx := &Transaction{useTTY: true, channelReady: false}
	err := tx.interrupt()
	require.Error(t, err)
	assert.Equal(t, twerr.CodeOpenSession, twerr.CodeOf(err))
}
