package sshbackend

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/vikas-lamba/sutwire/pkg/logger"
	"github.com/vikas-lamba/sutwire/pkg/sink"
	"github.com/vikas-lamba/sutwire/pkg/target"
	"github.com/vikas-lamba/sutwire/pkg/twerr"
)

// This file hand-implements the SCP wire exchange over a plain SSH exec
// channel (running the remote "scp" program in sink/source mode), since
// neither the SSH client library nor a generic SFTP client speaks it: SCP
// requires the file size to be announced up front in a size-prefixed
// control line, and distinguishes "target is a directory" from "target is
// a file" at the protocol level (the "-d" flag below), which is exactly
// the directory-existence check the upload path needs.

var (
	_ target.FileInjector  = (*Handle)(nil)
	_ target.FileExtractor = (*Handle)(nil)
)

// ackOK, ackWarning, and ackError are the three leading-byte values the SCP
// wire protocol uses for every handshake response.
const (
	ackOK      byte = 0
	ackWarning byte = 1
	ackError   byte = 2
)

func writeAck(w io.Writer) error {
	_, err := w.Write([]byte{ackOK})
	return err
}

// readAck reads a single protocol acknowledgement. A non-zero leading byte
// is followed by a human-readable message terminated by '\n'.
func readAck(r *bufio.Reader) error {
	b, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("failed to read acknowledgement: %w", err)
	}
	if b == ackOK {
		return nil
	}
	msg, _ := r.ReadString('\n')
	return fmt.Errorf("remote scp error: %s", strings.TrimSpace(msg))
}

// InjectFile implements target.FileInjector by driving a remote "scp -t -d"
// sink process.
func (h *Handle) InjectFile(req target.InjectRequest) (twerr.Status, error) {
	log := logger.Get()

	size, reader, err := sizeAndReader(req.Local)
	if err != nil {
		return twerr.Status{}, twerr.Wrap(twerr.CodeLocalFile, err)
	}

	dir, base := path.Split(req.RemotePath)
	switch {
	case dir == "":
		dir = "."
	case dir == "/":
		// keep as root
	default:
		dir = strings.TrimSuffix(dir, "/")
	}
	if base == "" {
		return twerr.Status{}, twerr.New(twerr.CodeParameter)
	}

	mode := req.Mode
	if mode == 0 {
		mode = 0644
	}

	client, err := openSession(h.template, req.User)
	if err != nil {
		return twerr.Status{}, err
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return twerr.Status{}, twerr.Wrap(twerr.CodeOpenSession, err)
	}
	defer session.Close()

	stdin, err := session.StdinPipe()
	if err != nil {
		return twerr.Status{}, twerr.Wrap(twerr.CodeSendFile, err)
	}
	stdoutPipe, err := session.StdoutPipe()
	if err != nil {
		return twerr.Status{}, twerr.Wrap(twerr.CodeSendFile, err)
	}
	stdout := bufio.NewReader(stdoutPipe)
	var stderrBuf bytes.Buffer
	session.Stderr = &stderrBuf

	cmd := fmt.Sprintf("scp -t -d %s", shellQuote(dir))
	log.Debugf("sshbackend: inject %s -> %s (%d bytes)", req.RemotePath, cmd, size)
	if err := session.Start(cmd); err != nil {
		return twerr.Status{}, twerr.Wrap(twerr.CodeSendFile, err)
	}

	fmt.Fprintf(stdin, "C%04o %d %s\n", mode.Perm(), size, base)
	if err := readAck(stdout); err != nil {
		// The remote refused before accepting any data: most likely the
		// directory check failed, i.e. dir doesn't exist. Some servers
		// would otherwise silently create a regular file named dir, which
		// is exactly what "-d" above is there to prevent.
		return twerr.Status{Major: 1}, twerr.Wrap(twerr.CodeSendFile, err)
	}

	progress := h.sink
	if progress == nil {
		progress = sink.New(sink.Discard, 0)
	}

	buf := make([]byte, forwardChunkSize)
	var remaining = size
	for remaining > 0 {
		chunk := int64(len(buf))
		if chunk > remaining {
			chunk = remaining
		}
		n, rerr := reader.Read(buf[:chunk])
		if n == 0 && rerr != nil {
			return twerr.Status{}, twerr.Wrap(twerr.CodeLocalFile, rerr)
		}
		if _, werr := stdin.Write(buf[:n]); werr != nil {
			return twerr.Status{}, twerr.Wrap(twerr.CodeSendFile, werr)
		}
		_ = progress.WriteByte(false, '.')
		remaining -= int64(n)
		if rerr != nil && rerr != io.EOF && remaining > 0 {
			return twerr.Status{}, twerr.Wrap(twerr.CodeLocalFile, rerr)
		}
	}

	if err := writeAck(stdin); err != nil {
		return twerr.Status{}, twerr.Wrap(twerr.CodeSendFile, err)
	}
	if err := readAck(stdout); err != nil {
		return twerr.Status{}, twerr.Wrap(twerr.CodeRemoteFile, err)
	}
	_ = stdin.Close()
	_ = progress.WriteByte(false, '\n')

	if err := session.Wait(); err != nil {
		return twerr.Status{Major: 1}, twerr.Wrap(twerr.CodeRemoteFile, err)
	}

	return twerr.Status{Major: 0, Minor: 0}, nil
}

// ExtractFile implements target.FileExtractor by driving a remote
// "scp -f" source process.
func (h *Handle) ExtractFile(req target.ExtractRequest) (twerr.Status, error) {
	log := logger.Get()

	client, err := openSession(h.template, req.User)
	if err != nil {
		return twerr.Status{}, err
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return twerr.Status{}, twerr.Wrap(twerr.CodeOpenSession, err)
	}
	defer session.Close()

	stdin, err := session.StdinPipe()
	if err != nil {
		return twerr.Status{}, twerr.Wrap(twerr.CodeReceiveFile, err)
	}
	stdoutPipe, err := session.StdoutPipe()
	if err != nil {
		return twerr.Status{}, twerr.Wrap(twerr.CodeReceiveFile, err)
	}
	stdout := bufio.NewReader(stdoutPipe)

	cmd := fmt.Sprintf("scp -f %s", shellQuote(req.RemotePath))
	log.Debugf("sshbackend: extract %s via %s", req.RemotePath, cmd)
	if err := session.Start(cmd); err != nil {
		return twerr.Status{}, twerr.Wrap(twerr.CodeReceiveFile, err)
	}

	if err := writeAck(stdin); err != nil {
		return twerr.Status{}, twerr.Wrap(twerr.CodeReceiveFile, err)
	}

	line, err := stdout.ReadString('\n')
	if err != nil {
		return twerr.Status{}, twerr.Wrap(twerr.CodeReceiveFile, err)
	}
	if len(line) > 0 && (line[0] == ackWarning || line[0] == ackError) {
		return twerr.Status{Major: 1}, twerr.Wrap(twerr.CodeReceiveFile, fmt.Errorf("remote scp error: %s", strings.TrimSpace(line[1:])))
	}

	size, err := parseControlLine(line)
	if err != nil {
		return twerr.Status{}, twerr.Wrap(twerr.CodeReceiveFile, err)
	}

	if err := writeAck(stdin); err != nil {
		return twerr.Status{}, twerr.Wrap(twerr.CodeReceiveFile, err)
	}

	progress := h.sink
	if progress == nil {
		progress = sink.New(sink.Discard, 0)
	}

	remaining := size
	buf := make([]byte, forwardChunkSize)
	for remaining > 0 {
		chunk := int64(len(buf))
		if chunk > remaining {
			chunk = remaining
		}
		n, rerr := io.ReadFull(stdout, buf[:chunk])
		if n > 0 {
			if _, werr := req.Local.Write(buf[:n]); werr != nil {
				return twerr.Status{}, twerr.Wrap(twerr.CodeLocalFile, werr)
			}
			_ = progress.WriteByte(false, '.')
		}
		if rerr != nil {
			return twerr.Status{}, twerr.Wrap(twerr.CodeReceiveFile, rerr)
		}
		remaining -= int64(n)
	}

	if err := readAck(stdout); err != nil {
		return twerr.Status{}, twerr.Wrap(twerr.CodeReceiveFile, err)
	}
	if err := writeAck(stdin); err != nil {
		return twerr.Status{}, twerr.Wrap(twerr.CodeReceiveFile, err)
	}
	_ = stdin.Close()
	_ = progress.WriteByte(false, '\n')

	if err := session.Wait(); err != nil {
		return twerr.Status{Major: 1}, twerr.Wrap(twerr.CodeRemoteFile, err)
	}

	return twerr.Status{Major: 0, Minor: 0}, nil
}

// parseControlLine parses "C0644 1234 name\n" and returns the announced
// size. The mode and name are not needed by the caller today: the local
// destination's name and permissions are the caller's own to decide.
func parseControlLine(line string) (int64, error) {
	line = strings.TrimSuffix(line, "\n")
	fields := strings.SplitN(line, " ", 3)
	if len(fields) != 3 || len(fields[0]) == 0 || fields[0][0] != 'C' {
		return 0, fmt.Errorf("unrecognized scp control line %q", line)
	}
	size, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unrecognized scp file size in %q: %w", line, err)
	}
	return size, nil
}

// sizeAndReader determines the byte count SCP must announce up front. A
// seekable source's size is read directly; a non-seekable source (e.g. an
// in-memory pipe or os.Stdin) is fully buffered first, per the "buffer the
// whole thing" fallback.
func sizeAndReader(r io.Reader) (int64, io.Reader, error) {
	if seeker, ok := r.(io.Seeker); ok {
		size, err := seeker.Seek(0, io.SeekEnd)
		if err == nil {
			if _, err := seeker.Seek(0, io.SeekStart); err != nil {
				return 0, nil, err
			}
			return size, r, nil
		}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return 0, nil, err
	}
	return int64(len(data)), bytes.NewReader(data), nil
}

// shellQuote wraps a path in single quotes for inclusion in the remote scp
// command line, escaping any embedded single quote.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
