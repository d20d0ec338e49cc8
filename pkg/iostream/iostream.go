// Package iostream supplies the local byte source/sink abstraction the
// command-transaction and file-transfer engines read from and write to:
// in-memory buffers, open files, or the process's own stdio.
//
// The original reactor distinguished streams that expose a pollable file
// descriptor from streams that don't (an in-memory buffer is always
// "ready"). This module's transaction engine instead gives every stream its
// own goroutine performing ordinary blocking I/O, so that distinction has
// no Go-side equivalent; Source and Sink are plain io.Reader/io.Writer.
package iostream

import (
	"bytes"
	"io"
	"os"
)

// Source is a local byte source bound to a command's stdin.
type Source = io.Reader

// Sink is a local byte destination bound to a command's stdout or stderr,
// or the destination of a file download.
type Sink = io.Writer

// NoSource is a Source that is immediately at EOF, for commands that don't
// forward any local stdin.
var NoSource Source = bytes.NewReader(nil)

// NoSink is a Sink that discards every byte written to it.
var NoSink Sink = io.Discard

// FromBytes wraps an in-memory byte slice as a Source, e.g. for the
// "stdin forwarding" scenario where the caller hands the library a
// complete buffer rather than a live stream.
func FromBytes(p []byte) Source {
	return bytes.NewReader(p)
}

// FromString is the string counterpart of FromBytes.
func FromString(s string) Source {
	return bytes.NewReader([]byte(s))
}

// ToBuffer returns a Sink that accumulates everything written to it, along
// with the *bytes.Buffer backing it so the caller can read the result back
// out after the command completes.
func ToBuffer() (Sink, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return buf, buf
}

// Stdin, Stdout, and Stderr adapt the process's own standard streams for
// use as a command's iostreams, matching the `sutctl run` CLI's default
// wiring.
func Stdin() Source { return os.Stdin }
func Stdout() Sink  { return os.Stdout }
func Stderr() Sink  { return os.Stderr }
