// Package twerr defines the fixed error vocabulary shared by every backend
// in this module: a small set of named failure kinds, a human-readable
// message per kind, and an Error type that carries a Code plus an optional
// wrapped cause.
package twerr

import (
	"errors"
	"fmt"
	"io"
)

// Code identifies the kind of failure a backend operation returned. The set
// is fixed and mirrors the error vocabulary every backend must surface.
type Code int

const (
	// CodeOK is the zero value: no error.
	CodeOK Code = iota
	// CodeParameter marks a caller-supplied argument that is invalid on its
	// face (empty command, re-entrant foreground transaction, ...).
	CodeParameter
	// CodeOpenSession marks failure to establish or authenticate the
	// transport session for a command or transfer.
	CodeOpenSession
	// CodeSendCommand marks failure to issue the remote command itself
	// after the session and channel are open.
	CodeSendCommand
	// CodeForwardInput marks failure forwarding local stdin to the remote
	// process.
	CodeForwardInput
	// CodeReceiveResults marks failure reading the remote process's
	// stdout/stderr or exit status.
	CodeReceiveResults
	// CodeLocalFile marks failure reading or writing the local side of a
	// file transfer.
	CodeLocalFile
	// CodeSendFile marks failure on the remote side of an upload.
	CodeSendFile
	// CodeRemoteFile marks a remote-file-transfer error surfaced via the
	// underlying status pair rather than a transport exception.
	CodeRemoteFile
	// CodeReceiveFile marks failure on the remote side of a download.
	CodeReceiveFile
	// CodeInterrupt marks failure delivering an interrupt to a running
	// command.
	CodeInterrupt
	// CodeInvalidTargetSpec marks a target spec string that does not parse.
	CodeInvalidTargetSpec
	// CodeUnknownPlugin marks a target spec naming a backend scheme with no
	// registered backend.
	CodeUnknownPlugin
	// CodeIncompatiblePlugin marks a backend that loaded but does not
	// expose the operations this module requires of it.
	CodeIncompatiblePlugin
	// CodeCommandTimeout marks a command that exceeded its deadline.
	CodeCommandTimeout
	// CodeNotSupported marks an operation the bound backend does not
	// implement.
	CodeNotSupported
)

var messages = map[Code]string{
	CodeOK:                 "no error",
	CodeParameter:          "invalid parameter",
	CodeOpenSession:        "unable to open a session to the target",
	CodeSendCommand:        "unable to send command to target",
	CodeForwardInput:       "unable to forward input to target",
	CodeReceiveResults:     "unable to receive results from target",
	CodeLocalFile:          "local file error",
	CodeSendFile:           "failure transferring file to target",
	CodeRemoteFile:         "remote file error",
	CodeReceiveFile:        "failure transferring file from target",
	CodeInterrupt:          "unable to interrupt command",
	CodeInvalidTargetSpec:  "invalid target specification",
	CodeUnknownPlugin:      "unknown plugin",
	CodeIncompatiblePlugin: "incompatible plugin",
	CodeCommandTimeout:     "command timed out",
	CodeNotSupported:       "operation not supported by this backend",
}

// String implements strerror(3)-style lookup of a human-readable message
// for a code.
func (c Code) String() string {
	if msg, ok := messages[c]; ok {
		return msg
	}
	return fmt.Sprintf("unknown error code %d", int(c))
}

// Error is the single error type every public operation in this module
// returns. It carries a Code from the fixed vocabulary plus an optional
// wrapped cause, so callers can either switch on Code or errors.As through
// to the underlying transport error.
type Error struct {
	Code  Code
	Cause error
}

// New constructs an *Error for a code with no wrapped cause.
func New(code Code) *Error {
	return &Error{Code: code}
}

// Wrap constructs an *Error for a code around an underlying cause.
func Wrap(code Code, cause error) *Error {
	return &Error{Code: code, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Code.String(), e.Cause)
	}
	return e.Code.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is(err, twerr.New(code)) match any *Error with the same
// Code, independent of its wrapped cause.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return other.Code == e.Code
	}
	return false
}

// CodeOf extracts the Code carried by err, or CodeOK if err is nil, or
// CodeReceiveResults as a fallback for an error this package didn't produce.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	var twe *Error
	if errors.As(err, &twe) {
		return twe.Code
	}
	return CodeReceiveResults
}

// Perror writes "<prefix>: <message>.\n" to w, the Go rendition of the
// original strerror/perror pairing used to report a failure to a
// controller's diagnostic stream.
func Perror(w io.Writer, prefix string, err error) {
	msg := "no error"
	if err != nil {
		msg = err.Error()
	}
	fmt.Fprintf(w, "%s: %s.\n", prefix, msg)
}
