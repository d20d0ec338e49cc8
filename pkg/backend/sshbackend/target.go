// Package sshbackend implements the SSH/SCP transport backend: the
// session factory, the command-transaction event loop, the SCP file
// transfer engine, and the interrupt path, all registered under the
// "ssh" scheme with pkg/target.
package sshbackend

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/vikas-lamba/sutwire/pkg/logger"
	"github.com/vikas-lamba/sutwire/pkg/sink"
	"github.com/vikas-lamba/sutwire/pkg/target"
	"github.com/vikas-lamba/sutwire/pkg/twerr"
	"golang.org/x/crypto/ssh"
)

// DefaultPort is used when a target spec carries no ":port" suffix.
const DefaultPort = 22

func init() {
	target.Register(&Backend{})
}

// Backend is the "ssh" scheme's target.Backend descriptor.
type Backend struct{}

func (b *Backend) Name() string { return "ssh" }

// Init parses spec as "HOST[:PORT]" (HOST may be bracketed IPv6, as in
// "[::1]:2222") and builds the session template a Handle's per-command
// sessions will be cloned from. It does not connect; connecting happens
// lazily per transaction.
func (b *Backend) Init(spec string) (target.Handle, error) {
	host, port, err := parseHostPort(spec)
	if err != nil {
		return nil, err
	}

	h := &Handle{
		template: SessionTemplate{
			Host: host,
			Port: port,
			User: "root",
			Auth: DefaultAuth(),
		},
		sink: sink.New(sink.Discard, 0),
	}
	logger.Get().Debugf("sshbackend: initialized target %s:%d", host, port)
	return h, nil
}

// parseHostPort implements the original's rightmost-colon split: the
// substring after the last ":" is the port if present, everything before
// it is the host, and a bracketed "[addr]" host has its brackets stripped.
// Port must parse as a strictly-less-than-65535 decimal, matching the
// original source's comparison exactly rather than the more commonly
// expected "<=".
func parseHostPort(spec string) (host string, port int, err error) {
	if spec == "" {
		return "", 0, twerr.New(twerr.CodeInvalidTargetSpec)
	}

	host = spec
	port = DefaultPort

	if strings.HasPrefix(spec, "[") {
		closeIdx := strings.IndexByte(spec, ']')
		if closeIdx < 0 {
			return "", 0, twerr.New(twerr.CodeInvalidTargetSpec)
		}
		host = spec[1:closeIdx]
		rest := spec[closeIdx+1:]
		if rest == "" {
			return host, port, nil
		}
		if !strings.HasPrefix(rest, ":") {
			return "", 0, twerr.New(twerr.CodeInvalidTargetSpec)
		}
		port, err = parsePort(rest[1:])
		if err != nil {
			return "", 0, err
		}
		return host, port, nil
	}

	idx := strings.LastIndexByte(spec, ':')
	if idx < 0 {
		return spec, port, nil
	}
	host = spec[:idx]
	if host == "" {
		return "", 0, twerr.New(twerr.CodeInvalidTargetSpec)
	}
	port, err = parsePort(spec[idx+1:])
	if err != nil {
		return "", 0, err
	}
	return host, port, nil
}

func parsePort(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n >= 65535 {
		return 0, twerr.Wrap(twerr.CodeInvalidTargetSpec, fmt.Errorf("invalid port %q", s))
	}
	return n, nil
}

// SessionTemplate is the immutable-once-built set of options every
// transaction's session is cloned from.
type SessionTemplate struct {
	Host string
	Port int
	User string
	Auth []ssh.AuthMethod
	// HostKeyCallback overrides DefaultHostKeyCallback when set (see
	// knownhosts.go).
	HostKeyCallback ssh.HostKeyCallback
}

// Handle is the per-target state the SSH backend hands back to
// pkg/target: the session template plus the single foreground-transaction
// slot the command-transaction engine enforces.
type Handle struct {
	template SessionTemplate

	mu          sync.Mutex
	foreground  *Transaction
	sink        *sink.Sink
}

var (
	_ target.CommandRunner  = (*Handle)(nil)
	_ target.FileInjector   = (*Handle)(nil)
	_ target.FileExtractor  = (*Handle)(nil)
	_ target.Interrupter    = (*Handle)(nil)
	_ target.Disposer       = (*Handle)(nil)
)

// SetSink installs the output sink that SCP transfers render their progress
// dots into. RunCommand does not use it: a command's stdout/stderr go to the
// iostreams bound in its CommandRequest.
func (h *Handle) SetSink(s *sink.Sink) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sink = s
}

func (h *Handle) setForeground(tx *Transaction) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.foreground != nil {
		return twerr.Wrap(twerr.CodeParameter, fmt.Errorf("target already has a foreground command running"))
	}
	h.foreground = tx
	return nil
}

func (h *Handle) clearForeground(tx *Transaction) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.foreground == tx {
		h.foreground = nil
	}
}

func (h *Handle) currentForeground() *Transaction {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.foreground
}

// InterruptCommand implements target.Interrupter.
func (h *Handle) InterruptCommand() error {
	tx := h.currentForeground()
	if tx == nil {
		return twerr.New(twerr.CodeOpenSession)
	}
	return tx.interrupt()
}

// Dispose implements target.Disposer. The SSH backend holds no
// long-lived connection between commands (each transaction dials its own
// session), so there is nothing to release beyond forgetting the
// foreground slot.
func (h *Handle) Dispose() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.foreground = nil
	return nil
}
