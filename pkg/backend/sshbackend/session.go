package sshbackend

import (
	"fmt"
	"net"
	"time"

	"github.com/vikas-lamba/sutwire/pkg/logger"
	"github.com/vikas-lamba/sutwire/pkg/twerr"
	"golang.org/x/crypto/ssh"
)

// DialTimeout bounds the TCP connect step of openSession. The original
// source has no equivalent knob of its own (libssh blocks on connect); this
// module still needs one so a dead target fails in bounded time rather
// than hanging the whole transaction before its own command deadline ever
// starts ticking.
var DialTimeout = 10 * time.Second

// openSession clones the handle's session template, overriding the user,
// connects, and authenticates by public key. Nothing here is retried: a
// single failed dial or handshake fails the whole call, per this backend's
// documented failure semantics.
func openSession(tpl SessionTemplate, user string) (*ssh.Client, error) {
	log := logger.Get()

	if user == "" {
		user = tpl.User
	}
	if user == "" {
		user = "root"
	}

	hostKeyCallback := tpl.HostKeyCallback
	if hostKeyCallback == nil {
		hostKeyCallback = DefaultHostKeyCallback()
	}

	config := &ssh.ClientConfig{
		User:            user,
		Auth:            tpl.Auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         DialTimeout,
	}

	addr := net.JoinHostPort(tpl.Host, fmt.Sprintf("%d", tpl.Port))
	log.Debugf("sshbackend: opening session to %s@%s", user, addr)

	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		log.Debugf("sshbackend: open-session failed for %s: %v", addr, err)
		return nil, twerr.Wrap(twerr.CodeOpenSession, err)
	}
	return client, nil
}
