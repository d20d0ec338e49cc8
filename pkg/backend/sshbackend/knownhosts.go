package sshbackend

import (
	"os"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/vikas-lamba/sutwire/pkg/logger"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// InsecureIgnoreHostKey disables host-key verification entirely when set.
// It is false by default; DefaultHostKeyCallback still accepts any host key
// when no usable ~/.ssh/known_hosts file exists.
var InsecureIgnoreHostKey = false

// DefaultHostKeyCallback resolves the session factory's host-key callback:
// the user's ~/.ssh/known_hosts file when it exists and
// InsecureIgnoreHostKey is false, otherwise ssh.InsecureIgnoreHostKey().
func DefaultHostKeyCallback() ssh.HostKeyCallback {
	log := logger.Get()
	if InsecureIgnoreHostKey {
		log.Debug("sshbackend: host key verification disabled")
		return ssh.InsecureIgnoreHostKey() //nolint:gosec
	}

	path, err := homedir.Expand("~/.ssh/known_hosts")
	if err != nil {
		log.Debugf("sshbackend: could not resolve known_hosts path: %v", err)
		return ssh.InsecureIgnoreHostKey() //nolint:gosec
	}

	if _, err := os.Stat(path); err != nil {
		log.Debugf("sshbackend: no known_hosts file at %s, falling back to insecure: %v", path, err)
		return ssh.InsecureIgnoreHostKey() //nolint:gosec
	}

	cb, err := knownhosts.New(path)
	if err != nil {
		log.Debugf("sshbackend: failed to parse known_hosts: %v", err)
		return ssh.InsecureIgnoreHostKey() //nolint:gosec
	}
	return cb
}
