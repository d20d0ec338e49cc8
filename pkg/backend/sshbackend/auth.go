package sshbackend

import (
	"fmt"
	"net"
	"os"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/vikas-lamba/sutwire/pkg/logger"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// PrivateKeyPath overrides the private key file used for public-key
// authentication. Empty means "try ssh-agent, then the default identity
// files under ~/.ssh". It is a package-level variable so tests and the CLI
// driver can point it at a fixture key without threading a parameter
// through target.New.
var PrivateKeyPath string

// defaultIdentityFiles is the search order used when PrivateKeyPath is
// unset; every file found is added after the ssh-agent, if one is reachable.
var defaultIdentityFiles = []string{
	"~/.ssh/id_ed25519",
	"~/.ssh/id_rsa",
	"~/.ssh/id_ecdsa",
}

// DefaultAuth builds the public-key-only AuthMethod list the session
// factory installs on every cloned session, per this backend's
// "public-key authentication only" contract.
func DefaultAuth() []ssh.AuthMethod {
	log := logger.Get()
	var methods []ssh.AuthMethod

	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		if conn, err := net.Dial("unix", sock); err == nil {
			ag := agent.NewClient(conn)
			methods = append(methods, ssh.PublicKeysCallback(ag.Signers))
			log.Debug("sshbackend: using ssh-agent for authentication")
		} else {
			log.Debugf("sshbackend: SSH_AUTH_SOCK set but unreachable: %v", err)
		}
	}

	if PrivateKeyPath != "" {
		if signer, err := signerFromFile(PrivateKeyPath); err == nil {
			methods = append(methods, ssh.PublicKeys(signer))
		} else {
			log.Debugf("sshbackend: failed to load configured key %s: %v", PrivateKeyPath, err)
		}
		return methods
	}

	for _, path := range defaultIdentityFiles {
		expanded, err := homedir.Expand(path)
		if err != nil {
			continue
		}
		signer, err := signerFromFile(expanded)
		if err != nil {
			continue
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}

	return methods
}

func signerFromFile(path string) (ssh.Signer, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand key path %s: %w", path, err)
	}
	raw, err := os.ReadFile(filepath.Clean(expanded))
	if err != nil {
		return nil, fmt.Errorf("failed to read private key %s: %w", expanded, err)
	}
	signer, err := ssh.ParsePrivateKey(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key %s: %w", expanded, err)
	}
	return signer, nil
}
