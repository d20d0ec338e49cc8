package testutil

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"
)

// WriteStringToTempFile writes content to a freshly created temp file and
// returns its path plus a cleanup closure that removes it.
func WriteStringToTempFile(content string) (string, func(), error) {
	tempFile, err := os.CreateTemp("", "temp-*")
	if err != nil {
		return "", nil, err
	}

	if _, err := tempFile.WriteString(content); err != nil {
		tempFile.Close()
		os.Remove(tempFile.Name())
		return "", nil, err
	}

	tempFile.Close()

	cleanup := func() {
		os.Remove(tempFile.Name())
	}

	return tempFile.Name(), cleanup, nil
}

// WriteStringToTempFileWithExtension behaves like WriteStringToTempFile but
// renames the result to carry the given extension (e.g. ".pub").
func WriteStringToTempFileWithExtension(content string, extension string) (string, func(), error) {
	path, cleanup, err := WriteStringToTempFile(content)
	if err != nil {
		return "", nil, err
	}

	pathPlusExtension := path + extension
	if err := os.Rename(path, pathPlusExtension); err != nil {
		cleanup()
		return "", nil, err
	}

	return pathPlusExtension, func() { os.Remove(pathPlusExtension) }, nil
}

// CreateSSHPublicPrivateKeyPairOnDisk generates a fresh ed25519 keypair,
// writes both halves to temp files in OpenSSH formats, and returns the
// public key path, its cleanup, the private key path, and its cleanup.
func CreateSSHPublicPrivateKeyPairOnDisk() (string, func(), string, func()) {
	pubPath, cleanupPub, privPath, cleanupPriv, err := GenerateSSHKeyPairOnDisk()
	if err != nil {
		panic(err)
	}
	return pubPath, cleanupPub, privPath, cleanupPriv
}

// GenerateSSHKeyPairOnDisk is the error-returning counterpart of
// CreateSSHPublicPrivateKeyPairOnDisk, used by tests that want to assert on
// key-generation failures instead of panicking.
func GenerateSSHKeyPairOnDisk() (pubPath string, cleanupPub func(), privPath string, cleanupPriv func(), err error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", nil, "", nil, fmt.Errorf("failed to generate ed25519 key: %w", err)
	}

	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		return "", nil, "", nil, fmt.Errorf("failed to wrap private key: %w", err)
	}

	block, err := ssh.MarshalPrivateKey(priv, "")
	if err != nil {
		return "", nil, "", nil, fmt.Errorf("failed to marshal private key: %w", err)
	}
	privatePEM := string(pem.EncodeToMemory(block))

	authorizedKey := string(ssh.MarshalAuthorizedKey(signer.PublicKey()))
	_ = pub

	privPath, cleanupPriv, err = WriteStringToTempFile(privatePEM)
	if err != nil {
		return "", nil, "", nil, err
	}

	pubPath, cleanupPub, err = WriteStringToTempFileWithExtension(authorizedKey, ".pub")
	if err != nil {
		cleanupPriv()
		return "", nil, "", nil, err
	}

	return pubPath, cleanupPub, privPath, cleanupPriv, nil
}
