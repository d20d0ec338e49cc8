package sshbackend

import (
	"bufio"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"io"
	"net"
	"os"
	"testing"

	"golang.org/x/crypto/ssh"
)

// This file builds a tiny in-process SSH server good enough to drive
// RunCommand, InjectFile, and ExtractFile end to end without a real sshd,
// the way the retrieval pack's own sshSessionWrapper integration test drives
// a real client against an in-process exec-echo server.

// execHandler services one "exec" request on the fake server: it is handed
// the command string and the accepted channel, and is responsible for
// writing any output and terminating the channel (exitStatus or
// exitSignal) before returning.
type execHandler func(cmd string, ch ssh.Channel)

// startFakeSSHServer starts a listener accepting unauthenticated SSH
// connections (NoClientAuth) and dispatches every "exec" request on every
// session channel to handle. It returns the listen address and a stop
// function that closes the listener and waits for the accept loop to exit.
func startFakeSSHServer(t *testing.T, handle execHandler) (addr string, stop func()) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate host key: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatalf("signer: %v", err)
	}

	cfg := &ssh.ServerConfig{NoClientAuth: true}
	cfg.AddHostKey(signer)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go serveFakeConn(conn, cfg, handle)
		}
	}()

	return ln.Addr().String(), func() {
		_ = ln.Close()
		<-done
	}
}

func serveFakeConn(conn net.Conn, cfg *ssh.ServerConfig, handle execHandler) {
	sc, chans, reqs, err := ssh.NewServerConn(conn, cfg)
	if err != nil {
		return
	}
	defer sc.Close()

	go ssh.DiscardRequests(reqs)
	for newCh := range chans {
		if newCh.ChannelType() != "session" {
			_ = newCh.Reject(ssh.UnknownChannelType, "")
			continue
		}
		ch, reqs, err := newCh.Accept()
		if err != nil {
			continue
		}
		go serveFakeSession(ch, reqs, handle)
	}
}

func serveFakeSession(ch ssh.Channel, reqs <-chan *ssh.Request, handle execHandler) {
	defer ch.Close()
	for req := range reqs {
		switch req.Type {
		case "exec":
			var payload struct{ Command string }
			if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
				_ = req.Reply(false, nil)
				continue
			}
			_ = req.Reply(true, nil)
			handle(payload.Command, ch)
			return
		case "pty-req", "env", "shell":
			_ = req.Reply(true, nil)
		default:
			_ = req.Reply(false, nil)
		}
	}
}

// exitStatusMsg/exitSignalMsg mirror the wire layout golang.org/x/crypto/ssh
// expects on the "exit-status"/"exit-signal" channel requests (RFC 4254
// §6.10); only field order and type matter to ssh.Marshal, not the names.
type exitStatusMsg struct {
	Status uint32
}

type exitSignalMsg struct {
	Signal     string
	CoreDumped bool
	Message    string
	Lang       string
}

func exitStatus(ch ssh.Channel, code uint32) {
	_, _ = ch.SendRequest("exit-status", false, ssh.Marshal(exitStatusMsg{Status: code}))
}

func exitSignal(ch ssh.Channel, name string) {
	_, _ = ch.SendRequest("exit-signal", false, ssh.Marshal(exitSignalMsg{Signal: name}))
}

// testHandle builds a *Handle pointed at a fake server's address, with no
// authentication and no host-key verification, bypassing DefaultAuth/
// DefaultHostKeyCallback's filesystem lookups entirely.
func testHandle(t *testing.T, addr string) *Handle {
	t.Helper()

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split addr %q: %v", addr, err)
	}
	var port int
	if _, err := fmt.Sscanf(portStr, "%d", &port); err != nil {
		t.Fatalf("parse port %q: %v", portStr, err)
	}

	return &Handle{
		template: SessionTemplate{
			Host:            host,
			Port:            port,
			User:            "test",
			Auth:            []ssh.AuthMethod{},
			HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		},
	}
}

// fakeScpSink builds an execHandler playing the remote "scp -t -d" sink: it
// either rejects the transfer immediately (as a real remote does when the
// target directory check fails, before reading anything) or accepts the
// control line, reads exactly the announced number of bytes into received,
// and acks.
func fakeScpSink(acceptDirectory bool, received *[]byte) execHandler {
	return func(cmd string, ch ssh.Channel) {
		if !acceptDirectory {
			_, _ = ch.Write([]byte{ackError})
			_, _ = ch.Write([]byte("scp: not a directory\n"))
			exitStatus(ch, 1)
			return
		}

		r := bufio.NewReader(ch)
		line, err := r.ReadString('\n')
		if err != nil {
			exitStatus(ch, 1)
			return
		}
		size, err := parseControlLine(line)
		if err != nil {
			_, _ = ch.Write([]byte{ackError})
			_, _ = ch.Write([]byte("bad control line\n"))
			exitStatus(ch, 1)
			return
		}
		if _, err := ch.Write([]byte{ackOK}); err != nil {
			return
		}

		buf := make([]byte, size)
		if _, err := io.ReadFull(r, buf); err != nil {
			exitStatus(ch, 1)
			return
		}
		if received != nil {
			*received = buf
		}

		if _, err := r.ReadByte(); err != nil { // client's final ack
			exitStatus(ch, 1)
			return
		}
		_, _ = ch.Write([]byte{ackOK})
		exitStatus(ch, 0)
	}
}

// fakeScpSource builds an execHandler playing the remote "scp -f" source:
// it waits for the client's ready ack, announces a control line for name
// carrying content, sends the bytes, and acks.
func fakeScpSource(mode os.FileMode, content []byte, name string) execHandler {
	return func(cmd string, ch ssh.Channel) {
		r := bufio.NewReader(ch)
		if _, err := r.ReadByte(); err != nil { // initial ready ack
			return
		}
		if _, err := fmt.Fprintf(ch, "C%04o %d %s\n", mode.Perm(), len(content), name); err != nil {
			return
		}
		if _, err := r.ReadByte(); err != nil { // ack for the control line
			return
		}
		if _, err := ch.Write(content); err != nil {
			return
		}
		if _, err := ch.Write([]byte{ackOK}); err != nil {
			return
		}
		if _, err := r.ReadByte(); err != nil { // client's final ack
			return
		}
		exitStatus(ch, 0)
	}
}
