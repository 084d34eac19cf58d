// Package sshchan implements the channel contracts over SSH: a prompt-driven
// shell session for the administrative channel and a dedicated SCP connection
// for the bulk-copy channel. The two never share a session.
package sshchan

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/Ning0612/Devicesync/internal/channel"
	"github.com/Ning0612/Devicesync/internal/domain"
	"github.com/Ning0612/Devicesync/internal/logger"
)

// DefaultCommandTimeout bounds ordinary command round-trips
const DefaultCommandTimeout = 30 * time.Second

// defaultPromptPattern matches common network-OS exec and privileged prompts
const defaultPromptPattern = `(?m)^[\w.\-]+[>#]\s*$`

// Options configures the administrative SSH session
type Options struct {
	// Addr is the host:port of the device
	Addr string

	// Username and Password authenticate both channels
	Username string
	Password string

	// EnableSecret answers the password prompt during privilege
	// escalation. Falls back to Password when empty.
	EnableSecret string

	// PromptPattern overrides the prompt regex
	PromptPattern string

	// CommandTimeout is the default round-trip bound.
	// DefaultCommandTimeout when 0.
	CommandTimeout time.Duration

	// HostKeyCallback defaults to ssh.InsecureIgnoreHostKey; production
	// deployments should pin host keys
	HostKeyCallback ssh.HostKeyCallback
}

// Admin is a prompt-driven administrative session over SSH
type Admin struct {
	client  *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser
	out     chan []byte
	prompt  *regexp.Regexp
	opts    Options

	mu         sync.Mutex
	privileged string
}

// Dial opens the administrative session and waits for the first prompt
func Dial(opts Options) (*Admin, error) {
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = DefaultCommandTimeout
	}
	if opts.PromptPattern == "" {
		opts.PromptPattern = defaultPromptPattern
	}
	if opts.HostKeyCallback == nil {
		opts.HostKeyCallback = ssh.InsecureIgnoreHostKey()
	}

	prompt, err := regexp.Compile(opts.PromptPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid prompt pattern: %w", err)
	}

	config := &ssh.ClientConfig{
		User:            opts.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(opts.Password)},
		HostKeyCallback: opts.HostKeyCallback,
		Timeout:         opts.CommandTimeout,
	}

	client, err := ssh.Dial("tcp", opts.Addr, config)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", opts.Addr, err)
	}

	session, err := client.NewSession()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("opening session: %w", err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          0,
		ssh.TTY_OP_ISPEED: 115200,
		ssh.TTY_OP_OSPEED: 115200,
	}
	if err := session.RequestPty("vt100", 80, 512, modes); err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("requesting pty: %w", err)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		client.Close()
		return nil, err
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		client.Close()
		return nil, err
	}

	if err := session.Shell(); err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("starting shell: %w", err)
	}

	a := &Admin{
		client:  client,
		session: session,
		stdin:   stdin,
		out:     make(chan []byte, 16),
		prompt:  prompt,
		opts:    opts,
	}
	go a.pump(stdout)

	// Drain the login banner up to the first prompt
	if _, err := a.readUntilPrompt(context.Background(), opts.CommandTimeout); err != nil {
		a.Close()
		return nil, fmt.Errorf("waiting for initial prompt: %w", err)
	}

	logger.Get().Info("administrative channel established", "addr", opts.Addr)
	return a, nil
}

// pump forwards session output to the read channel until EOF
func (a *Admin) pump(r io.Reader) {
	defer close(a.out)
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			a.out <- chunk
		}
		if err != nil {
			return
		}
	}
}

// drainPending discards output that arrived outside a command round-trip.
// Keep-alive writes during a long copy make the device echo fresh prompts;
// left buffered, the next command would match one of those stale prompts and
// return before its real response arrives, desynchronizing the session.
func (a *Admin) drainPending() {
	for {
		select {
		case _, ok := <-a.out:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

// readUntilPrompt accumulates output until the prompt regex matches or the
// timeout fires
func (a *Admin) readUntilPrompt(ctx context.Context, timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var buf bytes.Buffer
	for {
		select {
		case <-ctx.Done():
			return buf.String(), ctx.Err()
		case <-timer.C:
			return buf.String(), fmt.Errorf("%w after %s", domain.ErrCommandTimeout, timeout)
		case chunk, ok := <-a.out:
			if !ok {
				return buf.String(), domain.ErrChannelClosed
			}
			buf.Write(chunk)
			if a.prompt.MatchString(buf.String()) {
				return buf.String(), nil
			}
		}
	}
}

// SendCommand implements channel.AdminChannel
func (a *Admin) SendCommand(ctx context.Context, command string, timeout time.Duration) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sendLocked(ctx, command, timeout)
}

func (a *Admin) sendLocked(ctx context.Context, command string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = a.opts.CommandTimeout
	}

	a.drainPending()

	if _, err := a.stdin.Write([]byte(command + "\n")); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrChannelClosed, err)
	}

	raw, err := a.readUntilPrompt(ctx, timeout)
	if err != nil {
		return "", err
	}

	return cleanResponse(raw, command, a.prompt), nil
}

// SendCommands implements channel.AdminChannel
func (a *Admin) SendCommands(ctx context.Context, commands []string, timeout time.Duration) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	outputs := make([]string, 0, len(commands))
	for _, c := range commands {
		out, err := a.sendLocked(ctx, c, timeout)
		if err != nil {
			return outputs, err
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

// SendConfig implements channel.AdminChannel. Directives are applied inside
// one configuration session; the first rejected directive fails the call,
// directives before it may have taken effect.
func (a *Admin) SendConfig(ctx context.Context, directives []domain.Directive) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := a.sendLocked(ctx, "configure terminal", 0); err != nil {
		return err
	}

	var applyErr error
	for _, d := range directives {
		out, err := a.sendLocked(ctx, string(d), 0)
		if err != nil {
			applyErr = err
			break
		}
		if isErrorResponse(out) {
			applyErr = fmt.Errorf("%w: %s: %s", domain.ErrConfigWriteFailed, d, firstLine(out))
			break
		}
	}

	// Leave configuration mode even when a directive failed
	if _, err := a.sendLocked(ctx, "end", 0); err != nil && applyErr == nil {
		applyErr = err
	}

	return applyErr
}

// RaisePrivilege implements channel.AdminChannel
func (a *Admin) RaisePrivilege(ctx context.Context, level string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.privileged == level {
		return nil
	}

	a.drainPending()

	if _, err := a.stdin.Write([]byte("enable\n")); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrChannelClosed, err)
	}

	// The device answers with either a password prompt or, when no enable
	// secret is set, the privileged prompt directly
	timer := time.NewTimer(a.opts.CommandTimeout)
	defer timer.Stop()

	var buf bytes.Buffer
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return fmt.Errorf("%w: privilege escalation", domain.ErrCommandTimeout)
		case chunk, ok := <-a.out:
			if !ok {
				return domain.ErrChannelClosed
			}
			buf.Write(chunk)
			text := buf.String()
			if strings.Contains(strings.ToLower(text), "password") {
				secret := a.opts.EnableSecret
				if secret == "" {
					secret = a.opts.Password
				}
				if _, err := a.stdin.Write([]byte(secret + "\n")); err != nil {
					return fmt.Errorf("%w: %v", domain.ErrChannelClosed, err)
				}
				buf.Reset()
				continue
			}
			if a.prompt.MatchString(text) {
				if strings.Contains(text, "Access denied") {
					return domain.ErrPrivilegeDenied
				}
				a.privileged = level
				return nil
			}
		}
	}
}

// RawWrite implements channel.AdminChannel
func (a *Admin) RawWrite(p []byte) error {
	if _, err := a.stdin.Write(p); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrChannelClosed, err)
	}
	return nil
}

// Close implements channel.AdminChannel
func (a *Admin) Close() error {
	a.session.Close()
	return a.client.Close()
}

// cleanResponse strips the echoed command and the trailing prompt line
func cleanResponse(raw, command string, prompt *regexp.Regexp) string {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

	start := 0
	if len(lines) > 0 && strings.TrimSpace(lines[0]) == strings.TrimSpace(command) {
		start = 1
	}
	end := len(lines)
	for end > start && (strings.TrimSpace(lines[end-1]) == "" || prompt.MatchString(lines[end-1])) {
		end--
	}

	return strings.Join(lines[start:end], "\n")
}

// isErrorResponse reports whether a response line carries the device error
// marker (IOS-style "%" prefix)
func isErrorResponse(out string) bool {
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "%") {
			return true
		}
	}
	return false
}

func firstLine(out string) string {
	if i := strings.IndexByte(out, '\n'); i >= 0 {
		return strings.TrimSpace(out[:i])
	}
	return strings.TrimSpace(out)
}

var _ channel.AdminChannel = (*Admin)(nil)
