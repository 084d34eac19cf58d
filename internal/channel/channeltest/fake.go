// Package channeltest provides recording fakes for the channel contracts,
// shared by the probe, capability, engine and transfer tests.
package channeltest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Ning0612/Devicesync/internal/channel"
	"github.com/Ning0612/Devicesync/internal/domain"
)

// FakeAdmin is a scripted AdminChannel recording every interaction
type FakeAdmin struct {
	mu sync.Mutex

	// Responses maps a command to its canned output
	Responses map[string]string

	// Errors maps a command to the error it should fail with
	Errors map[string]error

	// ConfigErr is returned by SendConfig when non-nil
	ConfigErr error

	// Commands records every command sent, in order
	Commands []string

	// Timeouts records the timeout passed with each command, parallel to
	// Commands (0 means the caller accepted the channel default)
	Timeouts []time.Duration

	// ConfigBatches records every SendConfig call's directives
	ConfigBatches [][]domain.Directive

	// Privileges records every RaisePrivilege level
	Privileges []string

	// RawWrites records every RawWrite payload
	RawWrites [][]byte

	// Closed reports whether Close was called
	Closed bool
}

// NewFakeAdmin creates an empty scripted admin channel
func NewFakeAdmin() *FakeAdmin {
	return &FakeAdmin{
		Responses: make(map[string]string),
		Errors:    make(map[string]error),
	}
}

// Respond scripts the output for a command
func (f *FakeAdmin) Respond(command, output string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Responses[command] = output
}

// FailWith scripts an error for a command
func (f *FakeAdmin) FailWith(command string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errors[command] = err
}

// SendCommand implements channel.AdminChannel
func (f *FakeAdmin) SendCommand(ctx context.Context, command string, timeout time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Commands = append(f.Commands, command)
	f.Timeouts = append(f.Timeouts, timeout)
	if err, ok := f.Errors[command]; ok {
		return "", err
	}
	out, ok := f.Responses[command]
	if !ok {
		return "", fmt.Errorf("unscripted command: %q", command)
	}
	return out, nil
}

// SendCommands implements channel.AdminChannel
func (f *FakeAdmin) SendCommands(ctx context.Context, commands []string, timeout time.Duration) ([]string, error) {
	outputs := make([]string, 0, len(commands))
	for _, c := range commands {
		out, err := f.SendCommand(ctx, c, timeout)
		if err != nil {
			return outputs, err
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

// SendConfig implements channel.AdminChannel
func (f *FakeAdmin) SendConfig(ctx context.Context, directives []domain.Directive) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	batch := make([]domain.Directive, len(directives))
	copy(batch, directives)
	f.ConfigBatches = append(f.ConfigBatches, batch)
	return f.ConfigErr
}

// RaisePrivilege implements channel.AdminChannel
func (f *FakeAdmin) RaisePrivilege(ctx context.Context, level string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Privileges = append(f.Privileges, level)
	return nil
}

// RawWrite implements channel.AdminChannel
func (f *FakeAdmin) RawWrite(p []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	buf := make([]byte, len(p))
	copy(buf, p)
	f.RawWrites = append(f.RawWrites, buf)
	return nil
}

// Close implements channel.AdminChannel
func (f *FakeAdmin) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// CommandCount returns how many times command was sent
func (f *FakeAdmin) CommandCount(command string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Commands {
		if c == command {
			n++
		}
	}
	return n
}

// RawWriteCount returns how many keep-alive writes were recorded
func (f *FakeAdmin) RawWriteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.RawWrites)
}

// ConfigBatchCount returns how many SendConfig calls were recorded
func (f *FakeAdmin) ConfigBatchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ConfigBatches)
}

var _ channel.AdminChannel = (*FakeAdmin)(nil)

// FakeBulk is a BulkChannel handing out one FakeSession
type FakeBulk struct {
	Session *FakeSession

	// OpenErr is returned by Open when non-nil
	OpenErr error

	mu    sync.Mutex
	opens int
}

// NewFakeBulk creates a bulk channel around a fresh session
func NewFakeBulk() *FakeBulk {
	return &FakeBulk{Session: &FakeSession{}}
}

// Open implements channel.BulkChannel
func (f *FakeBulk) Open(ctx context.Context) (channel.BulkSession, error) {
	f.mu.Lock()
	f.opens++
	f.mu.Unlock()
	if f.OpenErr != nil {
		return nil, f.OpenErr
	}
	return f.Session, nil
}

// OpenCount returns how many sessions were opened
func (f *FakeBulk) OpenCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens
}

var _ channel.BulkChannel = (*FakeBulk)(nil)

// FakeSession records bulk-copy calls and optionally fails or simulates
// progress callbacks
type FakeSession struct {
	mu sync.Mutex

	// Err is returned by SendFile/FetchFile when non-nil
	Err error

	// TotalBytes drives simulated progress callbacks (3 blocks) when > 0
	TotalBytes int64

	// OnCopy runs during SendFile/FetchFile, before Err is considered.
	// Lets tests materialize the destination file.
	OnCopy func(src, dst string)

	Sends   []string
	Fetches []string
	Closed  bool
}

// SendFile implements channel.BulkSession
func (f *FakeSession) SendFile(ctx context.Context, localPath, remotePath string, opts channel.CopyOptions) error {
	f.mu.Lock()
	f.Sends = append(f.Sends, localPath+" -> "+remotePath)
	f.mu.Unlock()
	return f.run(localPath, remotePath, opts)
}

// FetchFile implements channel.BulkSession
func (f *FakeSession) FetchFile(ctx context.Context, remotePath, localPath string, opts channel.CopyOptions) error {
	f.mu.Lock()
	f.Fetches = append(f.Fetches, remotePath+" -> "+localPath)
	f.mu.Unlock()
	return f.run(remotePath, localPath, opts)
}

func (f *FakeSession) run(src, dst string, opts channel.CopyOptions) error {
	if f.OnCopy != nil {
		f.OnCopy(src, dst)
	}
	if opts.OnProgress != nil && f.TotalBytes > 0 {
		step := f.TotalBytes / 3
		for copied := step; copied < f.TotalBytes; copied += step {
			opts.OnProgress(copied, f.TotalBytes)
		}
		opts.OnProgress(f.TotalBytes, f.TotalBytes)
	}
	return f.Err
}

// Close implements channel.BulkSession
func (f *FakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// CopyCount returns the total number of copy calls in either direction
func (f *FakeSession) CopyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Sends) + len(f.Fetches)
}

var _ channel.BulkSession = (*FakeSession)(nil)
