package sshchan

import (
	"context"
	"fmt"
	"io"
	"os"

	scp "github.com/bramvdbogaerde/go-scp"
	"golang.org/x/crypto/ssh"

	"github.com/Ning0612/Devicesync/internal/channel"
	"github.com/Ning0612/Devicesync/internal/domain"
	"github.com/Ning0612/Devicesync/internal/logger"
	"github.com/Ning0612/Devicesync/internal/progress"
)

// defaultFileMode is applied to files created on the device side
const defaultFileMode = "0644"

// Bulk opens dedicated SCP connections for file copies. Each Open dials a
// fresh connection so a dying copy never poisons the administrative session.
type Bulk struct {
	opts Options
}

// NewBulk creates the bulk-copy channel factory
func NewBulk(opts Options) *Bulk {
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = DefaultCommandTimeout
	}
	if opts.HostKeyCallback == nil {
		opts.HostKeyCallback = ssh.InsecureIgnoreHostKey()
	}
	return &Bulk{opts: opts}
}

// Open implements channel.BulkChannel
func (b *Bulk) Open(ctx context.Context) (channel.BulkSession, error) {
	config := &ssh.ClientConfig{
		User:            b.opts.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(b.opts.Password)},
		HostKeyCallback: b.opts.HostKeyCallback,
		Timeout:         b.opts.CommandTimeout,
	}

	client := scp.NewClient(b.opts.Addr, config)
	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("%w: opening bulk channel to %s: %v", domain.ErrTransport, b.opts.Addr, err)
	}

	logger.Get().Debug("bulk channel established", "addr", b.opts.Addr)
	return &bulkSession{client: &client}, nil
}

type bulkSession struct {
	client *scp.Client
}

// SendFile implements channel.BulkSession
func (s *bulkSession) SendFile(ctx context.Context, localPath, remotePath string, opts channel.CopyOptions) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", localPath, err)
	}

	err = s.client.CopyPassThru(ctx, f, remotePath, defaultFileMode, info.Size(),
		passThru(opts))
	if err != nil {
		return fmt.Errorf("%w: sending %s: %v", domain.ErrTransport, remotePath, err)
	}
	return nil
}

// FetchFile implements channel.BulkSession
func (s *bulkSession) FetchFile(ctx context.Context, remotePath, localPath string, opts channel.CopyOptions) error {
	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", localPath, err)
	}
	defer f.Close()

	err = s.client.CopyFromRemotePassThru(ctx, f, remotePath, passThru(opts))
	if err != nil {
		os.Remove(localPath)
		return fmt.Errorf("%w: fetching %s: %v", domain.ErrTransport, remotePath, err)
	}
	return nil
}

// Close implements channel.BulkSession
func (s *bulkSession) Close() error {
	s.client.Close()
	return nil
}

// passThru builds the stream interceptor that caps read size to the block
// size and reports cumulative progress after every block
func passThru(opts channel.CopyOptions) scp.PassThru {
	return func(r io.Reader, total int64) io.Reader {
		if opts.BlockSize > 0 {
			r = &blockReader{r: r, size: opts.BlockSize}
		}
		if opts.OnProgress == nil {
			return r
		}
		return progress.NewReader(r, func(copied int64) {
			opts.OnProgress(copied, total)
		})
	}
}

// blockReader caps every Read at the configured block size
type blockReader struct {
	r    io.Reader
	size int
}

func (b *blockReader) Read(p []byte) (int, error) {
	if len(p) > b.size {
		p = p[:b.size]
	}
	return b.r.Read(p)
}

var _ channel.BulkChannel = (*Bulk)(nil)
var _ channel.BulkSession = (*bulkSession)(nil)
