package checksum

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
)

// Algorithm represents the hashing algorithm to use
type Algorithm string

const (
	// MD5 algorithm — the default, because it is what the device side
	// computes (verify /md5) and fingerprints must compare equal across
	// both ends
	MD5 Algorithm = "md5"
	// SHA256 algorithm, for dialects whose verify command emits SHA-256
	SHA256 Algorithm = "sha256"
)

// Options configures the checksum calculator
type Options struct {
	// BufferSize: size of buffer for streaming reads
	// Default: 64KB (matches the bulk-copy block size)
	BufferSize int
}

// DefaultOptions returns the recommended default options
func DefaultOptions() Options {
	return Options{
		BufferSize: 64 * 1024,
	}
}

// Calculator computes content fingerprints
type Calculator interface {
	// Calculate computes the hex-encoded hash of everything in reader.
	// Returns an error only for read failures or context cancellation;
	// there is no size cap, device images are routinely hundreds of MB.
	Calculate(ctx context.Context, reader io.Reader, algo Algorithm) (string, error)
}

// DefaultCalculator implements Calculator with streaming support
type DefaultCalculator struct {
	opts Options
}

// NewCalculator creates a new calculator with the given options
func NewCalculator(opts Options) *DefaultCalculator {
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultOptions().BufferSize
	}
	return &DefaultCalculator{opts: opts}
}

// NewDefaultCalculator creates a calculator with default options
func NewDefaultCalculator() *DefaultCalculator {
	return NewCalculator(DefaultOptions())
}

// Calculate implements the Calculator interface
func (c *DefaultCalculator) Calculate(ctx context.Context, reader io.Reader, algo Algorithm) (string, error) {
	var h hash.Hash
	switch algo {
	case MD5:
		h = md5.New()
	case SHA256:
		h = sha256.New()
	default:
		return "", fmt.Errorf("unsupported algorithm: %s", algo)
	}

	buffer := make([]byte, c.opts.BufferSize)
	for {
		// Check context cancellation between blocks
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		n, err := reader.Read(buffer)
		if n > 0 {
			if _, hashErr := h.Write(buffer[:n]); hashErr != nil {
				return "", fmt.Errorf("hash write error: %w", hashErr)
			}
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read error: %w", err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// IsSupported checks if the given algorithm is supported
func IsSupported(algo Algorithm) bool {
	switch algo {
	case MD5, SHA256:
		return true
	default:
		return false
	}
}
