package progress

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Reporter handles progress reporting for one file transfer
type Reporter interface {
	// Start begins tracking a transfer
	Start(path string, totalBytes int64)
	// Update reports cumulative bytes copied
	Update(bytesCopied int64)
	// Complete marks the transfer as complete
	Complete()
	// Error reports a transfer failure
	Error(err error)
}

// Callback is a function that receives progress updates
type Callback func(update Update)

// Update represents a progress update
type Update struct {
	Type           UpdateType
	Path           string
	BytesCopied    int64
	BytesTotal     int64
	BytesPerSecond float64
	Err            error
}

// UpdateType indicates the type of progress update
type UpdateType int

const (
	UpdateStart UpdateType = iota
	UpdateProgress
	UpdateComplete
	UpdateError
)

// CallbackReporter implements Reporter with a callback function
type CallbackReporter struct {
	callback    Callback
	mu          sync.Mutex
	path        string
	bytesTotal  int64
	bytesCopied int64
	startTime   time.Time
}

// NewCallbackReporter creates a new CallbackReporter
func NewCallbackReporter(callback Callback) *CallbackReporter {
	return &CallbackReporter{
		callback: callback,
	}
}

// Start begins tracking a transfer
func (r *CallbackReporter) Start(path string, totalBytes int64) {
	r.mu.Lock()
	r.path = path
	r.bytesTotal = totalBytes
	r.bytesCopied = 0
	r.startTime = time.Now()

	update := Update{
		Type:       UpdateStart,
		Path:       path,
		BytesTotal: totalBytes,
	}
	callback := r.callback
	r.mu.Unlock()

	// Call callback outside lock to prevent deadlock
	if callback != nil {
		callback(update)
	}
}

// Update reports cumulative bytes copied
func (r *CallbackReporter) Update(bytesCopied int64) {
	r.mu.Lock()
	r.bytesCopied = bytesCopied

	var bytesPerSecond float64
	elapsed := time.Since(r.startTime).Seconds()
	if elapsed > 0 {
		bytesPerSecond = float64(bytesCopied) / elapsed
	}

	update := Update{
		Type:           UpdateProgress,
		Path:           r.path,
		BytesCopied:    bytesCopied,
		BytesTotal:     r.bytesTotal,
		BytesPerSecond: bytesPerSecond,
	}
	callback := r.callback
	r.mu.Unlock()

	if callback != nil {
		callback(update)
	}
}

// Complete marks the transfer as complete
func (r *CallbackReporter) Complete() {
	r.mu.Lock()
	update := Update{
		Type:        UpdateComplete,
		Path:        r.path,
		BytesCopied: r.bytesTotal,
		BytesTotal:  r.bytesTotal,
	}
	callback := r.callback
	r.mu.Unlock()

	if callback != nil {
		callback(update)
	}
}

// Error reports a transfer failure
func (r *CallbackReporter) Error(err error) {
	r.mu.Lock()
	update := Update{
		Type:        UpdateError,
		Path:        r.path,
		BytesCopied: r.bytesCopied,
		BytesTotal:  r.bytesTotal,
		Err:         err,
	}
	callback := r.callback
	r.mu.Unlock()

	if callback != nil {
		callback(update)
	}
}

// Reader wraps an io.Reader and invokes a per-block callback with the
// cumulative byte count
type Reader struct {
	reader  io.Reader
	onBlock func(copied int64)
	copied  int64
}

// NewReader creates a progress-tracking reader
func NewReader(r io.Reader, onBlock func(copied int64)) *Reader {
	return &Reader{
		reader:  r,
		onBlock: onBlock,
	}
}

// Read implements io.Reader
func (pr *Reader) Read(p []byte) (n int, err error) {
	n, err = pr.reader.Read(p)
	if n > 0 {
		pr.copied += int64(n)
		if pr.onBlock != nil {
			pr.onBlock(pr.copied)
		}
	}
	return n, err
}

// NullReporter is a no-op reporter
type NullReporter struct{}

func (NullReporter) Start(path string, totalBytes int64) {}
func (NullReporter) Update(bytesCopied int64)            {}
func (NullReporter) Complete()                           {}
func (NullReporter) Error(err error)                     {}

// FormatBytes formats bytes into human-readable string
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatSpeed formats bytes per second into human-readable string
func FormatSpeed(bytesPerSecond float64) string {
	return FormatBytes(int64(bytesPerSecond)) + "/s"
}

// FormatProgress returns a progress bar string
func FormatProgress(current, total int64, width int) string {
	if total == 0 {
		return ""
	}

	percent := float64(current) / float64(total)
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}

	bar := make([]byte, width)
	for i := 0; i < width; i++ {
		if i < filled {
			bar[i] = '='
		} else if i == filled {
			bar[i] = '>'
		} else {
			bar[i] = ' '
		}
	}

	return fmt.Sprintf("[%s] %5.1f%%", string(bar), percent*100)
}
