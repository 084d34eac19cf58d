package sshchan

import (
	"bytes"
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/Ning0612/Devicesync/internal/channel"
	"github.com/Ning0612/Devicesync/internal/domain"
)

type nopWriteCloser struct {
	bytes.Buffer
}

func (*nopWriteCloser) Close() error { return nil }

// newTestAdmin builds an Admin around an in-memory session, bypassing Dial
func newTestAdmin(timeout time.Duration) (*Admin, chan []byte) {
	out := make(chan []byte, 16)
	a := &Admin{
		stdin:  &nopWriteCloser{},
		out:    out,
		prompt: regexp.MustCompile(defaultPromptPattern),
		opts:   Options{CommandTimeout: timeout},
	}
	return a, out
}

// TestCleanResponse tests echo and prompt stripping from raw session output
func TestCleanResponse(t *testing.T) {
	prompt := regexp.MustCompile(`(?m)^[\w.\-]+[>#]\s*$`)

	raw := "dir flash:\r\nDirectory of flash:/\r\n\r\n  11 -rw- 100 img.bin\r\nrouter#"
	got := cleanResponse(raw, "dir flash:", prompt)

	if strings.Contains(got, "router#") {
		t.Errorf("prompt line not stripped: %q", got)
	}
	if strings.HasPrefix(got, "dir flash:") {
		t.Errorf("command echo not stripped: %q", got)
	}
	if !strings.Contains(got, "Directory of flash:/") {
		t.Errorf("payload lost: %q", got)
	}
}

// TestIsErrorResponse tests detection of device error markers
func TestIsErrorResponse(t *testing.T) {
	if !isErrorResponse("% Invalid input detected at '^' marker.") {
		t.Error("expected error marker to be detected")
	}
	if isErrorResponse("Building configuration...\nDone") {
		t.Error("unexpected error marker on normal output")
	}
}

// TestSendCommandDiscardsKeepaliveResidue tests that prompt echoes buffered
// by keep-alive writes during a copy never satisfy the next command's prompt
// wait: the command must return its real response, not an empty string
func TestSendCommandDiscardsKeepaliveResidue(t *testing.T) {
	a, out := newTestAdmin(2 * time.Second)

	// Two keep-alives fired during a long copy, each echoing a prompt
	out <- []byte("\r\nrouter#")
	out <- []byte("\r\nrouter#")

	go func() {
		time.Sleep(50 * time.Millisecond)
		out <- []byte("verify /md5 flash:/img.bin\r\n" +
			"verify /md5 (flash:/img.bin) = a5c8dcb3c53d32b3a87592dcb7344afd\r\n" +
			"router#")
	}()

	got, err := a.SendCommand(context.Background(), "verify /md5 flash:/img.bin", 0)
	if err != nil {
		t.Fatalf("SendCommand failed: %v", err)
	}
	if !strings.Contains(got, "= a5c8dcb3c53d32b3a87592dcb7344afd") {
		t.Errorf("response lost to stale keepalive prompt; got %q", got)
	}
}

// TestRaisePrivilegeDiscardsKeepaliveResidue tests that a buffered stale
// prompt cannot satisfy privilege escalation before the device answers
func TestRaisePrivilegeDiscardsKeepaliveResidue(t *testing.T) {
	a, out := newTestAdmin(50 * time.Millisecond)

	out <- []byte("\r\nrouter#")

	err := a.RaisePrivilege(context.Background(), "privilege_exec")
	if err == nil {
		t.Fatal("stale prompt must not satisfy privilege escalation")
	}
	if !errors.Is(err, domain.ErrCommandTimeout) {
		t.Errorf("expected timeout waiting for the real prompt, got %v", err)
	}
}

// TestBlockReaderCapsReads tests that no single read exceeds the block size
func TestBlockReaderCapsReads(t *testing.T) {
	src := bytes.Repeat([]byte("a"), 1000)
	br := &blockReader{r: bytes.NewReader(src), size: 64}

	buf := make([]byte, 512)
	n, err := br.Read(buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if n > 64 {
		t.Errorf("read returned %d bytes, want at most 64", n)
	}
}

// TestPassThruReportsCumulative tests that the stream interceptor caps reads
// and reports running totals through the progress callback
func TestPassThruReportsCumulative(t *testing.T) {
	src := bytes.Repeat([]byte("b"), 300)

	var reports []int64
	pt := passThru(channel.CopyOptions{
		BlockSize: 100,
		OnProgress: func(copied, total int64) {
			reports = append(reports, copied)
			if total != 300 {
				t.Errorf("total = %d, want 300", total)
			}
		},
	})

	if _, err := io.Copy(io.Discard, pt(bytes.NewReader(src), 300)); err != nil {
		t.Fatalf("copy failed: %v", err)
	}

	if len(reports) < 3 {
		t.Fatalf("got %d progress reports, want at least 3", len(reports))
	}
	last := reports[len(reports)-1]
	if last != 300 {
		t.Errorf("final cumulative count = %d, want 300", last)
	}
	for i := 1; i < len(reports); i++ {
		if reports[i] < reports[i-1] {
			t.Errorf("cumulative counts went backwards: %v", reports)
		}
	}
}
