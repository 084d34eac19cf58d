package domain

// FileState captures what a probe learned about one file at one location.
//
// An empty Fingerprint is the "not found / inaccessible" sentinel, not an
// error: during idempotency checks a missing file is an expected, common
// outcome and must be cheap to test.
type FileState struct {
	// Fingerprint is the content hash as a lowercase hex string
	// (32 chars for MD5). Empty if the file was not found.
	Fingerprint string

	// Size in bytes. Always 0 when Fingerprint is empty.
	Size int64

	// Free is the available space in bytes at the containing storage
	// location. 0 when the location could not be inspected.
	Free int64
}

// Exists returns true if the probe found the file
func (f FileState) Exists() bool {
	return f.Fingerprint != ""
}

// Matches returns true if both states carry the same non-empty fingerprint
func (f FileState) Matches(other FileState) bool {
	return f.Fingerprint != "" && f.Fingerprint == other.Fingerprint
}
