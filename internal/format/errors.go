package format

import "errors"

// ErrTruncated indicates the buffer lacked the bytes required for a header.
var ErrTruncated = errors.New("format: truncated buffer")

// CheckHeader returns ErrTruncated when off does not leave room for a full
// header inside b.
func CheckHeader(b []byte, off uint64) error {
	if off > uint64(len(b)) || uint64(len(b))-off < HeaderSize {
		return ErrTruncated
	}
	return nil
}
