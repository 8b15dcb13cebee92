// Package iohelper provides bounded reads of HTTP response bodies.
// Probe responses are attacker-influenced input; every read goes through
// a size limit so a hostile target cannot exhaust memory.
package iohelper

import (
	"io"
	"log/slog"
)

// Body size limits.
const (
	// SmallMaxBodySize is for status pages and header-only checks (8KB).
	SmallMaxBodySize int64 = 8 * 1024

	// DefaultMaxBodySize bounds a typical probe response (1MB).
	DefaultMaxBodySize int64 = 1024 * 1024
)

// ReadBody reads from r up to maxSize bytes. A nil reader yields an empty
// slice and no error.
func ReadBody(r io.Reader, maxSize int64) ([]byte, error) {
	if r == nil {
		return []byte{}, nil
	}
	return io.ReadAll(io.LimitReader(r, maxSize))
}

// ReadBodyDefault reads from r with the default 1MB limit.
func ReadBodyDefault(r io.Reader) ([]byte, error) {
	return ReadBody(r, DefaultMaxBodySize)
}

// ReadBodyOrLog reads with the default limit and logs read failures instead
// of returning them. Used where a truncated body is still usable evidence.
func ReadBodyOrLog(r io.Reader, logger *slog.Logger) []byte {
	data, err := ReadBodyDefault(r)
	if err != nil && logger != nil {
		logger.Warn("body read failed", slog.String("error", err.Error()))
	}
	return data
}

// DrainAndClose consumes any unread data from r and closes it when it is a
// ReadCloser, keeping the connection reusable for keep-alive. The drain is
// capped at 64KB. Always returns nil so it can sit in a defer.
func DrainAndClose(r io.Reader) error {
	if r == nil {
		return nil
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(r, 64*1024))
	if rc, ok := r.(io.ReadCloser); ok {
		rc.Close()
	}
	return nil
}
