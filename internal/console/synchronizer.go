package console

import (
	"fmt"

	"go.uber.org/zap"
)

// ByteChannel is the subset of channel.Channel the synchronizer needs.
type ByteChannel interface {
	Write(p []byte) (int, error)
	ReadByte() (byte, error)
}

// ReadObserver is called after every received byte with the number of bytes
// accumulated by the current ReadUntil call.
type ReadObserver func(accumulated int)

// Synchronizer reads a ByteChannel until known byte patterns appear.
type Synchronizer struct {
	ch        ByteChannel
	logger    *zap.Logger
	onRead    ReadObserver
	totalRead int64
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithLogger sets the logger used for traffic tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Synchronizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithReadObserver installs a per-byte progress observer.
func WithReadObserver(fn ReadObserver) Option {
	return func(s *Synchronizer) {
		s.onRead = fn
	}
}

// New creates a Synchronizer over ch.
func New(ch ByteChannel, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		ch:     ch,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReadUntil reads one byte at a time until the accumulated bytes end with
// pattern and returns everything read, pattern included. An empty pattern
// matches immediately and returns an empty slice without reading.
func (s *Synchronizer) ReadUntil(pattern []byte) ([]byte, error) {
	if len(pattern) == 0 {
		return []byte{}, nil
	}

	m := newMatcher(pattern)
	var acc []byte
	for {
		b, err := s.ch.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("read failed after %d bytes waiting for %q: %w", len(acc), pattern, err)
		}
		acc = append(acc, b)
		s.totalRead++

		if s.onRead != nil {
			s.onRead(len(acc))
		}

		if m.feed(b) {
			s.logger.Debug("Pattern matched",
				zap.ByteString("pattern", pattern),
				zap.Int("bytes_read", len(acc)),
				zap.Int64("total_read", s.totalRead),
			)
			return acc, nil
		}
	}
}

// ReadLine reads up to and including the next '\n'.
func (s *Synchronizer) ReadLine() ([]byte, error) {
	return s.ReadUntil([]byte{'\n'})
}

// Send writes b to the channel verbatim.
func (s *Synchronizer) Send(b []byte) error {
	n, err := s.ch.Write(b)
	if err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	if n != len(b) {
		return fmt.Errorf("short write: %d of %d bytes", n, len(b))
	}
	s.logger.Debug("Sent", zap.ByteString("data", b))
	return nil
}

// SendLine writes b followed by '\n'.
func (s *Synchronizer) SendLine(b []byte) error {
	line := make([]byte, 0, len(b)+1)
	line = append(line, b...)
	line = append(line, '\n')
	return s.Send(line)
}

// TotalRead returns the number of bytes received over the synchronizer's
// lifetime.
func (s *Synchronizer) TotalRead() int64 {
	return s.totalRead
}
