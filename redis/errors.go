package redis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/go-redis/redis/v8"
)

var (
	// ErrConnection reports a transport failure or timeout talking to Redis.
	ErrConnection = errors.New("redis: connection error")
	// ErrNotFound reports that an operation required a key, field or member that is absent.
	ErrNotFound = errors.New("redis: not found")
	// ErrSerialization reports a value that could not be encoded or decoded.
	ErrSerialization = errors.New("redis: serialization error")
)

// WrapError provides additional context to errors. When the cause can be
// classified, the matching sentinel is attached so callers can use errors.Is.
func WrapError(action, key string, err error) error {
	if err == nil {
		return nil
	}
	if kind := classify(err); kind != nil && !errors.Is(err, kind) {
		return fmt.Errorf("error while %s for key '%s': %w: %w", action, key, kind, err)
	}
	return fmt.Errorf("error while %s for key '%s': %w", action, key, err)
}

func classify(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConnection), errors.Is(err, ErrSerialization):
		return nil
	case errors.Is(err, redis.Nil), isNoSuchKey(err):
		return ErrNotFound
	case IsConnectionError(err):
		return ErrConnection
	}
	return nil
}

// IsConnectionError reports whether err came from the transport rather than
// from Redis itself. A caller cancelling its own context is not a transport
// failure.
func IsConnectionError(err error) bool {
	if err == nil || errors.Is(err, redis.Nil) {
		return false
	}
	if errors.Is(err, ErrConnection) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, redis.ErrClosed) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ECONNABORTED, syscall.ETIMEDOUT, syscall.EPIPE:
			return true
		}
	}

	msg := err.Error()
	for _, s := range []string{"connection refused", "connection reset", "broken pipe", "no such host", "i/o timeout", "connection pool timeout"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// isNoSuchKey matches the server reply to RENAME/RENAMENX on a missing source.
func isNoSuchKey(err error) bool {
	var redisErr redis.Error
	return errors.As(err, &redisErr) && strings.Contains(strings.ToLower(redisErr.Error()), "no such key")
}

func serializationError(op string, err error) error {
	if errors.Is(err, ErrSerialization) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrSerialization, op, err)
}
