// Package slogx holds small helpers for building log/slog attributes.
package slogx

import "log/slog"

// Error returns an attribute with key "error" holding the error's message.
func Error(err error) slog.Attr {
	return slog.String("error", err.Error())
}

// ByteString returns an attribute holding the byte slice rendered as a string.
func ByteString(key string, value []byte) slog.Attr {
	return slog.String(key, string(value))
}

// Masked returns an attribute that exposes only the first and last few
// characters of a secret, for logging credentials without leaking them.
func Masked(key, secret string) slog.Attr {
	const head, tail = 10, 5
	if len(secret) <= head+tail {
		return slog.String(key, "***")
	}
	return slog.String(key, secret[:head]+"..."+secret[len(secret)-tail:])
}
