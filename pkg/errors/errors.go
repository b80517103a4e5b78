package errors

import "errors"

var (
	// Whitelist configuration errors 📋
	ErrUnsupportedFormat = errors.New("❌ unsupported whitelist format")
	ErrInvalidIdentifier = errors.New("❌ invalid identifier")
	ErrMalformedEntry    = errors.New("❌ malformed whitelist entry")

	// Reading errors 📡
	ErrMissingField = errors.New("❌ reading has no identifier field")
)
