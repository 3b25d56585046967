package prefs

import "errors"

var (
	// ErrEmptyKey is returned by writes addressed to the empty key.
	ErrEmptyKey = errors.New("prefs: empty key")
	// ErrNotPlist is returned when an object value holds something a durable
	// store cannot represent.
	ErrNotPlist = errors.New("prefs: not a property list object")
	// ErrEncode is returned when a custom object cannot be archived.
	ErrEncode = errors.New("prefs: cannot archive custom object")
	// ErrDecode is returned when the bytes stored for a custom object are
	// present but cannot be unarchived. Unlike a missing key, it signals
	// corrupted data and is never resolved to a default.
	ErrDecode = errors.New("prefs: cannot unarchive custom object")
	// ErrCorrupt is returned by a ValueStore when a record exists but cannot
	// be decoded.
	ErrCorrupt = errors.New("prefs: corrupt record")
)
