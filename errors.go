package nexttag

import "errors"

// Error kinds returned by NextTag. Callers match them with errors.Is; the
// wrapped message carries the offending value.
var (
	ErrUnsupportedScheme      = errors.New("unsupported version scheme")
	ErrParseFailure           = errors.New("failed to parse tag")
	ErrUnsupportedVersionType = errors.New("unsupported version type")
	ErrComputeFailure         = errors.New("failed to compute next tag")
)
