package analysis

import "errors"

// ErrInput is returned when there is nothing to analyze: no text, file or
// reference was given.
var ErrInput = errors.New("no input to analyze")
