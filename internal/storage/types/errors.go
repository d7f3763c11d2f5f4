package types

import "errors"

// ErrMalformedKey indicates a document key that does not follow the "<guild>-<user>" layout.
var ErrMalformedKey = errors.New("malformed member key")
