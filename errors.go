package fbuf

import "github.com/pkg/errors"

// ErrInvalidState marks any access to a released image, a second close, or
// an ownership operation attempted in the wrong phase of the attach/detach
// protocol. Released is terminal; these failures are never transient.
var ErrInvalidState = errors.New("invalid state")

// ErrInvalidArgument marks malformed construction input, such as a plane
// count that does not match the format.
var ErrInvalidArgument = errors.New("invalid argument")
