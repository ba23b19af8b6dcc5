package addr

import "github.com/routeflow/zfibd/internal/zerrors"

// ErrInvalid re-exports zerrors.ErrInvalid so callers constructing a
// Prefix/Nexthop can errors.Is against this package without importing
// zerrors directly.
var ErrInvalid = zerrors.ErrInvalid
