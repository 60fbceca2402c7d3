package types

import "strings"

// Address identifies a principal or an account on a token ledger.
// The engine treats it as an opaque, case-sensitive string.
type Address string

// IsZero reports whether the address is empty.
func (a Address) IsZero() bool { return strings.TrimSpace(string(a)) == "" }

// String implements fmt.Stringer.
func (a Address) String() string { return string(a) }

// Height is a monotonically increasing position used for expirations.
// It may be a block height or a unix timestamp, depending on the Clock
// the engine is configured with.
type Height int64
