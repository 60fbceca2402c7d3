package escrow

import "github.com/xraph/escrow/id"

// ID is the identifier type for engine-assigned records.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
