package rawdata

import "time"

// Payload is a provider response archived verbatim, deduplicated by hash.
type Payload struct {
	Source      string
	EntityType  string
	EntityKey   string
	PayloadJSON string
	PayloadHash string
	FetchedAt   time.Time
}
