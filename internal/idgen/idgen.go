// Package idgen mints globally-unique opaque identifiers for records that
// leave the trust boundary; internal/roomsvc uses it for invite codes.
// Upload ids are UUIDs and scheduled-message ids are assigned by the
// store. Per-room message ids stay a monotonic counter owned by the store
// (spec §3), since those never need to be unguessable.
package idgen

import (
	"strconv"

	"github.com/tinode/snowflake"
)

// Generator wraps a snowflake worker, following the teacher's dependency
// on github.com/tinode/snowflake for sortable, globally-unique ids.
type Generator struct {
	sf *snowflake.Snowflake
}

// New builds a Generator for the given worker id (0-1023), distinct per
// server process so horizontally-scaled instances never collide.
func New(workerID uint) (*Generator, error) {
	sf, err := snowflake.NewSnowflake(uint32(workerID))
	if err != nil {
		return nil, err
	}
	return &Generator{sf: sf}, nil
}

// NextOpaqueID returns a base36-encoded snowflake id, short enough to sit
// in a URL path segment (invite codes).
func (g *Generator) NextOpaqueID() string {
	id := g.sf.Next()
	return strconv.FormatUint(id, 36)
}

// NextID returns the raw numeric snowflake id.
func (g *Generator) NextID() int64 {
	return int64(g.sf.Next())
}
