package magnitude

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolverCachesAfterFirstLookup(t *testing.T) {
	src := &recordingSource{settings: StationSettings{"gain": "1.0"}}
	resolver := NewStationParameterResolver(src, "magengine", 2)

	resolver.Resolve("GE", "WLF")
	resolver.Resolve("GE", "WLF")
	resolver.Resolve("GE", "WLF")

	assert.Equal(t, 1, src.calls)
}

func TestResolverEvictsLeastRecentlyUsed(t *testing.T) {
	src := &recordingSource{settings: StationSettings{}}
	resolver := NewStationParameterResolver(src, "magengine", 2)

	resolver.Resolve("GE", "AAA")
	resolver.Resolve("GE", "BBB")
	resolver.Resolve("GE", "CCC") // evicts AAA, the least recently used

	before := src.calls
	resolver.Resolve("GE", "AAA")
	assert.Equal(t, before+1, src.calls, "AAA should have been evicted and re-fetched")
}
