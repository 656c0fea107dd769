package anthropic

// DefaultCacheTTL keeps a cached prefix alive across the steps of one
// analysis run.
const DefaultCacheTTL = "5m"

// BuildCachedSystemBlocks returns system blocks with a cache breakpoint on
// shared, followed by the uncached blocks in rest. Requests that repeat the
// same shared text reuse the cached prefix.
func BuildCachedSystemBlocks(shared string, rest ...string) []SystemBlock {
	blocks := make([]SystemBlock, 0, len(rest)+1)
	blocks = append(blocks, SystemBlock{
		Text:         shared,
		CacheControl: &CacheControl{TTL: DefaultCacheTTL},
	})
	for _, r := range rest {
		if r == "" {
			continue
		}
		blocks = append(blocks, SystemBlock{Text: r})
	}
	return blocks
}
