package parser

// Partition splits the filtered token stream into observation blocks.
//
// A block starting at i runs up to (not including) the first boundary token
// found at or after i+2; the first two fields of every block are its own
// departure and arrival times, so the search skips them. The token that
// closes a block opens the next one.
//
// The trailing tokens after the last closed block have no closing boundary
// and are returned as rest; they are never turned into a block.
func Partition(tokens []string) (blocks [][]string, rest []string) {
	i := 0
	for i < len(tokens)-1 {
		end := -1
		for j := i + 2; j < len(tokens); j++ {
			if IsBoundary(tokens[j]) {
				end = j
				break
			}
		}
		if end == -1 {
			break
		}
		blocks = append(blocks, tokens[i:end])
		i = end
	}
	if i < len(tokens) {
		rest = tokens[i:]
	}
	return blocks, rest
}
