package streaming

import (
	"regexp"
)

// wordPattern matches one word together with the whitespace that follows it.
var wordPattern = regexp.MustCompile(`^\s*\S+\s+`)

// wordChunker regroups model text deltas on word boundaries so clients
// render whole words instead of arbitrary token fragments.
type wordChunker struct {
	pending string
}

// push adds a delta and returns every word completed by it.
func (c *wordChunker) push(delta string) []string {
	c.pending += delta

	var words []string
	for {
		loc := wordPattern.FindStringIndex(c.pending)
		if loc == nil {
			break
		}
		words = append(words, c.pending[:loc[1]])
		c.pending = c.pending[loc[1]:]
	}
	return words
}

// flush returns whatever is buffered.
func (c *wordChunker) flush() string {
	rest := c.pending
	c.pending = ""
	return rest
}
