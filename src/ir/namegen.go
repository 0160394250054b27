package ir

import "fmt"

// NameGen hands out fresh, unique textual names for IR values and basic blocks. Front-end IR
// generation is single-threaded, so a plain counter on a struct is enough and avoids paying for
// synchronisation nothing needs.
type NameGen struct {
	seq int
}

// NewNameGen returns a fresh generator starting at zero.
func NewNameGen() *NameGen { return &NameGen{} }

// Generate returns a name of the form "prefix{N}" and advances the counter.
func (g *NameGen) Generate(prefix string) string {
	g.seq++
	return fmt.Sprintf("%s%d", prefix, g.seq)
}

// GenerateGroup advances the counter once, then formats every prefix in prefixes against that
// same new value. Used wherever a single control-flow construct introduces several related
// blocks at once (an if's then/merge, a while's entry/body/end) so the blocks read as one group
// sharing a number rather than drifting apart with unrelated counter values.
func (g *NameGen) GenerateGroup(prefixes []string) []string {
	g.seq++
	names := make([]string, len(prefixes))
	for i, prefix := range prefixes {
		names[i] = fmt.Sprintf("%s%d", prefix, g.seq)
	}
	return names
}
