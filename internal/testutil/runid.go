package testutil

// DefaultRunID is used when a scenario does not name its run.
const DefaultRunID = "test-run-default"

// FixedRunGenerator returns the same run ID on every call, so recorded
// golden output does not depend on UUID generation. It satisfies
// engine.RunIDGenerator.
type FixedRunGenerator struct {
	id string
}

// NewFixedRunGenerator returns a generator for id, or DefaultRunID when id
// is empty.
func NewFixedRunGenerator(id string) *FixedRunGenerator {
	if id == "" {
		id = DefaultRunID
	}
	return &FixedRunGenerator{id: id}
}

// Generate returns the fixed run ID.
func (g *FixedRunGenerator) Generate() string {
	return g.id
}
