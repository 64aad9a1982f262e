package testutil

// FixedIDGenerator generates the same session ID every time.
//
// This enables golden snapshot comparison of journals and reports: the same
// scenario with the same FixedIDGenerator produces byte-identical labels.
//
// Unlike session.SequenceIDs, which returns IDs in sequence, this generator
// always returns the same ID.
//
// Thread-safety: FixedIDGenerator is stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a fixed session ID generator.
//
// If id is empty, Generate() returns "test-session-default".
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "test-session-default"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed ID.
//
// Implements session.IDGenerator.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}
