package pose

// Constraint is anything that rewrites bone transforms after the base
// hierarchy pass. The skeleton orders constraints by Order and uses Inputs
// and Constrained to place them in its update cache.
type Constraint interface {
	// Name returns the constraint's template name.
	Name() string

	// Order returns the declared evaluation order. Lower runs first.
	Order() int

	// Inputs returns the arena indices of bones the constraint reads, such
	// as its target.
	Inputs() []int

	// Constrained returns the arena indices of bones the constraint writes,
	// parent first.
	Constrained() []int

	// IsActive reports whether the constraint should run this frame.
	IsActive() bool

	// Apply solves the constraint and recomposes the bones it owns.
	Apply()
}
