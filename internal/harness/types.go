package harness

// TraceBone is one bone's world state in a trace frame.
type TraceBone struct {
	Name     string  `json:"name"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
	Scale    float64 `json:"scale"`
	TipX     float64 `json:"tip_x"`
	TipY     float64 `json:"tip_y"`
}

// TraceFrame is the evaluated pose of one frame.
type TraceFrame struct {
	Seq   int64       `json:"seq"`
	Hash  string      `json:"hash"`
	Bones []TraceBone `json:"bones"`
}

// Bone returns the named bone, or false.
func (f TraceFrame) Bone(name string) (TraceBone, bool) {
	for _, b := range f.Bones {
		if b.Name == name {
			return b, true
		}
	}
	return TraceBone{}, false
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion holds and the run replays to the
	// same hashes.
	Pass bool `json:"pass"`

	RunID string `json:"run_id"`

	// Trace holds one entry per evaluated frame, in order.
	Trace []TraceFrame `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceFrame{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
