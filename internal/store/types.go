package store

// Run is one recorded evaluation session of a skeleton.
type Run struct {
	ID         string
	Skeleton   string
	DataHash   string // snapshot.DataHash of the definition at record time
	CreatedSeq int64
}

// Frame is one evaluated frame of a run.
type Frame struct {
	RunID    string
	Seq      int64
	Hash     string
	Input    []byte // JSON frame input
	Snapshot []byte // canonical snapshot JSON
}
