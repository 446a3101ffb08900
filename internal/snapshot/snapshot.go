package snapshot

import "github.com/roach88/skelpose/internal/pose"

// Snapshot is the evaluated pose of one skeleton at one frame.
type Snapshot struct {
	Skeleton string         `json:"skeleton"`
	Frame    int64          `json:"frame"`
	Bones    []BoneSnapshot `json:"bones"`
}

// BoneSnapshot is one bone's evaluated state.
type BoneSnapshot struct {
	Name    string         `json:"name"`
	World   pose.Affine    `json:"world"`
	Applied pose.Transform `json:"applied"`
}

// FromSkeleton captures s in bone order. Stale applied transforms are
// recovered from the world matrices first, so s may be modified.
func FromSkeleton(name string, frame int64, s *pose.Skeleton) Snapshot {
	bones := s.Bones()
	snap := Snapshot{
		Skeleton: name,
		Frame:    frame,
		Bones:    make([]BoneSnapshot, len(bones)),
	}
	for i := range bones {
		b := s.Bone(i)
		if !b.AppliedValid() {
			s.UpdateAppliedTransform(i)
		}
		snap.Bones[i] = BoneSnapshot{
			Name:    b.Name(),
			World:   b.World,
			Applied: b.Applied,
		}
	}
	return snap
}

// Bone returns the named bone snapshot.
func (s Snapshot) Bone(name string) (BoneSnapshot, bool) {
	for _, b := range s.Bones {
		if b.Name == name {
			return b, true
		}
	}
	return BoneSnapshot{}, false
}
