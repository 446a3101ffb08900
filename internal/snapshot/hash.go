package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/roach88/skelpose/internal/pose"
)

// Domain prefixes for content-addressed hashes. The version suffix allows
// the encoding to change without colliding with old hashes.
const (
	DomainSnapshot = "skelpose/snapshot/v1"
	DomainSkeleton = "skelpose/skeleton/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data) as hex.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash returns the content hash of s.
func Hash(s Snapshot) (string, error) {
	canonical, err := MarshalCanonical(s)
	if err != nil {
		return "", fmt.Errorf("Hash: %w", err)
	}
	return hashWithDomain(DomainSnapshot, canonical), nil
}

// HashCanonical hashes bytes already produced by MarshalCanonical.
func HashCanonical(canonical []byte) string {
	return hashWithDomain(DomainSnapshot, canonical)
}

// DataHash returns the content hash of a skeleton definition: bone
// hierarchy, setup transforms, lengths and IK templates. Recorded runs keep
// it so a replay can detect that the definition changed.
func DataHash(data *pose.SkeletonData) (string, error) {
	bones := make([]any, len(data.Bones))
	for i, b := range data.Bones {
		parent := ""
		if b.Parent != nil {
			parent = b.Parent.Name
		}
		bones[i] = object{
			"name":   b.Name,
			"parent": parent,
			"setup":  transformObject(b.Setup),
			"length": b.Length,
		}
	}
	iks := make([]any, len(data.IkConstraints))
	for i, c := range data.IkConstraints {
		names := make([]any, len(c.Bones))
		for j, b := range c.Bones {
			names[j] = b.Name
		}
		target := ""
		if c.Target != nil {
			target = c.Target.Name
		}
		iks[i] = object{
			"name":     c.Name,
			"order":    c.Order,
			"bones":    names,
			"target":   target,
			"mix":      c.Mix,
			"bend":     c.BendDirection,
			"compress": c.Compress,
			"stretch":  c.Stretch,
			"uniform":  c.Uniform,
		}
	}
	canonical, err := marshalValue(object{"name": data.Name, "bones": bones, "ik": iks})
	if err != nil {
		return "", fmt.Errorf("DataHash %q: %w", data.Name, err)
	}
	return hashWithDomain(DomainSkeleton, canonical), nil
}
