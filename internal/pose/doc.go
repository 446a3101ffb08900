// Package pose evaluates 2D skeletal poses.
//
// A Skeleton owns an arena of bones addressed by index and a list of
// constraints. Each frame the animation layer writes bone Local transforms,
// then UpdateWorldTransform composes world matrices parent before child and
// runs constraints in ascending order. Bones below a constrained bone are
// recomposed after the constraint, so every world matrix reflects the final
// pose when the call returns.
//
// # Transforms
//
// Every bone carries three views of its placement:
//
//   - Local: the pose input written by the caller (animation, scenario, CLI).
//   - Applied: the local transform the current World matrix was built from.
//     Constraints rewrite it through ComposeWorldWith.
//   - World: the composed affine matrix, parent world times applied local.
//
// Writing World directly through SetWorld marks Applied stale. The next
// reader that needs it calls UpdateAppliedTransform, which decomposes the
// world matrix against the parent's inverse.
//
// # Constraints
//
// IkConstraint solves one-bone (aim) and two-bone (analytic, law of
// cosines or ellipse intersection for non-uniform parent scale) chains.
// Other constraint kinds plug in through the Constraint interface without
// changes to the update loop.
//
// # Concurrency
//
// A Skeleton is not safe for concurrent use. SkeletonData is read-only after
// loading and may back any number of skeletons evaluated on separate
// goroutines.
package pose
