// Package harness runs conformance scenarios against skeleton definitions.
//
// A scenario is a YAML file:
//
//	name: pointer_aim
//	description: "Aim constraint stretches toward a moving mark"
//	skeletons: ../skeletons
//	skeleton: pointer
//	run_id: pointer-run
//	frames:
//	  - {}
//	  - targets: {mark: {x: 0, y: 100}}
//	  - constraints: {aim: {mix: 0.5}}
//	  - setup: true
//	assertions:
//	  - {type: tip_near, frame: 1, bone: needle, x: 150, y: 50}
//	  - {type: bone_rotation, frame: 2, bone: needle, rotation: 90}
//
// Frame inputs persist between frames, exactly as engine.Frame documents.
//
// # Assertion Types
//
//   - bone_world: the bone's world origin is within tolerance of (x, y)
//   - tip_near: the bone's world tip is within tolerance of (x, y)
//   - bone_rotation: the bone's world X-axis rotation matches, modulo 360
//   - bone_scale: the bone's world X-axis length matches
//
// # Deterministic Testing
//
// Every run uses a testutil.DeterministicClock, a fixed run ID and a fresh
// in-memory store. After the frames are evaluated the recorded run is
// replayed and its hashes compared, so each scenario also checks that
// evaluation is reproducible. RunWithGolden compares the trace with a
// golden file under testdata/golden.
package harness
