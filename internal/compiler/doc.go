// Package compiler turns CUE skeleton definitions into pose templates.
//
// A definition lives under the top-level "skeleton" field:
//
//	skeleton: arm: {
//		bones: [
//			{name: "upper", length: 100},
//			{name: "lower", parent: "upper", x: 100, length: 100},
//			{name: "goal", y: 150},
//		]
//		ik: [{name: "reach", bones: ["upper", "lower"], target: "goal"}]
//	}
//
// Each definition is unified with an embedded #Skeleton schema, which
// rejects unknown fields and supplies defaults, and then compiled with
// CompileSkeleton. Validate reports structural problems (ordering,
// duplicates, chain shape) with E2xx codes.
package compiler
