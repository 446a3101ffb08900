// Package engine drives a skeleton through a sequence of frames.
//
// A Runner owns one pose.Skeleton. Each Step applies a Frame of inputs
// (local overrides, target positions, IK settings), evaluates the world
// transforms, and captures a canonical snapshot whose hash identifies the
// pose. Frames are stamped by a logical clock, never by wall-clock time, so
// the same inputs always produce the same seq and hash. Replay relies on
// this to verify recorded runs.
//
// Frames can be stepped directly or enqueued from any goroutine and
// evaluated by the single-writer Serve loop.
package engine
