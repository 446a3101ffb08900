// Package snapshot captures evaluated skeleton poses in a canonical,
// content-addressed form.
//
// A Snapshot lists every bone's world matrix and applied transform.
// MarshalCanonical renders it as canonical JSON (sorted keys, NFC strings,
// floats rounded to 1e-6) so that two evaluations of the same pose hash to
// the same value on any machine that produces the same rounded numbers.
package snapshot
