// Package types defines the keyframe, snapshot and record types shared by the
// animation engine, the Store and Table interfaces of the persistence layer,
// configuration, and the standard error values.
//
// Keyframes and curve types describe one control point of a Bezier curve.
// Snapshots are value-only captures of a target at one time and travel
// through the clipboard. Records are the persisted shape of clips, targets
// and refs as written to the data directory.
package types
