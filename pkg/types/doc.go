// Package types holds the value types exchanged with a MagicDog robot.
//
// Every type here is a plain field container. Nothing in this package owns
// state or enforces invariants beyond its zero values; the robot side decides
// what a value means. JSON tags use the field names of the robot's own
// protocol so the structures can cross the wire unchanged.
package types
