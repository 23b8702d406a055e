// Package sim owns the highway traffic simulation core.
//
// Responsibilities: vehicle kinematics, the background-traffic and
// assisted-cruise-control behavior variants, neighbour sensing across
// lanes, the lane-change coordinator, and recycling of vehicles that
// leave the window around the preferred vehicle.
// Key types: Highway, Lane, Vehicle, Target, Neighbours.
//
// Each call to Highway.Step runs a fixed pipeline: recycle, sort,
// collision scan, sense, decide, integrate, advance lane changes.
// Sensing completes for every vehicle before any vehicle decides, so no
// decision observes a position integrated during the same tick.
//
// The package is single-threaded. Callers must not invoke Highway
// methods concurrently.
package sim
