// Package angle provides heading arithmetic for planar vehicles.
//
// All headings are expressed in radians in the canonical range (−π, π].
// Normalize maps any finite angle into that range with a single modulo
// computation, and Yaw extracts the heading about the vertical axis from a
// unit quaternion.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package angle
