// Package domain contains the core entities and value objects of driveseq.
//
// This package has no dependencies on infrastructure concerns (transport,
// file system, logging). It holds only the data model and its invariants.
//
// # Entities
//
//   - [Pose]: position and normalized heading of the vehicle
//   - [PoseUpdate]: one raw pose-feedback message
//   - [Command]: a rotate or move instruction; [Description] is the ordered queue plus an optional [Contour]
//   - [VelocityCommand]: one actuation tick; [Stop] is the zero command
//   - [Marker]: a closed polyline visualization record and its [DeliveryPolicy]
//   - [RunReport]: summary of one executor run
package domain
