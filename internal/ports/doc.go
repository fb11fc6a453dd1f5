// Package ports defines the interfaces that connect the executor core to
// infrastructure adapters.
//
// # Port Interfaces
//
//   - [PoseSource]: delivers pose feedback in arrival order
//   - [VelocitySink]: accepts one velocity command per control tick
//   - [MarkerSink]: best-effort, at-least-N delivery of visualization records
//   - [ReportRepository]: persists run reports
//   - [HTTPClient]: HTTP request abstraction for dependency injection
//
// The application layer (internal/app) depends only on these interfaces.
// Adapters under internal/adapters implement them over MQTT, Kafka, Redis,
// HTTP, the file system, or a simulated vehicle.
package ports
