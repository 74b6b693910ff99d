// Package tasks orchestrates catalog sweep operations end to end.
//
// The core abstraction is [SweepEngine], which wires catalog sources, the
// matching core, and the cleanup executor into the operations the CLI
// exposes. Operations emit progress updates via channels for non-blocking
// status reporting to the CLI layer.
package tasks
