// Package store persists the latest ride snapshot and relays reset
// requests between the server and the calculator.
//
// The main components are:
//
//   - [Store]: interface for saving, loading and subscribing to snapshots
//   - [FileStore]: JSON file implementation, shareable between processes
//   - [MemoryStore]: in-memory implementation
//   - [ResetFlag]: file-based reset request
//
// Subscribers receive snapshots via channels with non-blocking sends (slow
// subscribers miss updates rather than block the calculator).
package store
