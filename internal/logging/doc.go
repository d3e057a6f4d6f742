// Package logging provides concrete implementations of the pgrows.Logger interface.
//
// Available implementations:
//   - ConsoleLogger: Writes leveled messages to stderr (or any writer), coloring
//     the level prefix on interactive terminals
//   - NullLogger: Discards all messages (useful for testing)
//   - RecordingLogger: Keeps messages in memory for assertions
//
// All logger implementations are safe for concurrent use by multiple goroutines.
package logging
