// Package doctor provides diagnostic and repair functionality for a document
// cache directory and its snapshots.
//
// The doctor package detects and optionally repairs issues including:
//
//   - Cache issues: a live directory that is not writable, an index that
//     cannot be read, and an index left behind by a session that never
//     claimed it.
//
//   - File issues: orphan cache files that no index entry references, and
//     dangling index entries whose cache file is gone.
//
//   - Snapshot issues: more snapshots than the configured retention.
//
// # Usage
//
// Run diagnostics:
//
//	err := doctor.Run(ctx, cfg, false)  // check only
//	err := doctor.Run(ctx, cfg, true)   // check and fix
//
// While an editor session holds the cache lock, the live directory is
// reported as in use and only snapshots are checked.
//
// # Issue Categories
//
// Issues are grouped into three categories:
//
//   - [CategoryCache]: Problems with the live directory or its index
//   - [CategoryFiles]: Orphan cache files and dangling entries
//   - [CategorySnapshot]: Retention problems
//
// Each [Issue] includes a description and suggested fix action.
package doctor
