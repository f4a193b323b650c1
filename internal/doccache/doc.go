// Package doccache keeps an on-disk working copy of every open document so
// that an editor can recover them after a crash.
//
// A [Manager] owns one live cache directory. Each tracked document is given a
// randomly named cache file (fw_xxxxxx) in that directory, and the mapping
// from cache files to the documents' logical paths is persisted in an index
// file called "mapping", in the editor's document order.
//
// # Recovery protocol
//
// When a Manager is created and the live directory already contains an index,
// the previous session never had its state claimed. The directory is rotated
// into a timestamped snapshot next to it (see package snapshot), an empty
// live directory is created, and [Manager.IsClean] reports false. Callers then
// use [Manager.ParseMapping] to reopen the documents from the snapshot.
//
// [Manager.Close] performs the same rotation unconditionally, so every
// session leaves a snapshot behind as a recovery point. The manager cannot
// tell a clean exit from a crash by itself; the next launch decides based on
// what is on disk.
//
// # Document events
//
// Documents report changes through [Event] values: a rename, a request to
// adopt a pre-written file as the cache file, or a request to have a
// [Writer] serialize the document into its cache file. Events are delivered
// with [Manager.Notify], from a channel with [Manager.Drain], or by documents
// implementing [Notifier], which the manager subscribes to in [Manager.Add].
//
// # Errors
//
// Filesystem failures are logged at debug level and otherwise absorbed: a
// failed index read yields no entries, a failed index rewrite leaves the
// previous index in place, and a failed snapshot leaves whatever state the
// filesystem ended up in.
//
// # Concurrency
//
// A Manager is not safe for concurrent use. All calls are expected to come
// from the editor's single interactive goroutine.
package doccache
