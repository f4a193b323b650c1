package doccache

import "io"

// DocumentID identifies a document for as long as it is open.
type DocumentID string

// Document is the part of an editor document the cache needs.
type Document interface {
	ID() DocumentID
	// Filename returns the document's current save location, or "" if it has
	// never been saved.
	Filename() string
}

// Ordering supplies the editor's document order, used verbatim as the line
// order of the index.
type Ordering interface {
	Count() int
	Document(i int) Document
}

// Writer serializes one document's contents to a file.
//
// A Writer handed to the manager is owned by it from then on. If it also
// implements io.Closer it is closed once the write has finished or failed.
type Writer interface {
	SetFileName(path string)
	Write() error
}

// EventKind tags the kind of a document Event.
type EventKind int

const (
	// EventRenamed means the document's logical filename changed.
	EventRenamed EventKind = iota + 1
	// EventReplaceCacheFile asks for the cache file to be replaced by the
	// file at Event.Path.
	EventReplaceCacheFile
	// EventWriteCacheFile asks for Event.Writer to write the cache file.
	EventWriteCacheFile
)

func (k EventKind) String() string {
	switch k {
	case EventRenamed:
		return "renamed"
	case EventReplaceCacheFile:
		return "replace-cache-file"
	case EventWriteCacheFile:
		return "write-cache-file"
	default:
		return "unknown"
	}
}

// Event is a notification from a document to the cache.
type Event struct {
	Kind     EventKind
	Document Document
	Path     string // EventReplaceCacheFile only
	Writer   Writer // EventWriteCacheFile only
}

// Renamed returns an EventRenamed for doc.
func Renamed(doc Document) Event {
	return Event{Kind: EventRenamed, Document: doc}
}

// ReplaceCacheFile returns an EventReplaceCacheFile for doc.
func ReplaceCacheFile(doc Document, path string) Event {
	return Event{Kind: EventReplaceCacheFile, Document: doc, Path: path}
}

// WriteCacheFile returns an EventWriteCacheFile for doc.
func WriteCacheFile(doc Document, w Writer) Event {
	return Event{Kind: EventWriteCacheFile, Document: doc, Writer: w}
}

// Observer receives document events.
type Observer interface {
	Notify(Event)
}

// Notifier is implemented by documents that push their own events.
// Observe registers o and returns a function that unregisters it.
type Notifier interface {
	Document
	Observe(o Observer) (cancel func())
}

// release disposes of a Writer after use.
func release(w Writer) {
	if c, ok := w.(io.Closer); ok {
		c.Close()
	}
}
