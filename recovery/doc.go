// Package recovery rebuilds a tablet's primary key index and delete
// vectors from its immutable rowset data.
//
// Recovery runs when the in-memory index and the delete vector state of
// a tablet are lost or suspect, for example after a node crash or a
// detected inconsistency. It replays the tablet's rowsets in logical
// write order into a fresh private index, derives the delete vectors
// that mark superseded rows, and publishes the result as the next
// metadata version in a single atomic commit. A failed or cancelled run
// leaves the previously committed version untouched; rerunning starts
// from cleanup again.
package recovery
