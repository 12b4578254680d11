// Package tabletmeta manages versioned tablet metadata snapshots.
//
// A tablet's metadata describes its schema, the rowsets it is composed
// of and the delete vectors marking superseded rows. Snapshots are
// immutable; changes go through a Builder and become visible in a single
// atomic commit that bumps the metadata version and swaps the tablet's
// CURRENT pointer.
package tabletmeta
