// Package testutil provides tablet fixtures and fault injection helpers
// for tests.
package testutil
