// Package keyset provides hash-caching containers for byte-string keys.
//
// Each stored key is paired with a 64-bit hash computed once at insertion.
// Lookups compare hashes before touching key bytes, so a mismatch is
// decided without a memory access to the key data. The trade-off is eight
// extra bytes per entry, which is usually offset by the avoided cache
// misses when the container holds many keys.
//
// Two flavors exist:
//
//   - Set: membership only
//   - Map: key -> value with insert-or-replace returning the prior value
//
// Both accept an optional seed. Independent containers built from the
// same data should use different seeds to decorrelate their collision
// patterns.
package keyset
