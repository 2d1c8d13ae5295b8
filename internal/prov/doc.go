// Package prov provides the W3C PROV document model used by mlprov.
//
// This package is the foundational layer: it imports nothing internal.
// Domain facts, generators, graph operations and serializers all speak
// in terms of the types defined here.
//
// Key design constraints:
//   - Identity is URI-based: two qualified names are the same node when
//     their namespace URI and local part match, whatever the prefix.
//   - Attribute sets have set semantics; they are kept sorted and free of
//     duplicate (key, value) pairs so identical graphs compare and
//     serialize identically.
//   - Elements are identity-keyed inside a Document; relations are a
//     multiset until deduplicated.
package prov
