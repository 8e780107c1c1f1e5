// Package manifest loads Cargo-style TOML manifests and rewrites single string scalars
// in place.
//
// A Document keeps the original bytes. Reads go through a decoded tree; writes are
// recorded as byte-range edits over the original source and materialized only by
// Bytes or Save, so everything outside an edited scalar (comments, ordering,
// whitespace, quoting of other values) is preserved byte for byte.
package manifest
