// Package workspace resolves a Cargo workspace root manifest into its ordered member
// list, the membership set used to recognize internal dependencies, and the optional
// shared version declared under [workspace.package].
//
// Member entries are taken verbatim unless they contain glob metacharacters, in which
// case they expand to the matching directories that hold a member manifest, minus any
// [workspace].exclude entries.
package workspace
