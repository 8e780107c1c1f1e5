// Package versionsync drives one synchronization pass over a Cargo workspace: it
// resolves the root manifest, checks every member's package version and its pins on
// fellow members, and in update mode persists the changed manifests once every member
// has been processed without error.
package versionsync
