// Package pgs keeps the account databases under an /etc tree (passwd,
// group, shadow, gshadow, subuid and subgid) consistent with a strict
// site policy.
//
// The policy partitions users and groups into fixed categories (system,
// normal, software, deprecated and, for groups, per-user, device and
// stand-alone), pins the set and order of system entries, pairs every
// normal user with a group and subordinate id ranges of the same name,
// and keeps gecos fields empty. A session is opened with Open, mutated
// through the DB methods, and committed with Close, which repairs every
// policy deviation it can, re-verifies, and atomically rewrites all six
// files with a backup of each. Structural damage (malformed lines,
// wrong system entries, missing shadow rows) is never repaired, only
// reported.
//
// Writes are guarded by the same advisory lock the shadow tool suite
// uses, so pgs and passwd(1) do not trample each other.
package pgs
