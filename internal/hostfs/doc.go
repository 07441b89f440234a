package hostfs

// Package hostfs provides safe access helpers for the account database
// files. Writers go through a temp-file-and-rename cycle so readers of
// /etc/passwd and friends never observe a half-written file, with an
// in-place fallback for bind-mounted targets.
