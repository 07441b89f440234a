package pgs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// stubHasher produces predictable hashes without the cost of real
// crypt rounds.
type stubHasher struct{}

func (stubHasher) Hash(password string) (string, error) {
	return "$6$stub$" + password, nil
}

const testLoginDefs = `# test policy
UID_MIN 1000
UID_MAX 10000
GID_MIN 1000
GID_MAX 10000
SUB_UID_MIN 100000
SUB_UID_MAX 624288
SUB_UID_COUNT 65536
SUB_GID_MIN 100000
SUB_GID_MAX 624288
SUB_GID_COUNT 65536
`

// minimalFiles is the smallest consistent database: the pinned system
// entries and nothing else.
func minimalFiles() map[string]string {
	return map[string]string{
		"etc/login.defs": testLoginDefs,
		"etc/passwd": `# managed by strictpgs

root:x:0:0::/root:/bin/bash
nobody:x:999:999::/nonexistent:/sbin/nologin
`,
		"etc/group": `# managed by strictpgs

root:x:0:
nobody:x:999:
nogroup:x:998:
wheel:x:10:
users:x:100:
`,
		"etc/shadow": `# managed by strictpgs

root:!:::::::
nobody:!:::::::
`,
		"etc/gshadow": "",
		"etc/subuid":  "# managed by strictpgs\n\n",
		"etc/subgid":  "# managed by strictpgs\n\n",
	}
}

// populatedFiles carries at least one entry of every category and
// passes both verification stages.
func populatedFiles() map[string]string {
	f := minimalFiles()
	f["etc/passwd"] = `# managed by strictpgs

root:x:0:0::/root:/bin/bash
nobody:x:999:999::/nonexistent:/sbin/nologin

alice:x:1000:1000::/home/alice:/bin/bash
bob:x:1001:1001::/home/bob:/bin/bash

sshd:x:74:74::/var/empty:/sbin/nologin

bin:x:1:1::/bin:/sbin/nologin
`
	f["etc/group"] = `# managed by strictpgs

root:x:0:
nobody:x:999:
nogroup:x:998:
wheel:x:10:alice
users:x:100:

alice:x:1000:
bob:x:1001:

builders:x:5000:alice,bob

tty:x:5:
audio:x:63:alice

sshd:x:74:

bin:x:1:
`
	f["etc/shadow"] = `# managed by strictpgs

root:!:::::::
nobody:!:::::::
alice:$6$stub$old:::::::
bob:$6$stub$old:::::::
`
	f["etc/subuid"] = "# managed by strictpgs\n\nalice:100000:65536\nbob:165536:65536\nsshd:231072:65536\n"
	f["etc/subgid"] = "# managed by strictpgs\n\nalice:100000:65536\nbob:165536:65536\nsshd:231072:65536\n"
	return f
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	prefix := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(prefix, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return prefix
}

func openTree(t *testing.T, prefix string, readOnly bool) *DB {
	t.Helper()
	db, err := Open(Options{DirPrefix: prefix, ReadOnly: readOnly, Hasher: stubHasher{}})
	require.NoError(t, err)
	return db
}

func openTest(t *testing.T, files map[string]string, readOnly bool) *DB {
	t.Helper()
	return openTree(t, writeTree(t, files), readOnly)
}
