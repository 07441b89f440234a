package pgs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordLines(t *testing.T) {
	data := []byte(`# managed by strictpgs

root:x:0:0::/root:/bin/bash
# a comment
nobody:x:999:999::/nonexistent:/sbin/nologin
`)
	recs, err := recordLines(data, 7, "passwd")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "root", recs[0][0])
	assert.Equal(t, "nobody", recs[1][0])
}

func TestRecordLinesWrongArity(t *testing.T) {
	// six fields where passwd needs seven must be rejected, not
	// silently padded or truncated
	data := []byte("root:x:0:0:/root:/bin/bash\n")
	_, err := recordLines(data, 7, "passwd")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFormat)
	assert.Contains(t, err.Error(), "passwd")
}

func TestParsePasswdEntry(t *testing.T) {
	e, err := parsePasswdEntry([]string{"alice", "x", "1000", "1000", "", "/home/alice", "/bin/bash"})
	require.NoError(t, err)
	assert.Equal(t, "alice", e.Name)
	assert.Equal(t, 1000, e.UID)
	assert.Equal(t, 1000, e.GID)
	assert.Equal(t, "/home/alice", e.Home)

	_, err = parsePasswdEntry([]string{"alice", "x", "ten", "1000", "", "/home/alice", "/bin/bash"})
	assert.ErrorIs(t, err, ErrFormat)
}

func TestParseGroupEntryMembers(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		members []string
	}{
		{name: "empty", field: "", members: nil},
		{name: "single", field: "alice", members: []string{"alice"}},
		{name: "two", field: "alice,bob", members: []string{"alice", "bob"}},
		{name: "flawed empty token survives parsing", field: "alice,,bob", members: []string{"alice", "", "bob"}},
		{name: "flawed trailing comma survives parsing", field: "alice,", members: []string{"alice", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := parseGroupEntry([]string{"g", "x", "5000", tt.field})
			require.NoError(t, err)
			assert.Equal(t, tt.members, e.Members)

			// the member field round-trips byte for byte
			assert.Equal(t, tt.field, strings.Join(e.Members, ","))
		})
	}
}

func TestParseShadowEntryKeepsNameAndHash(t *testing.T) {
	e, err := parseShadowEntry([]string{"alice", "$6$salt$hash", "19000", "0", "99999", "7", "", "", ""})
	require.NoError(t, err)
	assert.Equal(t, "alice", e.Name)
	assert.Equal(t, "$6$salt$hash", e.Hash)
}

func TestParseSubIDEntry(t *testing.T) {
	e, err := parseSubIDEntry([]string{"alice", "100000", "65536"}, "subuid")
	require.NoError(t, err)
	assert.Equal(t, &SubIDEntry{Name: "alice", Start: 100000, Count: 65536}, e)

	_, err = parseSubIDEntry([]string{"alice", "100000", "lots"}, "subuid")
	assert.ErrorIs(t, err, ErrFormat)
}

func TestNonEmptyTokens(t *testing.T) {
	assert.Nil(t, nonEmptyTokens(nil))
	assert.Nil(t, nonEmptyTokens([]string{"", ""}))
	assert.Equal(t, []string{"a", "b"}, nonEmptyTokens([]string{"", "a", "", "b", ""}))
}
