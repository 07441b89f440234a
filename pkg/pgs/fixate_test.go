package pgs

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mess applies every repairable deviation at once: scrambled orders,
// comments, a misbehaving software user, root memberships, member list
// flaws, stray and missing derived records.
func mess(db *DB) {
	db.systemUsers = []string{"nobody", "root"}
	db.users["root"].Gecos = "Super User"
	db.normalUsers = []string{"bob", "alice"}
	db.users["alice"].Gecos = "Alice"
	db.users["sshd"].Shell = "/bin/bash"
	db.shadow["sshd"] = newShadowEntry("sshd", "!")
	db.systemGroups = []string{"wheel", "root", "nobody", "nogroup", "users"}
	db.perUserGroups = []string{"bob", "alice"}
	db.groups["zeta"] = newGroupEntry("zeta", 4500, nil)
	db.standAloneGroups = []string{"builders", "zeta"}
	db.secondary["root"] = []string{"wheel"}
	db.groups["wheel"].Members = append(db.groups["wheel"].Members, "root")
	db.groups["builders"].Members = []string{"alice", "", "bob"}
	db.shadow["ghost"] = newShadowEntry("ghost", "!")
	db.shadowOrder = []string{"ghost", "bob", "root", "alice", "nobody"}
	db.subUID["ghost"] = newSubIDEntry("ghost", 493216, 65536)
	delete(db.subUID, "bob")
	db.subUIDOrder = []string{"ghost", "alice", "sshd"}
}

func TestFixateRepairsPolicyDeviations(t *testing.T) {
	db := openTest(t, populatedFiles(), false)
	defer db.Discard()

	mess(db)
	require.Error(t, db.Verify())

	require.NoError(t, db.fixate())
	require.NoError(t, db.Verify())

	assert.Equal(t, []string{"root", "nobody"}, db.systemUsers)
	assert.Equal(t, "", db.users["root"].Gecos)
	assert.Equal(t, []string{"alice", "bob"}, db.normalUsers)
	assert.Equal(t, "", db.users["alice"].Gecos)

	assert.Equal(t, softwareUserShell, db.users["sshd"].Shell)
	assert.Nil(t, db.shadow["sshd"])

	assert.Equal(t, stdSystemGroups, db.systemGroups)
	assert.Equal(t, []string{"alice", "bob"}, db.perUserGroups)
	assert.Equal(t, []string{"zeta", "builders"}, db.standAloneGroups)

	assert.Nil(t, db.secondary["root"])
	assert.Equal(t, []string{"alice"}, db.groups["wheel"].Members)
	assert.Equal(t, []string{"alice", "bob"}, db.groups["builders"].Members)

	assert.Nil(t, db.shadow["ghost"])
	assert.Equal(t, []string{"root", "nobody", "alice", "bob"}, db.shadowOrder)

	assert.Nil(t, db.subUID["ghost"])
	require.NotNil(t, db.subUID["bob"])
	assert.Equal(t, 296608, db.subUID["bob"].Start)
	assert.Equal(t, []string{"alice", "bob", "sshd"}, db.subUIDOrder)
	assert.Equal(t, []string{"alice", "bob", "sshd"}, db.subGIDOrder)
}

// dbState captures everything fixate is allowed to touch.
type dbState struct {
	SystemUsers, NormalUsers, SoftwareUsers, DeprecatedUsers   []string
	SystemGroups, PerUserGroups, DeviceGroups, StandAloneGroup []string
	ShadowOrder, SubUIDOrder, SubGIDOrder                      []string
	Members                                                    map[string][]string
	SubUIDStarts, SubGIDStarts                                 map[string]int
}

func snapshot(db *DB) dbState {
	s := dbState{
		SystemUsers:     cloneStrings(db.systemUsers),
		NormalUsers:     cloneStrings(db.normalUsers),
		SoftwareUsers:   cloneStrings(db.softwareUsers),
		DeprecatedUsers: cloneStrings(db.deprecatedUsers),
		SystemGroups:    cloneStrings(db.systemGroups),
		PerUserGroups:   cloneStrings(db.perUserGroups),
		DeviceGroups:    cloneStrings(db.deviceGroups),
		StandAloneGroup: cloneStrings(db.standAloneGroups),
		ShadowOrder:     cloneStrings(db.shadowOrder),
		SubUIDOrder:     cloneStrings(db.subUIDOrder),
		SubGIDOrder:     cloneStrings(db.subGIDOrder),
		Members:         map[string][]string{},
		SubUIDStarts:    map[string]int{},
		SubGIDStarts:    map[string]int{},
	}
	for name, g := range db.groups {
		s.Members[name] = cloneStrings(g.Members)
	}
	for name, e := range db.subUID {
		s.SubUIDStarts[name] = e.Start
	}
	for name, e := range db.subGID {
		s.SubGIDStarts[name] = e.Start
	}
	return s
}

func TestFixateIsIdempotent(t *testing.T) {
	db := openTest(t, populatedFiles(), false)
	defer db.Discard()

	mess(db)
	require.NoError(t, db.fixate())
	before := snapshot(db)

	require.NoError(t, db.fixate())

	if diff := cmp.Diff(before, snapshot(db)); diff != "" {
		t.Errorf("second pass changed state (-first +second):\n%s", diff)
	}
}

func TestFixateReportsStructuralDamage(t *testing.T) {
	tests := []struct {
		name   string
		damage func(db *DB)
		want   string
	}{
		{
			name:   "system user missing",
			damage: func(db *DB) { db.systemUsers = []string{"root"} },
			want:   "invalid system user list",
		},
		{
			name:   "system group missing",
			damage: func(db *DB) { db.systemGroups = removeString(db.systemGroups, "wheel") },
			want:   "invalid system group list",
		},
		{
			name:   "per-user group missing",
			damage: func(db *DB) { db.perUserGroups = removeString(db.perUserGroups, "bob") },
			want:   "invalid per-user group list",
		},
		{
			name:   "shadow entry missing",
			damage: func(db *DB) { delete(db.shadow, "alice") },
			want:   "no shadow entry for user alice",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := openTest(t, populatedFiles(), false)
			defer db.Discard()

			tt.damage(db)
			err := db.fixate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrFormat)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFixateSubordinateExhaustion(t *testing.T) {
	files := minimalFiles()
	files["etc/login.defs"] = `UID_MIN 1000
UID_MAX 10000
GID_MIN 1000
GID_MAX 10000
SUB_UID_MIN 100000
SUB_UID_MAX 165536
SUB_UID_COUNT 65536
SUB_GID_MIN 100000
SUB_GID_MAX 165536
SUB_GID_COUNT 65536
`
	files["etc/passwd"] += `
alice:x:1000:1000::/home/alice:/bin/bash
bob:x:1001:1001::/home/bob:/bin/bash
`
	files["etc/group"] += `
alice:x:1000:
bob:x:1001:
`
	files["etc/shadow"] += `alice:$6$stub$old:::::::
bob:$6$stub$old:::::::
`
	files["etc/subuid"] += "alice:100000:65536\n"
	files["etc/subgid"] += "alice:100000:65536\n"

	db := openTest(t, files, false)
	defer db.Discard()

	// one block window, already taken; bob cannot be served
	err := db.fixate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPrecondition)
	assert.Contains(t, err.Error(), "subordinate user id space exhausted")
}
