package pgs

import "sort"

// verifyStage1 checks the structural invariants. A database failing
// stage 1 is damaged beyond automatic repair: the system entry sets are
// wrong, a normal user lost its pairings, or an id sits outside its
// window.
func (db *DB) verifyStage1() error {
	// system users
	if !sameNameSet(db.systemUsers, stdSystemUsers) {
		return formatErr("invalid system user list")
	}
	for _, name := range db.systemUsers {
		if _, ok := db.shadow[name]; !ok {
			return formatErr("no shadow entry for system user %s", name)
		}
	}

	// normal users and their pairings
	for _, name := range db.normalUsers {
		u := db.users[name]
		if !(db.rc.UIDMin <= u.UID && u.UID < db.rc.UIDMax) {
			return formatErr("user id out of range for normal user %s", name)
		}
		g, ok := db.groups[name]
		if !ok {
			return formatErr("no per-user group for normal user %s", name)
		}
		if u.UID != g.GID {
			return formatErr("user id and group id not equal for normal user %s", name)
		}
		se, ok := db.shadow[name]
		if !ok {
			return formatErr("no shadow entry for normal user %s", name)
		}
		if len(se.Hash) <= shadowHashMinLen {
			return formatErr("no password for normal user %s", name)
		}
	}

	// system groups
	if !sameNameSet(db.systemGroups, stdSystemGroups) {
		return formatErr("invalid system group list")
	}

	// per-user groups pair off with normal users
	if !sameNameSet(db.perUserGroups, db.normalUsers) {
		return formatErr("invalid per-user group list")
	}

	// stand-alone groups
	for _, name := range db.standAloneGroups {
		g := db.groups[name]
		if !(db.rc.GIDMin <= g.GID && g.GID < db.rc.GIDMax) {
			return formatErr("group id out of range for stand-alone group %s", name)
		}
	}

	return nil
}

// verifyStage2 checks the policy invariants a fixate pass knows how to
// restore: canonical ordering, empty gecos fields, software user
// hygiene, membership rules and the shape of the auxiliary files.
func (db *DB) verifyStage2() error {
	// system users: pinned order, no comments
	if !equalStrings(db.systemUsers, stdSystemUsers) {
		return formatErr("invalid system user order")
	}
	for _, name := range db.systemUsers {
		if db.users[name].Gecos != "" {
			return formatErr("no comment is allowed for system user %s", name)
		}
	}

	// normal users: ascending uid, no comments
	if !sort.SliceIsSorted(db.normalUsers, func(i, j int) bool {
		return db.users[db.normalUsers[i]].UID < db.users[db.normalUsers[j]].UID
	}) {
		return formatErr("invalid normal user order")
	}
	for _, name := range db.normalUsers {
		if db.users[name].Gecos != "" {
			return formatErr("no comment is allowed for normal user %s", name)
		}
	}

	// software users: below the uid window, nologin shell, no shadow
	for _, name := range db.softwareUsers {
		u := db.users[name]
		if u.UID >= db.rc.UIDMin {
			return formatErr("user id out of range for software user %s", name)
		}
		if u.Shell != softwareUserShell {
			return formatErr("invalid shell for software user %s", name)
		}
		if _, ok := db.shadow[name]; ok {
			return formatErr("should not have shadow entry for software user %s", name)
		}
	}

	// system groups: pinned order
	if !equalStrings(db.systemGroups, stdSystemGroups) {
		return formatErr("invalid system group order")
	}

	// stand-alone groups: ascending gid
	if !sort.SliceIsSorted(db.standAloneGroups, func(i, j int) bool {
		return db.groups[db.standAloneGroups[i]].GID < db.groups[db.standAloneGroups[j]].GID
	}) {
		return formatErr("invalid stand-alone group order")
	}

	// software groups: below the gid window
	for _, name := range db.softwareGroups {
		if db.groups[name].GID >= db.rc.GIDMin {
			return formatErr("group id out of range for software group %s", name)
		}
	}

	// root never holds secondary memberships
	if len(db.secondary["root"]) > 0 {
		return formatErr("user root should not have any secondary group")
	}

	// no live user is a member of a deprecated group
	for _, name := range db.liveUserNames() {
		for _, gname := range db.secondary[name] {
			if contains(db.deprecatedGroups, gname) {
				return formatErr("user %s is a member of deprecated group %s", name, gname)
			}
		}
	}

	// member fields carry no empty tokens
	for _, gname := range db.allGroupNames() {
		if len(nonEmptyTokens(db.groups[gname].Members)) != len(db.groups[gname].Members) {
			return formatErr("member field of group %s has flaws", gname)
		}
	}

	// shadow holds system users then normal users, nothing else
	want := append(cloneStrings(db.systemUsers), db.normalUsers...)
	if len(db.shadowOrder) < len(want) || !equalStrings(db.shadowOrder[:len(want)], want) {
		return formatErr("invalid shadow file entry order")
	}
	if len(db.shadowOrder) != len(want) {
		return formatErr("redundant shadow file entries")
	}

	// gshadow stays empty
	if len(db.gshadowRaw) > 0 {
		return formatErr("gshadow file should be empty")
	}

	// subuid holds normal users then software users, nothing else
	want = append(cloneStrings(db.normalUsers), db.softwareUsers...)
	if len(db.subUIDOrder) < len(want) || !equalStrings(db.subUIDOrder[:len(want)], want) {
		return formatErr("invalid subuid file entry order")
	}
	if len(db.subUIDOrder) != len(want) {
		return formatErr("redundant subuid file entries")
	}

	// subuid ranges sit in the window, aligned, with the pinned size
	for _, name := range db.subUIDOrder {
		e := db.subUID[name]
		if !(db.rc.SubUIDMin <= e.Start && e.Start < db.rc.SubUIDMax) {
			return formatErr("subordinate user id out of range for user %s", name)
		}
		if (e.Start-db.rc.SubUIDMin)%db.rc.SubUIDCount != 0 {
			return formatErr("subordinate user id is not aligned for user %s", name)
		}
		if e.Count != db.rc.SubUIDCount {
			return formatErr("subordinate user id count differs from login.defs for user %s", name)
		}
	}

	// subgid mirrors subuid entry for entry
	if !equalStrings(db.subUIDOrder, db.subGIDOrder) {
		return formatErr("invalid subgid file entries")
	}
	for _, name := range db.subGIDOrder {
		e := db.subGID[name]
		if !(db.rc.SubGIDMin <= e.Start && e.Start < db.rc.SubGIDMax) {
			return formatErr("subordinate group id out of range for user %s", name)
		}
		if (e.Start-db.rc.SubGIDMin)%db.rc.SubGIDCount != 0 {
			return formatErr("subordinate group id is not aligned for user %s", name)
		}
		if e.Count != db.rc.SubGIDCount {
			return formatErr("subordinate group id count differs from login.defs for user %s", name)
		}
	}

	return nil
}

// liveUserNames returns the users subject to membership policy, in a
// stable order. Deprecated users and member tokens that name no known
// user are exempt.
func (db *DB) liveUserNames() []string {
	var names []string
	names = append(names, db.systemUsers...)
	names = append(names, db.normalUsers...)
	names = append(names, db.softwareUsers...)
	return names
}
