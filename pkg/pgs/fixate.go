package pgs

import "sort"

// fixate restores every policy invariant that has a deterministic
// repair: canonical ordering, empty comments, software user hygiene,
// root membership, member list normalization, and the derived shadow
// and subordinate id tables. Structural damage is reported, never
// repaired. Running fixate twice changes nothing the second time.
func (db *DB) fixate() error {
	// pin system user order
	if !sameNameSet(db.systemUsers, stdSystemUsers) {
		return formatErr("invalid system user list")
	}
	db.systemUsers = cloneStrings(stdSystemUsers)

	// strip system user comments
	for _, name := range db.systemUsers {
		db.users[name].Gecos = ""
	}

	// sort normal users by uid
	sort.SliceStable(db.normalUsers, func(i, j int) bool {
		return db.users[db.normalUsers[i]].UID < db.users[db.normalUsers[j]].UID
	})

	// strip normal user comments
	for _, name := range db.normalUsers {
		db.users[name].Gecos = ""
	}

	// standardize software user shells
	for _, name := range db.softwareUsers {
		db.users[name].Shell = softwareUserShell
	}

	// software users carry no shadow entry
	for _, name := range db.softwareUsers {
		delete(db.shadow, name)
	}

	// pin system group order
	if !sameNameSet(db.systemGroups, stdSystemGroups) {
		return formatErr("invalid system group list")
	}
	db.systemGroups = cloneStrings(stdSystemGroups)

	// per-user groups follow the normal users
	if !sameNameSet(db.perUserGroups, db.normalUsers) {
		return formatErr("invalid per-user group list")
	}
	db.perUserGroups = cloneStrings(db.normalUsers)

	// sort stand-alone groups by gid
	sort.SliceStable(db.standAloneGroups, func(i, j int) bool {
		return db.groups[db.standAloneGroups[i]].GID < db.groups[db.standAloneGroups[j]].GID
	})

	// root leaves every secondary group
	delete(db.secondary, "root")
	for _, gname := range db.allGroupNames() {
		g := db.groups[gname]
		m := nonEmptyTokens(g.Members)
		if contains(m, "root") {
			g.Members = removeString(m, "root")
		}
	}

	// normalize member lists
	for _, gname := range db.allGroupNames() {
		g := db.groups[gname]
		g.Members = nonEmptyTokens(g.Members)
	}

	// the group hash file is not modeled and always ends up empty
	db.gshadowRaw = nil

	// shadow carries exactly the system and normal users, in order
	for _, name := range append(cloneStrings(db.systemUsers), db.normalUsers...) {
		if _, ok := db.shadow[name]; !ok {
			return formatErr("no shadow entry for user %s", name)
		}
	}
	db.shadowOrder = append(cloneStrings(db.systemUsers), db.normalUsers...)
	keep := map[string]bool{}
	for _, name := range db.shadowOrder {
		keep[name] = true
	}
	for name := range db.shadow {
		if !keep[name] {
			delete(db.shadow, name)
		}
	}

	// subuid carries exactly the normal and software users, in order;
	// missing ranges are allocated above the highest surviving one
	db.subUIDOrder = append(cloneStrings(db.normalUsers), db.softwareUsers...)
	dropStrays(db.subUID, db.subUIDOrder)
	if err := db.fillSubIDs(db.subUID, db.subUIDOrder, db.rc.SubUIDMin, db.rc.SubUIDMax, db.rc.SubUIDCount, "user"); err != nil {
		return err
	}

	// subgid mirrors subuid entry for entry
	db.subGIDOrder = cloneStrings(db.subUIDOrder)
	dropStrays(db.subGID, db.subGIDOrder)
	return db.fillSubIDs(db.subGID, db.subGIDOrder, db.rc.SubGIDMin, db.rc.SubGIDMax, db.rc.SubGIDCount, "group")
}

func (db *DB) fillSubIDs(entries map[string]*SubIDEntry, order []string, min, max, count int, kind string) error {
	m := min
	for _, e := range entries {
		if e.Start+e.Count > m {
			m = e.Start + e.Count
		}
	}
	for _, name := range order {
		if _, ok := entries[name]; ok {
			continue
		}
		if m >= max {
			return precondErr("subordinate %s id space exhausted", kind)
		}
		entries[name] = newSubIDEntry(name, m, count)
		m += count
	}
	return nil
}

func dropStrays(entries map[string]*SubIDEntry, keepList []string) {
	keep := map[string]bool{}
	for _, name := range keepList {
		keep[name] = true
	}
	for name := range entries {
		if !keep[name] {
			delete(entries, name)
		}
	}
}
