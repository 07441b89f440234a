package pgs

import (
	"fmt"
	"regexp"
)

// Allocation windows for dynamically created entries. Normal users take
// the first id free in both the uid and gid spaces so the per-user
// group can share the number; stand-alone groups draw from their own
// base.
const (
	normalUIDBase     = 1000
	standAloneGIDBase = 5000
	dynamicIDCeiling  = 10000
	shadowHashMinLen  = 4
	normalUserShell   = "/bin/bash"
	softwareUserShell = "/sbin/nologin"
)

var validName = regexp.MustCompile(`^[a-z_][a-z0-9_-]{0,31}$`)

func (db *DB) mutable() error {
	if !db.valid {
		return ErrClosed
	}
	if db.readOnly {
		return precondErr("session is read-only")
	}
	return nil
}

// AddNormalUser creates a normal user: a passwd record with the first
// id unused in both id spaces, a per-user group of the same name and
// id, a shadow record carrying the hashed password, and subordinate id
// ranges directly above the highest allocated ones.
func (db *DB) AddNormalUser(name, password string) error {
	if err := db.mutable(); err != nil {
		return err
	}
	if !validName.MatchString(name) {
		return precondErr("invalid user name %q", name)
	}
	// Reserved names classify by name, not by uid, so they can never
	// be normal users.
	if contains(stdSystemUsers, name) || contains(stdDeprecatedUsers, name) {
		return precondErr("user name %s is reserved", name)
	}
	if _, ok := db.users[name]; ok {
		return precondErr("user %s already exists", name)
	}
	if _, ok := db.groups[name]; ok {
		return precondErr("group %s already exists", name)
	}

	uid, ok := db.freeID(normalUIDBase)
	if !ok {
		return fmt.Errorf("%w: no free user id", ErrAddUser)
	}
	subUIDStart := nextSubIDStart(db.subUID, db.rc.SubUIDMin)
	if subUIDStart >= db.rc.SubUIDMax {
		return fmt.Errorf("%w: subordinate user id space exhausted", ErrAddUser)
	}
	subGIDStart := nextSubIDStart(db.subGID, db.rc.SubGIDMin)
	if subGIDStart >= db.rc.SubGIDMax {
		return fmt.Errorf("%w: subordinate group id space exhausted", ErrAddUser)
	}
	hash, err := db.hashPassword(password)
	if err != nil {
		return err
	}

	db.users[name] = newPasswdEntry(name, uid, uid, "", "/home/"+name, normalUserShell)
	db.normalUsers = append(db.normalUsers, name)

	db.groups[name] = newGroupEntry(name, uid, nil)
	db.perUserGroups = append(db.perUserGroups, name)

	db.shadow[name] = newShadowEntry(name, hash)
	db.shadowOrder = append(db.shadowOrder, name)

	db.subUID[name] = newSubIDEntry(name, subUIDStart, db.rc.SubUIDCount)
	db.subUIDOrder = append(db.subUIDOrder, name)

	db.subGID[name] = newSubIDEntry(name, subGIDStart, db.rc.SubGIDCount)
	db.subGIDOrder = append(db.subGIDOrder, name)

	return nil
}

// RemoveNormalUser deletes a normal user together with its per-user
// group, shadow record, subordinate id ranges and every secondary
// membership. Removing a name that is not a normal user does nothing.
func (db *DB) RemoveNormalUser(name string) error {
	if err := db.mutable(); err != nil {
		return err
	}
	if !contains(db.normalUsers, name) {
		return nil
	}

	db.subGIDOrder = removeString(db.subGIDOrder, name)
	delete(db.subGID, name)

	db.subUIDOrder = removeString(db.subUIDOrder, name)
	delete(db.subUID, name)

	db.shadowOrder = removeString(db.shadowOrder, name)
	delete(db.shadow, name)

	delete(db.secondary, name)
	for _, gname := range db.allGroupNames() {
		g := db.groups[gname]
		m := nonEmptyTokens(g.Members)
		if contains(m, name) {
			g.Members = removeString(m, name)
		}
	}

	db.perUserGroups = removeString(db.perUserGroups, name)
	delete(db.groups, name)

	db.normalUsers = removeString(db.normalUsers, name)
	delete(db.users, name)

	return nil
}

// SetPassword replaces the shadow hash of a normal user.
func (db *DB) SetPassword(name, password string) error {
	if err := db.mutable(); err != nil {
		return err
	}
	if !contains(db.normalUsers, name) {
		return precondErr("%s is not a normal user", name)
	}
	se, ok := db.shadow[name]
	if !ok {
		return precondErr("no shadow entry for user %s", name)
	}
	hash, err := db.hashPassword(password)
	if err != nil {
		return err
	}
	se.Hash = hash
	return nil
}

// JoinGroup adds a normal user to the member list of a system, device,
// stand-alone or software group. Joining a group the user is already a
// member of does nothing.
func (db *DB) JoinGroup(name, group string) error {
	if err := db.mutable(); err != nil {
		return err
	}
	if !contains(db.normalUsers, name) {
		return precondErr("%s is not a normal user", name)
	}
	if !contains(db.systemGroups, group) &&
		!contains(db.deviceGroups, group) &&
		!contains(db.standAloneGroups, group) &&
		!contains(db.softwareGroups, group) {
		return precondErr("group %s does not admit secondary members", group)
	}

	if !contains(db.secondary[name], group) {
		db.secondary[name] = append(db.secondary[name], group)
	}
	g := db.groups[group]
	m := nonEmptyTokens(g.Members)
	if !contains(m, name) {
		g.Members = append(m, name)
	}
	return nil
}

// LeaveGroup removes a normal user from a group's member list. Leaving
// a group the user is not a member of does nothing.
func (db *DB) LeaveGroup(name, group string) error {
	if err := db.mutable(); err != nil {
		return err
	}
	if !contains(db.normalUsers, name) {
		return precondErr("%s is not a normal user", name)
	}
	g, ok := db.groups[group]
	if !ok {
		return precondErr("group %s does not exist", group)
	}

	if contains(db.secondary[name], group) {
		db.secondary[name] = removeString(db.secondary[name], group)
		if len(db.secondary[name]) == 0 {
			delete(db.secondary, name)
		}
	}
	m := nonEmptyTokens(g.Members)
	if contains(m, name) {
		g.Members = removeString(m, name)
	}
	return nil
}

// SetShell is declared for symmetry but the policy pins the login
// shell, so it fails unconditionally.
func (db *DB) SetShell(name, shell string) error {
	if err := db.mutable(); err != nil {
		return err
	}
	return precondErr("the login shell is fixed by policy")
}

// AddStandAloneGroup creates a stand-alone group with the first free
// group id at or above its base.
func (db *DB) AddStandAloneGroup(name string) error {
	if err := db.mutable(); err != nil {
		return err
	}
	if !validName.MatchString(name) {
		return precondErr("invalid group name %q", name)
	}
	if contains(stdSystemGroups, name) || contains(stdDeviceGroups, name) || contains(stdDeprecatedGroups, name) {
		return precondErr("group name %s is reserved", name)
	}
	if _, ok := db.groups[name]; ok {
		return precondErr("group %s already exists", name)
	}
	if _, ok := db.users[name]; ok {
		return precondErr("user %s already exists", name)
	}

	gid, ok := db.freeID(standAloneGIDBase)
	if !ok {
		return fmt.Errorf("%w: no free group id", ErrAddGroup)
	}

	db.groups[name] = newGroupEntry(name, gid, nil)
	db.standAloneGroups = append(db.standAloneGroups, name)
	return nil
}

// RemoveStandAloneGroup deletes a stand-alone group and purges it from
// every user's secondary memberships. Removing a name that is not a
// stand-alone group does nothing.
func (db *DB) RemoveStandAloneGroup(name string) error {
	if err := db.mutable(); err != nil {
		return err
	}
	if !contains(db.standAloneGroups, name) {
		return nil
	}

	for user, glist := range db.secondary {
		if contains(glist, name) {
			db.secondary[user] = removeString(glist, name)
			if len(db.secondary[user]) == 0 {
				delete(db.secondary, user)
			}
		}
	}

	db.standAloneGroups = removeString(db.standAloneGroups, name)
	delete(db.groups, name)
	return nil
}

func (db *DB) hashPassword(password string) (string, error) {
	hash, err := db.hasher.Hash(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	if len(hash) <= shadowHashMinLen {
		return "", fmt.Errorf("hash password: hasher produced a trivial hash")
	}
	return hash, nil
}

// freeID returns the smallest id >= base below the ceiling that is not
// in use as a uid or a gid. Allocated ids never collide across the two
// id spaces.
func (db *DB) freeID(base int) (int, bool) {
	used := map[int]bool{}
	for _, g := range db.groups {
		used[g.GID] = true
	}
	for _, u := range db.users {
		used[u.UID] = true
	}
	for id := base; id < dynamicIDCeiling; id++ {
		if !used[id] {
			return id, true
		}
	}
	return 0, false
}

// nextSubIDStart returns the first subordinate id above every allocated
// range, or min when that is higher.
func nextSubIDStart(entries map[string]*SubIDEntry, min int) int {
	m := min
	for _, e := range entries {
		if e.Start+e.Count > m {
			m = e.Start + e.Count
		}
	}
	return m
}
