package pgs

// PasswdEntry is one record of the passwd file.
type PasswdEntry struct {
	Name   string
	Passwd string // placeholder only; real hashes live in shadow
	UID    int
	GID    int
	Gecos  string
	Home   string
	Shell  string
}

func newPasswdEntry(name string, uid, gid int, gecos, home, shell string) *PasswdEntry {
	return &PasswdEntry{
		Name:   name,
		Passwd: "x",
		UID:    uid,
		GID:    gid,
		Gecos:  gecos,
		Home:   home,
		Shell:  shell,
	}
}

// GroupEntry is one record of the group file.
type GroupEntry struct {
	Name    string
	Passwd  string
	GID     int
	Members []string
}

func newGroupEntry(name string, gid int, members []string) *GroupEntry {
	return &GroupEntry{
		Name:    name,
		Passwd:  "x",
		GID:     gid,
		Members: members,
	}
}

// ShadowEntry is one record of the shadow file. The seven aging fields
// behind the hash are pinned empty under this policy, so only the name
// and the hash are kept.
type ShadowEntry struct {
	Name string
	Hash string
}

func newShadowEntry(name, hash string) *ShadowEntry {
	return &ShadowEntry{Name: name, Hash: hash}
}

// SubIDEntry is one record of the subuid or subgid file: a contiguous
// block of Count subordinate ids owned by Name, starting at Start.
type SubIDEntry struct {
	Name  string
	Start int
	Count int
}

func newSubIDEntry(name string, start, count int) *SubIDEntry {
	return &SubIDEntry{Name: name, Start: start, Count: count}
}
