package pgs

import (
	"fmt"
	"os"
	"sort"

	"github.com/strictpgs/strictpgs/internal/hostfs"
	"github.com/strictpgs/strictpgs/pkg/hasher"
)

// Options configures a session. The zero value opens the live system
// databases read-write with the default hasher.
type Options struct {
	// DirPrefix is prepended to every database path. Defaults to "/";
	// point it at a staging tree to operate on a chroot or test image.
	DirPrefix string

	// ReadOnly skips locking and suppresses the close-time repair and
	// rewrite.
	ReadOnly bool

	// Source names the agent in the managed-by marker line written to
	// passwd and group. Defaults to "strictpgs".
	Source string

	// Hasher produces shadow hashes for AddNormalUser and SetPassword.
	// Defaults to sha512-crypt.
	Hasher hasher.Hasher
}

// DB is one session over the account databases. A mutating session
// holds the password lock from Open until Close and works on a private
// in-memory copy; nothing reaches the disk before Close.
type DB struct {
	prefix   string
	readOnly bool
	source   string
	hasher   hasher.Hasher
	rc       RangeConfig
	lock     *pwdLock
	valid    bool

	users  map[string]*PasswdEntry
	groups map[string]*GroupEntry
	shadow map[string]*ShadowEntry
	subUID map[string]*SubIDEntry
	subGID map[string]*SubIDEntry

	// Raw gshadow content, kept only to prove emptiness.
	gshadowRaw []byte

	// Category lists in file order. Together the user lists cover every
	// passwd record exactly once; same for the group lists and group.
	systemUsers     []string
	normalUsers     []string
	softwareUsers   []string
	deprecatedUsers []string

	systemGroups     []string
	perUserGroups    []string
	deviceGroups     []string
	standAloneGroups []string
	softwareGroups   []string
	deprecatedGroups []string

	// shadow, subuid and subgid entry names in file order.
	shadowOrder []string
	subUIDOrder []string
	subGIDOrder []string

	// Derived reverse index: user name -> names of groups that carry it
	// in their member list. The member lists are the source of truth;
	// every mutation updates both together.
	secondary map[string][]string
}

// Open loads, classifies and structurally verifies the databases under
// opts.DirPrefix. A mutating session also takes the password lock; on
// any failure the lock is released before returning.
func Open(opts Options) (*DB, error) {
	prefix := opts.DirPrefix
	if prefix == "" {
		prefix = "/"
	}
	source := opts.Source
	if source == "" {
		source = "strictpgs"
	}
	h := opts.Hasher
	if h == nil {
		h = hasher.NewSHA512Crypt()
	}

	db := &DB{
		prefix:    prefix,
		readOnly:  opts.ReadOnly,
		source:    source,
		hasher:    h,
		users:     map[string]*PasswdEntry{},
		groups:    map[string]*GroupEntry{},
		shadow:    map[string]*ShadowEntry{},
		subUID:    map[string]*SubIDEntry{},
		subGID:    map[string]*SubIDEntry{},
		secondary: map[string][]string{},
	}

	rc, err := loadRangeConfig(db.path(loginDefsRel))
	if err != nil {
		return nil, err
	}
	db.rc = rc

	if !db.readOnly {
		lock, err := acquirePwdLock(db.path(lockRel), lockTimeout)
		if err != nil {
			return nil, err
		}
		db.lock = lock
	}

	if err := db.load(); err != nil {
		db.unlock()
		return nil, err
	}
	if err := db.verifyStage1(); err != nil {
		db.unlock()
		return nil, err
	}

	db.valid = true
	return db, nil
}

func (db *DB) load() error {
	buf, err := hostfs.ReadFile(db.path(passwdRel))
	if err != nil {
		return fmt.Errorf("read passwd: %w", err)
	}
	recs, err := recordLines(buf, 7, "passwd")
	if err != nil {
		return err
	}
	for _, t := range recs {
		e, err := parsePasswdEntry(t)
		if err != nil {
			return err
		}
		if _, dup := db.users[e.Name]; dup {
			return formatErr("duplicate user %s in passwd file", e.Name)
		}
		db.users[e.Name] = e
		db.classifyUser(e)
	}

	buf, err = hostfs.ReadFile(db.path(groupRel))
	if err != nil {
		return fmt.Errorf("read group: %w", err)
	}
	recs, err = recordLines(buf, 4, "group")
	if err != nil {
		return err
	}
	for _, t := range recs {
		e, err := parseGroupEntry(t)
		if err != nil {
			return err
		}
		if _, dup := db.groups[e.Name]; dup {
			return formatErr("duplicate group %s in group file", e.Name)
		}
		db.groups[e.Name] = e
		db.classifyGroup(e)
	}

	buf, err = hostfs.ReadFile(db.path(shadowRel))
	if err != nil {
		return fmt.Errorf("read shadow: %w", err)
	}
	recs, err = recordLines(buf, 9, "shadow")
	if err != nil {
		return err
	}
	for _, t := range recs {
		e, err := parseShadowEntry(t)
		if err != nil {
			return err
		}
		if _, dup := db.shadow[e.Name]; dup {
			return formatErr("duplicate entry %s in shadow file", e.Name)
		}
		db.shadow[e.Name] = e
		db.shadowOrder = append(db.shadowOrder, e.Name)
	}

	// gshadow, subuid and subgid may be absent; absent means empty.
	db.gshadowRaw, err = readIfExists(db.path(gshadowRel))
	if err != nil {
		return fmt.Errorf("read gshadow: %w", err)
	}

	if err := db.loadSubIDs(subUIDRel, "subuid", db.subUID, &db.subUIDOrder); err != nil {
		return err
	}
	return db.loadSubIDs(subGIDRel, "subgid", db.subGID, &db.subGIDOrder)
}

func (db *DB) loadSubIDs(rel, file string, dst map[string]*SubIDEntry, order *[]string) error {
	buf, err := readIfExists(db.path(rel))
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}
	recs, err := recordLines(buf, 3, file)
	if err != nil {
		return err
	}
	for _, t := range recs {
		e, err := parseSubIDEntry(t, file)
		if err != nil {
			return err
		}
		if _, dup := dst[e.Name]; dup {
			return formatErr("duplicate entry %s in %s file", e.Name, file)
		}
		dst[e.Name] = e
		*order = append(*order, e.Name)
	}
	return nil
}

func readIfExists(path string) ([]byte, error) {
	buf, err := hostfs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return buf, nil
}

// Close commits the session. For a mutating session it repairs every
// fixable deviation, re-verifies both stages, rewrites all six files
// (backing each one up first) and releases the lock. The session is
// unusable afterwards whether or not Close succeeded; the lock is
// always released.
func (db *DB) Close() error {
	if !db.valid {
		return ErrClosed
	}
	if db.readOnly {
		db.valid = false
		return nil
	}

	defer func() {
		db.valid = false
		db.unlock()
	}()

	if err := db.fixate(); err != nil {
		return err
	}
	if err := db.verifyStage1(); err != nil {
		return err
	}
	if err := db.verifyStage2(); err != nil {
		return err
	}
	return db.writeAll()
}

// Discard abandons the session: the lock is released and nothing is
// written, leaving the files as Open found them. Discarding a closed
// session does nothing.
func (db *DB) Discard() {
	db.valid = false
	db.unlock()
}

// Verify checks the databases against the policy without changing
// anything: first structural damage, then fixable deviations.
func (db *DB) Verify() error {
	if err := db.VerifyStructure(); err != nil {
		return err
	}
	return db.VerifyPolicy()
}

// VerifyStructure runs only the structural checks. A failure here means
// the databases are damaged beyond automatic repair.
func (db *DB) VerifyStructure() error {
	if !db.valid {
		return ErrClosed
	}
	return db.verifyStage1()
}

// VerifyPolicy runs only the policy checks. A failure here names a
// deviation a mutating session repairs on Close.
func (db *DB) VerifyPolicy() error {
	if !db.valid {
		return ErrClosed
	}
	return db.verifyStage2()
}

func (db *DB) unlock() {
	if db.lock != nil {
		db.lock.release()
		db.lock = nil
	}
}

// Ranges returns the id allocation policy the session was opened with.
func (db *DB) Ranges() RangeConfig {
	return db.rc
}

// SystemUsers returns the system user names in file order.
func (db *DB) SystemUsers() []string {
	return cloneStrings(db.systemUsers)
}

// NormalUsers returns the normal user names in file order.
func (db *DB) NormalUsers() []string {
	return cloneStrings(db.normalUsers)
}

// SoftwareUsers returns the software user names in file order.
func (db *DB) SoftwareUsers() []string {
	return cloneStrings(db.softwareUsers)
}

// DeprecatedUsers returns the deprecated user names in file order.
func (db *DB) DeprecatedUsers() []string {
	return cloneStrings(db.deprecatedUsers)
}

// SystemGroups returns the system group names in file order.
func (db *DB) SystemGroups() []string {
	return cloneStrings(db.systemGroups)
}

// PerUserGroups returns the per-user group names in file order.
func (db *DB) PerUserGroups() []string {
	return cloneStrings(db.perUserGroups)
}

// DeviceGroups returns the device group names in file order.
func (db *DB) DeviceGroups() []string {
	return cloneStrings(db.deviceGroups)
}

// StandAloneGroups returns the stand-alone group names in file order.
func (db *DB) StandAloneGroups() []string {
	return cloneStrings(db.standAloneGroups)
}

// SoftwareGroups returns the software group names in file order.
func (db *DB) SoftwareGroups() []string {
	return cloneStrings(db.softwareGroups)
}

// DeprecatedGroups returns the deprecated group names in file order.
func (db *DB) DeprecatedGroups() []string {
	return cloneStrings(db.deprecatedGroups)
}

// CheckPassword verifies a candidate password against the stored
// shadow hash of a normal user. A locked or foreign-format hash never
// verifies.
func (db *DB) CheckPassword(name, password string) error {
	if !db.valid {
		return ErrClosed
	}
	if !contains(db.normalUsers, name) {
		return precondErr("%s is not a normal user", name)
	}
	se, ok := db.shadow[name]
	if !ok {
		return precondErr("no shadow entry for user %s", name)
	}
	return hasher.Verify(se.Hash, password)
}

// SecondaryGroups returns the sorted names of the groups that list the
// normal user name as a secondary member.
func (db *DB) SecondaryGroups(name string) ([]string, error) {
	if !db.valid {
		return nil, ErrClosed
	}
	if !contains(db.normalUsers, name) {
		return nil, precondErr("%s is not a normal user", name)
	}
	out := cloneStrings(db.secondary[name])
	sort.Strings(out)
	return out, nil
}

// LookupUser returns a copy of the passwd record for name.
func (db *DB) LookupUser(name string) (PasswdEntry, bool) {
	e, ok := db.users[name]
	if !ok {
		return PasswdEntry{}, false
	}
	return *e, true
}

// LookupGroup returns a copy of the group record for name.
func (db *DB) LookupGroup(name string) (GroupEntry, bool) {
	e, ok := db.groups[name]
	if !ok {
		return GroupEntry{}, false
	}
	out := *e
	out.Members = cloneStrings(e.Members)
	return out, true
}
