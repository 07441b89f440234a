package pgs

import (
	"fmt"
	"os"
	"regexp"

	"github.com/strictpgs/strictpgs/internal/hostfs"
)

// RangeConfig carries the id allocation policy read from login.defs.
type RangeConfig struct {
	UIDMin int
	UIDMax int
	GIDMin int
	GIDMax int

	SubUIDMin   int
	SubUIDMax   int
	SubUIDCount int

	SubGIDMin   int
	SubGIDMax   int
	SubGIDCount int
}

var loginDefsLine = regexp.MustCompile(`(?m)^[ \t]*([A-Z_]+)[ \t]+([0-9]+)[ \t]*$`)

func loadRangeConfig(path string) (RangeConfig, error) {
	buf, err := hostfs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return RangeConfig{}, formatErr("no login.defs under the database prefix")
		}
		return RangeConfig{}, fmt.Errorf("read login.defs: %w", err)
	}

	// First occurrence of a key wins.
	seen := map[string]string{}
	for _, m := range loginDefsLine.FindAllSubmatch(buf, -1) {
		key := string(m[1])
		if _, ok := seen[key]; !ok {
			seen[key] = string(m[2])
		}
	}

	var rc RangeConfig
	keys := []struct {
		name string
		dst  *int
	}{
		{"UID_MIN", &rc.UIDMin},
		{"UID_MAX", &rc.UIDMax},
		{"GID_MIN", &rc.GIDMin},
		{"GID_MAX", &rc.GIDMax},
		{"SUB_UID_MIN", &rc.SubUIDMin},
		{"SUB_UID_MAX", &rc.SubUIDMax},
		{"SUB_UID_COUNT", &rc.SubUIDCount},
		{"SUB_GID_MIN", &rc.SubGIDMin},
		{"SUB_GID_MAX", &rc.SubGIDMax},
		{"SUB_GID_COUNT", &rc.SubGIDCount},
	}
	for _, k := range keys {
		raw, ok := seen[k.name]
		if !ok {
			return RangeConfig{}, formatErr("no %s in login.defs", k.name)
		}
		v, err := atoi(raw, "login.defs "+k.name)
		if err != nil {
			return RangeConfig{}, err
		}
		*k.dst = v
	}

	if rc.UIDMax <= rc.UIDMin {
		return RangeConfig{}, formatErr("UID_MAX is not greater than UID_MIN in login.defs")
	}
	if rc.GIDMax <= rc.GIDMin {
		return RangeConfig{}, formatErr("GID_MAX is not greater than GID_MIN in login.defs")
	}
	if rc.SubUIDCount <= 0 || rc.SubUIDMax <= rc.SubUIDMin {
		return RangeConfig{}, formatErr("SUB_UID_MAX is not greater than SUB_UID_MIN in login.defs")
	}
	if (rc.SubUIDMax-rc.SubUIDMin)%rc.SubUIDCount != 0 {
		return RangeConfig{}, formatErr("SUB_UID_MIN, SUB_UID_MAX and SUB_UID_COUNT are not aligned in login.defs")
	}
	if rc.SubGIDCount <= 0 || rc.SubGIDMax <= rc.SubGIDMin {
		return RangeConfig{}, formatErr("SUB_GID_MAX is not greater than SUB_GID_MIN in login.defs")
	}
	if (rc.SubGIDMax-rc.SubGIDMin)%rc.SubGIDCount != 0 {
		return RangeConfig{}, formatErr("SUB_GID_MIN, SUB_GID_MAX and SUB_GID_COUNT are not aligned in login.defs")
	}
	return rc, nil
}
