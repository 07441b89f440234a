package pgs

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"
)

func readLines(data []byte) ([]string, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}

// recordLines drops empty and comment lines and splits the rest on
// colons, enforcing the exact field count for the file.
func recordLines(data []byte, nfields int, file string) ([][]string, error) {
	lines, err := readLines(data)
	if err != nil {
		return nil, formatErr("invalid format of %s file: %v", file, err)
	}
	var recs [][]string
	for _, line := range lines {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		t := strings.Split(line, ":")
		if len(t) != nfields {
			return nil, formatErr("invalid format of %s file", file)
		}
		recs = append(recs, t)
	}
	return recs, nil
}

func atoi(s, field string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, formatErr("invalid %s: %q", field, s)
	}
	return v, nil
}

func parsePasswdEntry(t []string) (*PasswdEntry, error) {
	uid, err := atoi(t[2], "user id for user "+t[0])
	if err != nil {
		return nil, err
	}
	gid, err := atoi(t[3], "group id for user "+t[0])
	if err != nil {
		return nil, err
	}
	return &PasswdEntry{
		Name:   t[0],
		Passwd: t[1],
		UID:    uid,
		GID:    gid,
		Gecos:  t[4],
		Home:   t[5],
		Shell:  t[6],
	}, nil
}

func parseGroupEntry(t []string) (*GroupEntry, error) {
	gid, err := atoi(t[2], "group id for group "+t[0])
	if err != nil {
		return nil, err
	}
	var members []string
	if t[3] != "" {
		members = strings.Split(t[3], ",")
	}
	return &GroupEntry{
		Name:    t[0],
		Passwd:  t[1],
		GID:     gid,
		Members: members,
	}, nil
}

// parseShadowEntry keeps the name and the hash. The seven aging fields
// are accepted in any state and normalized to empty on the next write.
func parseShadowEntry(t []string) (*ShadowEntry, error) {
	return &ShadowEntry{Name: t[0], Hash: t[1]}, nil
}

func parseSubIDEntry(t []string, file string) (*SubIDEntry, error) {
	start, err := atoi(t[1], file+" start for user "+t[0])
	if err != nil {
		return nil, err
	}
	count, err := atoi(t[2], file+" count for user "+t[0])
	if err != nil {
		return nil, err
	}
	return &SubIDEntry{Name: t[0], Start: start, Count: count}, nil
}

// nonEmptyTokens filters empty strings out of a member list.
func nonEmptyTokens(tokens []string) []string {
	var out []string
	for _, t := range tokens {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
