package auth

import "strconv"

// Level is the clearance a route requires.
type Level int

const (
	// LevelMember admits any member with a resolvable clearance of zero or more.
	LevelMember Level = 0
	// LevelAdmin admits the administrative mutations: projects, pools, events
	// and kanban columns.
	LevelAdmin Level = 5
)

func (l Level) String() string {
	switch l {
	case LevelMember:
		return "member"
	case LevelAdmin:
		return "admin"
	}
	return "level " + strconv.Itoa(int(l))
}

// Admits reports whether clearance satisfies l.
func (l Level) Admits(clearance int) bool {
	return clearance >= int(l)
}
