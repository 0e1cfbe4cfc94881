package quiz

import (
	"regexp"
	"strings"
)

// Level is a JLPT proficiency level. N5 is the easiest, N1 the hardest.
type Level string

const (
	LevelNone Level = ""
	LevelN1   Level = "N1"
	LevelN2   Level = "N2"
	LevelN3   Level = "N3"
	LevelN4   Level = "N4"
	LevelN5   Level = "N5"
)

// Levels lists all levels from easiest to hardest.
var Levels = []Level{LevelN5, LevelN4, LevelN3, LevelN2, LevelN1}

// ParseLevel parses a level hint such as "n3" or " N3 ".
// Anything that is not one of N1..N5 yields LevelNone and false.
func ParseLevel(s string) (Level, bool) {
	l := Level(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Levels {
		if l == known {
			return l, true
		}
	}
	return LevelNone, false
}

// Valid reports whether l is one of N1..N5.
func (l Level) Valid() bool {
	_, ok := ParseLevel(string(l))
	return ok
}

func (l Level) String() string {
	if l == LevelNone {
		return "any"
	}
	return string(l)
}

var levelTag = regexp.MustCompile(`^\s*\[\s*([Nn][1-5])\s*\]`)

// LevelOf extracts the leading "[Nx]" tag from a question text.
func LevelOf(question string) Level {
	m := levelTag.FindStringSubmatch(question)
	if m == nil {
		return LevelNone
	}
	l, _ := ParseLevel(m[1])
	return l
}
