package cache

import "github.com/abhisek/sensei/internal/quiz"

// Stats summarizes the store contents.
type Stats struct {
	Lines   int
	Valid   int
	Invalid int
	ByLevel map[quiz.Level]int
}

// Stats scans the whole store and tallies records per JLPT level. Records
// without a level tag are counted under quiz.LevelNone.
func (s *Store) Stats() (Stats, error) {
	entries, err := s.List(0, 0)
	if err != nil {
		return Stats{}, err
	}

	st := Stats{Lines: len(entries), ByLevel: make(map[quiz.Level]int)}
	for _, e := range entries {
		if e.Err != nil {
			st.Invalid++
			continue
		}
		st.Valid++
		st.ByLevel[quiz.LevelOf(e.Record.Question)]++
	}
	return st, nil
}
