package rank

import "fmt"

// Rank is a named tier covering a contiguous range of levels.
type Rank struct {
	Name     string `yaml:"name" json:"name"`
	MinLevel int    `yaml:"min_level" json:"minLevel"`
	MaxLevel *int   `yaml:"max_level,omitempty" json:"maxLevel,omitempty"` // nil = no upper bound
}

// Bounded reports whether the rank has an upper level bound.
func (r Rank) Bounded() bool {
	return r.MaxLevel != nil
}

// Contains reports whether level falls inside the rank's range.
func (r Rank) Contains(level int) bool {
	if level < r.MinLevel {
		return false
	}
	return r.MaxLevel == nil || level <= *r.MaxLevel
}

// Span returns the number of levels in a bounded rank, or 0 when unbounded.
func (r Rank) Span() int {
	if r.MaxLevel == nil {
		return 0
	}
	return *r.MaxLevel - r.MinLevel + 1
}

func (r Rank) String() string {
	if r.MaxLevel == nil {
		return fmt.Sprintf("%s (%d+)", r.Name, r.MinLevel)
	}
	return fmt.Sprintf("%s (%d-%d)", r.Name, r.MinLevel, *r.MaxLevel)
}

// Table is an ordered list of ranks, ascending by MinLevel.
type Table []Rank

func upTo(n int) *int { return &n }

// DefaultTable returns the Zone01 developer ranks.
func DefaultTable() Table {
	return Table{
		{Name: "Aspiring Developer", MinLevel: 0, MaxLevel: upTo(9)},
		{Name: "Beginner Developer", MinLevel: 10, MaxLevel: upTo(19)},
		{Name: "Apprentice Developer", MinLevel: 20, MaxLevel: upTo(29)},
		{Name: "Assistant Developer", MinLevel: 30, MaxLevel: upTo(39)},
		{Name: "Basic Developer", MinLevel: 40, MaxLevel: upTo(49)},
		{Name: "Junior Developer", MinLevel: 50, MaxLevel: upTo(54)},
		{Name: "Confirmed Developer", MinLevel: 55, MaxLevel: upTo(59)},
		{Name: "Full-Stack Developer", MinLevel: 60},
	}
}

// Lookup returns the first rank whose range contains level. When no range
// matches it returns the last rank and false.
func (t Table) Lookup(level int) (Rank, bool) {
	for _, r := range t {
		if r.Contains(level) {
			return r, true
		}
	}
	if len(t) == 0 {
		return Rank{}, false
	}
	return t[len(t)-1], false
}

// ForLevel returns the rank for level, defaulting to the highest rank.
func (t Table) ForLevel(level int) Rank {
	r, _ := t.Lookup(level)
	return r
}

// Next returns the rank after current in table order. It returns false when
// current is the last rank (or not in the table).
func (t Table) Next(current Rank) (Rank, bool) {
	for i, r := range t {
		if r.Name == current.Name && i < len(t)-1 {
			return t[i+1], true
		}
	}
	return Rank{}, false
}

// Progress describes how far a level is through its rank.
type Progress struct {
	Current      Rank
	Next         *Rank // nil at max rank
	Level        int
	LevelInRank  int     // numerator shown in the progress label
	LevelsInRank int     // denominator shown in the progress label
	Percent      float64 // 0..100
}

// MaxRank reports whether there is no rank above the current one.
func (p Progress) MaxRank() bool {
	return p.Next == nil
}

// Progress computes the rank and progress-to-next-rank for level.
// At max rank the percentage is 100 and the label mirrors level/level.
func (t Table) Progress(level int) Progress {
	cur := t.ForLevel(level)
	p := Progress{Current: cur, Level: level}

	next, ok := t.Next(cur)
	if !ok || !cur.Bounded() {
		p.LevelInRank = level
		p.LevelsInRank = level
		p.Percent = 100
		return p
	}

	p.Next = &next
	p.LevelInRank = level - cur.MinLevel
	p.LevelsInRank = cur.Span()
	p.Percent = clamp(float64(p.LevelInRank)/float64(p.LevelsInRank)*100, 0, 100)
	return p
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
