package counter

// Section names one counter of a Store. The value doubles as the report file
// basename.
type Section string

const (
	Colors        Section = "colors"
	ColorKeywords Section = "color_keywords"
	Dimensions    Section = "dimensions"
	Directives    Section = "directives"
	Elements      Section = "elements"
	Functions     Section = "functions"
	Keywords      Section = "keywords"
	Properties    Section = "properties"
	Ratios        Section = "ratios"
	Variables     Section = "variables"
	Syntax        Section = "syntax"
)

// Sections lists every section in report order.
var Sections = []Section{
	Colors,
	ColorKeywords,
	Dimensions,
	Directives,
	Elements,
	Functions,
	Keywords,
	Properties,
	Ratios,
	Variables,
	Syntax,
}

// Store is the fixed set of counters for one scan scope. A Store is owned by
// a single goroutine; it is not safe for concurrent mutation.
type Store struct {
	counters map[Section]*Counter
}

func NewStore() *Store {
	s := &Store{counters: make(map[Section]*Counter, len(Sections))}
	for _, section := range Sections {
		s.counters[section] = NewCounter()
	}
	return s
}

// Counter returns the counter for section. Unknown sections yield nil.
func (s *Store) Counter(section Section) *Counter {
	return s.counters[section]
}

// Incr adds one to key in section.
func (s *Store) Incr(section Section, key string) {
	s.counters[section].Incr(key)
}

// Get returns the count of key in section.
func (s *Store) Get(section Section, key string) int {
	return s.counters[section].Get(key)
}

// Empty reports whether every section is empty.
func (s *Store) Empty() bool {
	for _, c := range s.counters {
		if c.Len() > 0 {
			return false
		}
	}
	return true
}

func (s *Store) Clone() *Store {
	out := &Store{counters: make(map[Section]*Counter, len(s.counters))}
	for section, c := range s.counters {
		out.counters[section] = c.Clone()
	}
	return out
}

// Equal compares every section count for count.
func (s *Store) Equal(other *Store) bool {
	for _, section := range Sections {
		if !s.counters[section].Equal(other.counters[section]) {
			return false
		}
	}
	return true
}

// Merge adds every count of from into into. Counts merge commutatively and
// associatively, so partial stores may be merged in any order.
func Merge(into, from *Store) {
	for _, section := range Sections {
		dst := into.counters[section]
		from.counters[section].Each(func(key string, count int) {
			dst.Add(key, count)
		})
	}
}
