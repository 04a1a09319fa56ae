package types

// TagSet is a point-in-time set of RFID tag ids observed in the cabinet.
type TagSet map[string]struct{}

func NewTagSet(tags ...string) TagSet {
	s := make(TagSet, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

func (s TagSet) Has(tag string) bool {
	_, ok := s[tag]
	return ok
}

func (s TagSet) Add(tag string) {
	s[tag] = struct{}{}
}

func (s TagSet) Len() int { return len(s) }

func (s TagSet) Clone() TagSet {
	out := make(TagSet, len(s))
	for t := range s {
		out[t] = struct{}{}
	}
	return out
}

// Diff returns the symmetric difference between s and other, split by
// direction: removed holds tags present in s but not other, appeared holds
// tags present in other but not s.
func (s TagSet) Diff(other TagSet) (removed, appeared []string) {
	for t := range s {
		if !other.Has(t) {
			removed = append(removed, t)
		}
	}
	for t := range other {
		if !s.Has(t) {
			appeared = append(appeared, t)
		}
	}
	return removed, appeared
}
