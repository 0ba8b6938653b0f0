package engine

// Region is a half-open byte range [Start, End) within a record.
type Region struct {
	Start int
	End   int
}

// Overlaps checks if two regions share at least one byte.
func (r Region) Overlaps(other Region) bool {
	return r.Start < other.End && other.Start < r.End
}

// Size returns the size of the region in bytes.
func (r Region) Size() int {
	return r.End - r.Start
}

// write is a region written by a rule within the current record.
type write struct {
	rule   string
	region Region
}

// lastOverlap returns the most recent write by a different rule that overlaps
// region, or "" when there is none.
func lastOverlap(writes []write, rule string, region Region) string {
	for i := len(writes) - 1; i >= 0; i-- {
		if writes[i].rule != rule && writes[i].region.Overlaps(region) {
			return writes[i].rule
		}
	}
	return ""
}
