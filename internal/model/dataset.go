package model

// Dataset is the crawler's terminal artifact: assessments ordered by
// discovery and unique by URL.
type Dataset struct {
	// Records holds the assessments in output order.
	Records []Assessment `json:"records"`
}

// NewDataset builds a Dataset from records, dropping every record whose URL
// was already seen. The first occurrence wins.
func NewDataset(records []Assessment) *Dataset {
	return &Dataset{Records: Deduplicate(records)}
}

// Deduplicate returns the records with later duplicates (by URL) removed.
// Order of the surviving records is preserved.
func Deduplicate(records []Assessment) []Assessment {
	seen := make(map[string]struct{}, len(records))
	unique := make([]Assessment, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r.URL]; ok {
			continue
		}
		seen[r.URL] = struct{}{}
		unique = append(unique, r)
	}
	return unique
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// Rows returns every record as string cells in Columns() order.
func (d *Dataset) Rows() [][]string {
	if d == nil {
		return nil
	}
	rows := make([][]string, 0, len(d.Records))
	for _, r := range d.Records {
		rows = append(rows, r.Row())
	}
	return rows
}

// ByURL indexes the records by URL.
func (d *Dataset) ByURL() map[string]Assessment {
	index := make(map[string]Assessment, d.Len())
	if d == nil {
		return index
	}
	for _, r := range d.Records {
		index[r.URL] = r
	}
	return index
}

// TestTypeCounts returns how many records carry each test type value.
// Records without a test type are counted under the empty string.
func (d *Dataset) TestTypeCounts() map[string]int {
	counts := make(map[string]int)
	if d == nil {
		return counts
	}
	for _, r := range d.Records {
		counts[r.TestType]++
	}
	return counts
}
