package combine

// Merge concatenates tables in order under the union of their columns,
// ordered by first appearance. Rows lacking a column get "" for it.
func Merge(tables []*Table) *Table {
	merged := &Table{}
	known := make(map[string]bool)
	rowCount := 0
	for _, t := range tables {
		for _, column := range t.Columns {
			if !known[column] {
				known[column] = true
				merged.Columns = append(merged.Columns, column)
			}
		}
		rowCount += len(t.Rows)
	}

	merged.Rows = make([]Row, 0, rowCount)
	for _, t := range tables {
		for _, row := range t.Rows {
			out := make(Row, len(merged.Columns))
			for _, column := range merged.Columns {
				out[column] = row[column]
			}
			merged.Rows = append(merged.Rows, out)
		}
	}
	return merged
}
