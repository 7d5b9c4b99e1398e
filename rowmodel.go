package magellan

// RowModel is a single row of a query result - the ordered column names together
// with the values for those columns
//
// RowModel is the common currency between the row sources (see ScanRowModels,
// QueryRowModels, RecordRowModel and NodeRowModel) and the entity mapping
// functions (see MapRows, FirstEntity and ExactlyOneEntity)
type RowModel struct {
	// Columns is the ordered column names of the row
	Columns []string
	// Values is the column values of the row (in the same order as Columns)
	Values []any
}

// PropertyMap zips the row columns and values into a property map
//
// where the row contains duplicate column names, the last value wins
//
// it is a precondition violation for the columns and values to be of different
// lengths - in which case a MappingError is returned
func (r RowModel) PropertyMap() (map[string]any, error) {
	if len(r.Columns) != len(r.Values) {
		return nil, &MappingError{
			Detail: "row has mismatched columns and values",
		}
	}
	result := make(map[string]any, len(r.Columns))
	for i, name := range r.Columns {
		result[name] = r.Values[i]
	}
	return result, nil
}
