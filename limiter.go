package magellan

// Limiter is an interface that can be passed as an option to MapRows, MapRecords
// or QueryEntities
//
// and is used to limit the number of rows mapped
type Limiter interface {
	// LimitReached should return true if the rowCount arg exceeds the maximum
	LimitReached(rowCount int) bool
}

// RowLimit is a Limiter that limits the number of rows mapped to a fixed maximum
type RowLimit int

var _ Limiter = RowLimit(0)

func (r RowLimit) LimitReached(rowCount int) bool {
	return rowCount > int(r)
}

type nullLimiter struct{}

var defaultLimiter Limiter = &nullLimiter{}

func (n *nullLimiter) LimitReached(rowCount int) bool {
	return false
}
