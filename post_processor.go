package magellan

import (
	"context"
)

// EntityPostProcessor is an interface that can be passed as an option to any of
// the row reading functions - MapRows, FirstEntity, ExactlyOneEntity, MapRecords,
// MapNodes, QueryEntities, MapSQLRows or QuerySQLEntities
//
// Any EntityPostProcessor(s) passed are executed, sequentially, with each mapped entity
type EntityPostProcessor[T any] interface {
	// PostProcess executes the EntityPostProcessor
	PostProcess(ctx context.Context, entity *T) error
}
