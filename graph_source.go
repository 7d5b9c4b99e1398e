package magellan

import (
	"context"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"sort"
	"strings"
)

// GraphInterface is the query surface required of a graph database - typically
// satisfied by a thin wrapper around a neo4j driver (e.g. one calling
// neo4j.ExecuteQuery with an eager result transformer)
type GraphInterface interface {
	ExecuteQuery(ctx context.Context, cypher string, params map[string]any) (*neo4j.EagerResult, error)
}

// RecordRowModel converts a single record of a graph query result into a RowModel
//
// temporal values are normalized to time.Time where they carry a wall clock (see
// also MapRecords and QueryEntities)
func RecordRowModel(record *neo4j.Record) RowModel {
	values := make([]any, len(record.Values))
	for i, v := range record.Values {
		values[i] = normalizeGraphValue(v)
	}
	return RowModel{
		Columns: record.Keys,
		Values:  values,
	}
}

// RecordRowModels converts the records of a graph query result into RowModels
func RecordRowModels(records []*neo4j.Record) []RowModel {
	result := make([]RowModel, len(records))
	for i, record := range records {
		result[i] = RecordRowModel(record)
	}
	return result
}

// NodeRowModel converts a graph node into a RowModel - the node properties plus
// "id" and "elementId" columns for the node identity
func NodeRowModel(node neo4j.Node) RowModel {
	names := make([]string, 0, len(node.Props))
	for name := range node.Props {
		names = append(names, name)
	}
	sort.Strings(names)
	columns := make([]string, 0, len(names)+2)
	values := make([]any, 0, len(names)+2)
	columns = append(columns, "id", "elementId")
	values = append(values, node.Id, node.ElementId)
	for _, name := range names {
		columns = append(columns, name)
		values = append(values, normalizeGraphValue(node.Props[name]))
	}
	return RowModel{
		Columns: columns,
		Values:  values,
	}
}

// NodeRowModels converts graph nodes into RowModels
func NodeRowModels(nodes []neo4j.Node) []RowModel {
	result := make([]RowModel, len(nodes))
	for i, node := range nodes {
		result[i] = NodeRowModel(node)
	}
	return result
}

// MapRecords maps each record of a graph query result onto a new instance of T
//
// options can be any of EntityPostProcessor[T], ErrorTranslator or Limiter
func MapRecords[T any](ctx context.Context, m *EntityMapper, records []*neo4j.Record, options ...any) ([]T, error) {
	return MapRows[T](ctx, m, RecordRowModels(records), options...)
}

// MapNodes maps each graph node onto a new instance of T
//
// options can be any of EntityPostProcessor[T], ErrorTranslator or Limiter
func MapNodes[T any](ctx context.Context, m *EntityMapper, nodes []neo4j.Node, options ...any) ([]T, error) {
	return MapRows[T](ctx, m, NodeRowModels(nodes), options...)
}

// QueryEntities runs the given cypher query and maps each record of the result
// onto a new instance of T
//
// options can be any of EntityPostProcessor[T], ErrorTranslator or Limiter
func QueryEntities[T any](ctx context.Context, m *EntityMapper, gi GraphInterface, cypher string, params map[string]any, options ...any) ([]T, error) {
	postProcessors, limiter, errTranslator, err := readOptions[T](m, options)
	if err != nil {
		return nil, err
	}
	result, err := gi.ExecuteQuery(ctx, cypher, params)
	if err != nil {
		return nil, translateError(err, errTranslator)
	}
	return mapRowModels[T](ctx, m, RecordRowModels(result.Records), postProcessors, limiter, errTranslator)
}

// MapNode maps a graph node onto a new instance of the registered type whose
// label matches one of the node labels
//
// the result is a pointer to the mapped instance - use this when mapping nodes
// of mixed labels (for a homogeneous batch, prefer MapNodes)
func (m *EntityMapper) MapNode(node neo4j.Node) (any, error) {
	var ci *ClassInfo
	for _, label := range node.Labels {
		if ci = m.meta.ClassInfoForLabel(label); ci != nil {
			break
		}
	}
	if ci == nil {
		return nil, &MappingError{
			Detail: "no registered type for node labels [" + strings.Join(node.Labels, ",") + "]",
		}
	}
	row := NodeRowModel(node)
	properties, err := row.PropertyMap()
	if err != nil {
		return nil, err
	}
	return m.mapInstance(ci.structType, properties)
}

// normalizeGraphValue converts driver temporal values that carry a wall clock to
// time.Time (dates and local datetimes) - values of other types pass through
func normalizeGraphValue(value any) any {
	switch v := value.(type) {
	case neo4j.Date:
		return v.Time()
	case neo4j.LocalDateTime:
		return v.Time()
	case []any:
		result := make([]any, len(v))
		for i, e := range v {
			result[i] = normalizeGraphValue(e)
		}
		return result
	}
	return value
}
