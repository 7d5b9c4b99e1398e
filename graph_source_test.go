package magellan

import (
	"context"
	"errors"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func TestRecordRowModel(t *testing.T) {
	record := &neo4j.Record{
		Keys:   []string{"program", "id"},
		Values: []any{"Apollo", int64(11)},
	}
	row := RecordRowModel(record)
	assert.Equal(t, []string{"program", "id"}, row.Columns)
	assert.Equal(t, []any{"Apollo", int64(11)}, row.Values)
}

func TestRecordRowModel_TemporalValues(t *testing.T) {
	launch := time.Date(1969, 7, 16, 13, 32, 0, 0, time.UTC)
	record := &neo4j.Record{
		Keys: []string{"launched", "recovered", "stages"},
		Values: []any{
			neo4j.Date(launch),
			neo4j.LocalDateTime(launch),
			[]any{neo4j.Date(launch), "S-IVB"},
		},
	}
	row := RecordRowModel(record)

	launched, ok := row.Values[0].(time.Time)
	require.True(t, ok)
	assert.Equal(t, 1969, launched.Year())
	assert.Equal(t, time.July, launched.Month())

	recovered, ok := row.Values[1].(time.Time)
	require.True(t, ok)
	assert.Equal(t, 13, recovered.Hour())

	stages, ok := row.Values[2].([]any)
	require.True(t, ok)
	require.Len(t, stages, 2)
	_, ok = stages[0].(time.Time)
	assert.True(t, ok)
	assert.Equal(t, "S-IVB", stages[1])
}

func TestRecordRowModels(t *testing.T) {
	records := []*neo4j.Record{
		{Keys: []string{"program"}, Values: []any{"Mercury"}},
		{Keys: []string{"program"}, Values: []any{"Apollo"}},
	}
	rows := RecordRowModels(records)
	require.Len(t, rows, 2)
	assert.Equal(t, []any{"Mercury"}, rows[0].Values)
	assert.Equal(t, []any{"Apollo"}, rows[1].Values)
}

func TestNodeRowModel(t *testing.T) {
	node := neo4j.Node{
		Id:        int64(11),
		ElementId: "4:example:11",
		Labels:    []string{"Program"},
		Props: map[string]any{
			"program": "Apollo",
			"active":  true,
		},
	}
	row := NodeRowModel(node)
	// identity columns first, then properties in stable (sorted) order
	assert.Equal(t, []string{"id", "elementId", "active", "program"}, row.Columns)
	assert.Equal(t, []any{int64(11), "4:example:11", true, "Apollo"}, row.Values)
}

func TestNodeRowModels(t *testing.T) {
	nodes := []neo4j.Node{
		{Id: 1, Props: map[string]any{"program": "Mercury"}},
		{Id: 2, Props: map[string]any{"program": "Gemini"}},
	}
	rows := NodeRowModels(nodes)
	require.Len(t, rows, 2)
	assert.Equal(t, []any{int64(1), "", "Mercury"}, rows[0].Values)
	assert.Equal(t, []any{int64(2), "", "Gemini"}, rows[1].Values)
}

func TestMapRecords(t *testing.T) {
	m := MustNewEntityMapper(testMetaData(t))
	records := []*neo4j.Record{
		{Keys: []string{"program", "id"}, Values: []any{"Mercury", int64(1)}},
		{Keys: []string{"program", "id"}, Values: []any{"Apollo", int64(11)}},
	}
	programs, err := MapRecords[Program](ctx, m, records)
	require.NoError(t, err)
	require.Len(t, programs, 2)
	assert.Equal(t, "Mercury", programs[0].Name)
	assert.Equal(t, int64(11), programs[1].ID)
}

func TestMapNodes(t *testing.T) {
	m := MustNewEntityMapper(testMetaData(t))
	nodes := []neo4j.Node{
		{Id: 1, ElementId: "4:example:1", Labels: []string{"Program"}, Props: map[string]any{"program": "Mercury"}},
		{Id: 11, ElementId: "4:example:11", Labels: []string{"Program"}, Props: map[string]any{"program": "Apollo"}},
	}
	// the elementId column resolves to no field and is skipped
	programs, err := MapNodes[Program](ctx, m, nodes)
	require.NoError(t, err)
	require.Len(t, programs, 2)
	assert.Equal(t, int64(1), programs[0].ID)
	assert.Equal(t, "Mercury", programs[0].Name)
	assert.Equal(t, int64(11), programs[1].ID)
	assert.Equal(t, "Apollo", programs[1].Name)
}

type stubGraph struct {
	result *neo4j.EagerResult
	err    error
	cypher string
	params map[string]any
}

var _ GraphInterface = &stubGraph{}

func (s *stubGraph) ExecuteQuery(_ context.Context, cypher string, params map[string]any) (*neo4j.EagerResult, error) {
	s.cypher = cypher
	s.params = params
	return s.result, s.err
}

func TestQueryEntities(t *testing.T) {
	m := MustNewEntityMapper(testMetaData(t))
	gi := &stubGraph{
		result: &neo4j.EagerResult{
			Keys: []string{"program", "id"},
			Records: []*neo4j.Record{
				{Keys: []string{"program", "id"}, Values: []any{"Mercury", int64(1)}},
				{Keys: []string{"program", "id"}, Values: []any{"Apollo", int64(11)}},
			},
		},
	}
	programs, err := QueryEntities[Program](ctx, m, gi,
		`MATCH (p:Space_Program) RETURN p.program AS program, id(p) AS id`,
		map[string]any{"limit": 10})
	require.NoError(t, err)
	require.Len(t, programs, 2)
	assert.Equal(t, "Apollo", programs[1].Name)
	assert.Equal(t, `MATCH (p:Space_Program) RETURN p.program AS program, id(p) AS id`, gi.cypher)
	assert.Equal(t, map[string]any{"limit": 10}, gi.params)
}

func TestQueryEntities_Options(t *testing.T) {
	m := MustNewEntityMapper(testMetaData(t))
	gi := &stubGraph{
		result: &neo4j.EagerResult{
			Records: []*neo4j.Record{
				{Keys: []string{"program"}, Values: []any{"Mercury"}},
				{Keys: []string{"program"}, Values: []any{"Apollo"}},
			},
		},
	}
	programs, err := QueryEntities[Program](ctx, m, gi, `MATCH (p:Space_Program) RETURN p.program AS program`, nil,
		RowLimit(1), &uppercaseNames{})
	require.NoError(t, err)
	require.Len(t, programs, 1)
	assert.Equal(t, "MERCURY", programs[0].Name)

	_, err = QueryEntities[Program](ctx, m, gi, `MATCH (p:Space_Program) RETURN p.program AS program`, nil, "not a valid option")
	require.Error(t, err)
	require.Equal(t, "unknown option type: string", err.Error())
}

func TestQueryEntities_QueryError(t *testing.T) {
	m := MustNewEntityMapper(testMetaData(t))
	gi := &stubGraph{err: errors.New("fooey")}
	_, err := QueryEntities[Program](ctx, m, gi, `MATCH (p) RETURN p`, nil)
	require.Error(t, err)
	require.Equal(t, "fooey", err.Error())

	translated := errors.New("translated")
	_, err = QueryEntities[Program](ctx, m, gi, `MATCH (p) RETURN p`, nil,
		ErrorTranslatorFunc(func(err error) error {
			return translated
		}))
	require.Error(t, err)
	require.Equal(t, translated, err)
}

func TestEntityMapper_MapNode(t *testing.T) {
	md := MustNewMetaData().MustRegister(&Program{}, &labeled{})
	m := MustNewEntityMapper(md)

	result, err := m.MapNode(neo4j.Node{
		Id:     int64(11),
		Labels: []string{"Program"},
		Props:  map[string]any{"program": "Apollo"},
	})
	require.NoError(t, err)
	program, ok := result.(*Program)
	require.True(t, ok)
	assert.Equal(t, int64(11), program.ID)
	assert.Equal(t, "Apollo", program.Name)

	// resolution is by registered label, not type name
	result, err = m.MapNode(neo4j.Node{
		Id:     int64(1),
		Labels: []string{"Space_Program"},
		Props:  map[string]any{"name": "Mercury"},
	})
	require.NoError(t, err)
	lbl, ok := result.(*labeled)
	require.True(t, ok)
	assert.Equal(t, "Mercury", lbl.Name)
}

func TestEntityMapper_MapNode_UnknownLabels(t *testing.T) {
	m := MustNewEntityMapper(testMetaData(t))
	_, err := m.MapNode(neo4j.Node{
		Labels: []string{"Fooey", "Kaput"},
		Props:  map[string]any{},
	})
	require.Error(t, err)
	var me *MappingError
	require.True(t, errors.As(err, &me))
	assert.Contains(t, err.Error(), "no registered type for node labels [Fooey,Kaput]")
}
