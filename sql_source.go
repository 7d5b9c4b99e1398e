package magellan

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// UseDecimals is an option that determines whether float/numeric/decimal columns
// are read as decimal.Decimal values
//
// by default, ScanRowModels (and QueryRowModels / MapSQLRows / QuerySQLEntities)
// convert float/numeric/decimal columns to decimal.Decimal
type UseDecimals bool

// ColumnScanner is a func that can be used to read the value of a column
type ColumnScanner func(src any) (value any, err error)

// ColumnScanners is an option that can be passed to ScanRowModels (and
// QueryRowModels / MapSQLRows / QuerySQLEntities) specifying a ColumnScanner
// to use for named columns
type ColumnScanners map[string]ColumnScanner

// BoolColumn is a ColumnScanner that converts a column to a bool value
//
// Particularly useful for MySql which only supports BOOL columns as TINYINT
func BoolColumn(src any) (any, error) {
	if src == nil {
		return false, nil
	}
	return coerceBool(src)
}

// ScanRowModels reads all rows from the given sql rows into RowModels
//
// float/numeric/decimal columns are read as decimal.Decimal (unless the
// UseDecimals(false) option is passed), JSON columns are unmarshalled and
// []byte text columns are read as string
//
// options can be any of UseDecimals or ColumnScanners
func ScanRowModels(rows *sql.Rows, options ...any) ([]RowModel, error) {
	ci, err := newSqlColumnsInfo(rows, options...)
	if err != nil {
		return nil, err
	}
	reader := ci.reader()
	var result []RowModel
	for rows.Next() {
		if err = rows.Scan(reader.scanArgs...); err != nil {
			return nil, err
		}
		result = append(result, reader.rowModel())
	}
	return result, rows.Err()
}

// QueryRowModels runs the given query and reads all rows into RowModels
//
// options can be any of UseDecimals or ColumnScanners
func QueryRowModels(ctx context.Context, sqli SqlInterface, query string, args []any, options ...any) (result []RowModel, err error) {
	rows, err := sqli.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()
	return ScanRowModels(rows, options...)
}

// MapSQLRows reads all rows from the given sql rows and maps each onto a new
// instance of T
//
// the rows remain owned by the caller (and are not closed)
//
// options can be any of UseDecimals, ColumnScanners, EntityPostProcessor[T],
// ErrorTranslator or Limiter
func MapSQLRows[T any](ctx context.Context, m *EntityMapper, rows *sql.Rows, options ...any) ([]T, error) {
	scanOptions, readOpts, err := splitSQLOptions[T](options)
	if err != nil {
		return nil, err
	}
	postProcessors, limiter, errTranslator, err := readOptions[T](m, readOpts)
	if err != nil {
		return nil, err
	}
	models, err := ScanRowModels(rows, scanOptions...)
	if err != nil {
		return nil, translateError(err, errTranslator)
	}
	return mapRowModels[T](ctx, m, models, postProcessors, limiter, errTranslator)
}

// QuerySQLEntities runs the given query and maps each row onto a new instance of T
//
// options can be any of UseDecimals, ColumnScanners, EntityPostProcessor[T],
// ErrorTranslator or Limiter
func QuerySQLEntities[T any](ctx context.Context, m *EntityMapper, sqli SqlInterface, query string, args []any, options ...any) ([]T, error) {
	scanOptions, readOpts, err := splitSQLOptions[T](options)
	if err != nil {
		return nil, err
	}
	postProcessors, limiter, errTranslator, err := readOptions[T](m, readOpts)
	if err != nil {
		return nil, err
	}
	rows, err := QueryRowModels(ctx, sqli, query, args, scanOptions...)
	if err != nil {
		return nil, translateError(err, errTranslator)
	}
	return mapRowModels[T](ctx, m, rows, postProcessors, limiter, errTranslator)
}

// splitSQLOptions separates the row scanning options from the entity reading options
func splitSQLOptions[T any](options []any) (scanOptions []any, readOpts []any, err error) {
	for _, o := range options {
		if o != nil {
			switch o.(type) {
			case UseDecimals, ColumnScanners:
				scanOptions = append(scanOptions, o)
			case EntityPostProcessor[T], Limiter, ErrorTranslator:
				readOpts = append(readOpts, o)
			default:
				return nil, nil, fmt.Errorf("unknown option type: %T", o)
			}
		}
	}
	return scanOptions, readOpts, nil
}

type sqlColumnsInfo struct {
	count       int
	names       []string
	scanTypes   []reflect.Type
	dbTypes     []string
	scanners    ColumnScanners
	useDecimals bool
}

type sqlColumnsReader struct {
	count    int
	names    []string
	values   []any
	scanArgs []any
}

func newSqlColumnsInfo(rows *sql.Rows, options ...any) (*sqlColumnsInfo, error) {
	result := &sqlColumnsInfo{
		useDecimals: true,
	}
	for _, o := range options {
		if o != nil {
			switch option := o.(type) {
			case UseDecimals:
				result.useDecimals = bool(option)
			case ColumnScanners:
				if result.scanners == nil {
					result.scanners = ColumnScanners{}
				}
				for k, v := range option {
					result.scanners[k] = v
				}
			default:
				return nil, fmt.Errorf("unknown option type: %T", o)
			}
		}
	}
	cts, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	result.count = len(cts)
	result.names = make([]string, result.count)
	result.scanTypes = make([]reflect.Type, result.count)
	result.dbTypes = make([]string, result.count)
	for i, ct := range cts {
		result.names[i] = ct.Name()
		result.scanTypes[i] = ct.ScanType()
		result.dbTypes[i] = ct.DatabaseTypeName()
	}
	return result, nil
}

func (ci *sqlColumnsInfo) reader() *sqlColumnsReader {
	r := &sqlColumnsReader{
		count:    ci.count,
		names:    ci.names,
		values:   make([]any, ci.count),
		scanArgs: make([]any, ci.count),
	}
	for i := 0; i < ci.count; i++ {
		r.scanArgs[i] = ci.buildScanner(r, i)
	}
	return r
}

// rowModel snapshots the current scanned values as a RowModel
func (cr *sqlColumnsReader) rowModel() RowModel {
	values := make([]any, cr.count)
	copy(values, cr.values)
	return RowModel{
		Columns: cr.names,
		Values:  values,
	}
}

func (ci *sqlColumnsInfo) buildScanner(cr *sqlColumnsReader, index int) sql.Scanner {
	if scanner, ok := ci.scanners[ci.names[index]]; ok && scanner != nil {
		return &customColumnScanner{
			columns: cr,
			index:   index,
			scanner: scanner,
		}
	}
	switch ci.dbTypes[index] {
	case "JSON", "JSONB":
		return &jsonColumnScanner{
			columns: cr,
			index:   index,
		}
	case "DECIMAL", "FLOAT", "DOUBLE", "NUMERIC":
		if ci.useDecimals {
			return &decimalColumnScanner{
				columns: cr,
				index:   index,
			}
		}
	default:
		if ci.useDecimals && strings.HasPrefix(ci.dbTypes[index], "FLOAT") {
			return &decimalColumnScanner{
				columns: cr,
				index:   index,
			}
		}
	}
	v := reflect.New(ci.scanTypes[index]).Interface()
	switch v.(type) {
	case *string, string, *sql.NullString:
		return &stringColumnScanner{
			columns: cr,
			index:   index,
		}
	case *float32, *float64, float32, float64, *sql.NullFloat64:
		if ci.useDecimals {
			return &decimalColumnScanner{
				columns: cr,
				index:   index,
			}
		}
	}
	return &rawColumnScanner{
		columns: cr,
		index:   index,
	}
}

type customColumnScanner struct {
	columns *sqlColumnsReader
	index   int
	scanner ColumnScanner
}

func (c *customColumnScanner) Scan(src any) error {
	v, err := c.scanner(src)
	if err == nil {
		c.columns.values[c.index] = v
	}
	return err
}

type rawColumnScanner struct {
	columns *sqlColumnsReader
	index   int
}

func (c *rawColumnScanner) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		cp := make([]byte, len(v))
		copy(cp, v)
		c.columns.values[c.index] = cp
	default:
		c.columns.values[c.index] = src
	}
	return nil
}

type stringColumnScanner struct {
	columns *sqlColumnsReader
	index   int
}

func (c *stringColumnScanner) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		c.columns.values[c.index] = string(v)
	default:
		c.columns.values[c.index] = v
	}
	return nil
}

type decimalColumnScanner struct {
	columns *sqlColumnsReader
	index   int
}

func (c *decimalColumnScanner) Scan(src any) error {
	if src == nil {
		c.columns.values[c.index] = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return c.scanString(string(v))
	case string:
		return c.scanString(v)
	}
	cv, err := coerceDecimal(src)
	if err != nil {
		c.columns.values[c.index] = src
		return nil
	}
	c.columns.values[c.index] = cv.Interface()
	return nil
}

func (c *decimalColumnScanner) scanString(s string) (err error) {
	if len(s) > 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		s = s[1 : len(s)-1]
	}
	cv, cerr := coerceDecimal(s)
	if cerr != nil {
		return cerr
	}
	c.columns.values[c.index] = cv.Interface()
	return nil
}

type jsonColumnScanner struct {
	columns *sqlColumnsReader
	index   int
}

func (c *jsonColumnScanner) Scan(src any) error {
	var err error
	switch data := src.(type) {
	case []byte:
		var v any
		if err = json.Unmarshal(data, &v); err == nil {
			c.columns.values[c.index] = v
		}
	case string:
		var v any
		if err = json.Unmarshal([]byte(data), &v); err == nil {
			c.columns.values[c.index] = v
		}
	default:
		c.columns.values[c.index] = src
	}
	return err
}
