package magellan

import (
	"context"
	"fmt"
)

// MapRows maps each row onto a new instance of T
//
// options can be any of EntityPostProcessor[T], ErrorTranslator or Limiter
func MapRows[T any](ctx context.Context, m *EntityMapper, rows []RowModel, options ...any) ([]T, error) {
	postProcessors, limiter, errTranslator, err := readOptions[T](m, options)
	if err != nil {
		return nil, err
	}
	return mapRowModels[T](ctx, m, rows, postProcessors, limiter, errTranslator)
}

// FirstEntity maps just the first row onto a new instance of T
//
// if there are no rows, returns nil
//
// options can be any of EntityPostProcessor[T], ErrorTranslator or Limiter (ignored)
func FirstEntity[T any](ctx context.Context, m *EntityMapper, rows []RowModel, options ...any) (*T, error) {
	postProcessors, _, errTranslator, err := readOptions[T](m, options)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	entity, err := mapRowModel[T](ctx, m, rows[0], postProcessors)
	if err != nil {
		return nil, translateError(err, errTranslator)
	}
	return &entity, nil
}

// ExactlyOneEntity maps exactly one row onto a new instance of T
//
// if there are no rows, returns error ErrNoRow
//
// options can be any of EntityPostProcessor[T], ErrorTranslator or Limiter (ignored)
func ExactlyOneEntity[T any](ctx context.Context, m *EntityMapper, rows []RowModel, options ...any) (result T, err error) {
	postProcessors, _, errTranslator, err := readOptions[T](m, options)
	if err != nil {
		return result, err
	}
	if len(rows) == 0 {
		return result, translateError(ErrNoRow, errTranslator)
	}
	result, err = mapRowModel[T](ctx, m, rows[0], postProcessors)
	return result, translateError(err, errTranslator)
}

// IterateRows maps each row onto a new instance of T and calls the supplied
// handler with it
//
// iteration stops at the end of rows - or an error is encountered - or the
// supplied handler returns false for `cont` (continue)
//
// options can be any of EntityPostProcessor[T], ErrorTranslator or Limiter
func IterateRows[T any](ctx context.Context, m *EntityMapper, rows []RowModel, handler func(entity T) (cont bool, err error), options ...any) error {
	postProcessors, limiter, errTranslator, err := readOptions[T](m, options)
	if err != nil {
		return err
	}
	cont := true
	for i, row := range rows {
		if limiter.LimitReached(i + 1) {
			break
		}
		var entity T
		if entity, err = mapRowModel[T](ctx, m, row, postProcessors); err == nil {
			cont, err = handler(entity)
		}
		if err != nil || !cont {
			break
		}
	}
	return translateError(err, errTranslator)
}

func mapRowModels[T any](ctx context.Context, m *EntityMapper, rows []RowModel, postProcessors []EntityPostProcessor[T], limiter Limiter, errTranslator ErrorTranslator) (result []T, err error) {
	result = make([]T, 0, len(rows))
	for i, row := range rows {
		if limiter.LimitReached(i + 1) {
			break
		}
		var entity T
		if entity, err = mapRowModel[T](ctx, m, row, postProcessors); err != nil {
			return nil, translateError(err, errTranslator)
		}
		result = append(result, entity)
	}
	return result, nil
}

func mapRowModel[T any](ctx context.Context, m *EntityMapper, row RowModel, postProcessors []EntityPostProcessor[T]) (result T, err error) {
	if result, err = MapRow[T](m, row.Columns, row.Values); err == nil {
		for _, pp := range postProcessors {
			if err = pp.PostProcess(ctx, &result); err != nil {
				return result, err
			}
		}
	}
	return result, err
}

func readOptions[T any](m *EntityMapper, options []any) (postProcessors []EntityPostProcessor[T], limiter Limiter, errorTranslator ErrorTranslator, err error) {
	limiter = defaultLimiter
	errorTranslator = m.errorTranslator
	for _, o := range options {
		if o != nil {
			switch option := o.(type) {
			case EntityPostProcessor[T]:
				postProcessors = append(postProcessors, option)
			case Limiter:
				limiter = option
			case ErrorTranslator:
				errorTranslator = option
			default:
				err = fmt.Errorf("unknown option type: %T", o)
				return
			}
		}
	}
	return postProcessors, limiter, errorTranslator, err
}
