package magellan

import (
	"fmt"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"reflect"
	"strconv"
	"time"
)

var uuidType = reflect.TypeOf(uuid.UUID{})

// MergeCollection merges seed and value into a new collection of the target
// slice or array type
//
// seed elements come first, then the value elements - a nil value contributes
// nothing and a non-collection value is treated as a single element. Each
// element is coerced to the target element type (for targets with an `any`
// element type, elemType - when not nil - is the coercion target instead)
//
// array targets must be filled exactly
func MergeCollection(target reflect.Type, value any, seed any, elemType reflect.Type) (any, error) {
	if target == nil || (target.Kind() != reflect.Slice && target.Kind() != reflect.Array) {
		return nil, fmt.Errorf("merge target must be a slice or array type, got %s", target)
	}
	goal := target.Elem()
	if goal.Kind() == reflect.Interface && goal.NumMethod() == 0 && elemType != nil {
		goal = elemType
	}
	var elems []reflect.Value
	add := func(v any) error {
		cv, err := coerceValue(v, goal)
		if err != nil {
			return err
		}
		elems = append(elems, cv)
		return nil
	}
	addAll := func(v any, single bool) error {
		if v == nil {
			return nil
		}
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			for i := 0; i < rv.Len(); i++ {
				if err := add(rv.Index(i).Interface()); err != nil {
					return err
				}
			}
			return nil
		}
		if !single {
			return fmt.Errorf("merge seed must be a slice or array, got %T", v)
		}
		return add(v)
	}
	if err := addAll(seed, false); err != nil {
		return nil, err
	}
	if err := addAll(value, true); err != nil {
		return nil, err
	}
	if target.Kind() == reflect.Array {
		if len(elems) != target.Len() {
			return nil, fmt.Errorf("cannot merge %d elements into array type %s", len(elems), target)
		}
		out := reflect.New(target).Elem()
		for i, e := range elems {
			out.Index(i).Set(e)
		}
		return out.Interface(), nil
	}
	out := reflect.MakeSlice(target, 0, len(elems))
	for _, e := range elems {
		out = reflect.Append(out, e)
	}
	return out.Interface(), nil
}

// coerceValue converts a raw value to the target type
//
// handles the conversions row sources commonly require - numeric widening/narrowing,
// string and byte slice interchange, pointer targets, bool encodings, and
// decimal.Decimal, uuid.UUID and time.Time targets
func coerceValue(value any, target reflect.Type) (reflect.Value, error) {
	if target == nil {
		return reflect.Value{}, fmt.Errorf("no target type")
	}
	if value == nil {
		return reflect.Zero(target), nil
	}
	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(target) {
		return rv, nil
	}
	if target.Kind() == reflect.Pointer {
		ev, err := coerceValue(value, target.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(target.Elem())
		p.Elem().Set(ev)
		return p, nil
	}
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Zero(target), nil
		}
		return coerceValue(rv.Elem().Interface(), target)
	}
	switch target {
	case decimalType:
		return coerceDecimal(value)
	case uuidType:
		return coerceUuid(value)
	case timeType:
		return coerceTime(value)
	}
	if d, ok := value.(decimal.Decimal); ok {
		return coerceFromDecimal(d, target)
	}
	switch target.Kind() {
	case reflect.Bool:
		b, err := coerceBool(value)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(b), nil
	case reflect.String:
		if b, ok := value.([]byte); ok {
			return reflect.ValueOf(string(b)).Convert(target), nil
		}
		if rv.Kind() == reflect.String {
			return rv.Convert(target), nil
		}
	}
	if isNumericKind(rv.Kind()) && isNumericKind(target.Kind()) {
		return rv.Convert(target), nil
	}
	if rv.Kind() == reflect.String && target.Kind() == reflect.Slice && target.Elem().Kind() == reflect.Uint8 {
		return rv.Convert(target), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot convert value of type %T to %s", value, target)
}

func coerceBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	case int:
		return v != 0, nil
	case float64:
		return v != 0, nil
	case []byte:
		return strconv.ParseBool(string(v))
	case string:
		return strconv.ParseBool(v)
	}
	return false, fmt.Errorf("type %T is not a bool", value)
}

func coerceDecimal(value any) (reflect.Value, error) {
	var result decimal.Decimal
	var err error
	switch v := value.(type) {
	case int:
		result = decimal.New(int64(v), 0)
	case int64:
		result = decimal.New(v, 0)
	case float32:
		result = decimal.NewFromFloat(float64(v))
	case float64:
		result = decimal.NewFromFloat(v)
	case string:
		result, err = decimal.NewFromString(v)
	case []byte:
		result, err = decimal.NewFromString(string(v))
	default:
		err = fmt.Errorf("cannot convert value of type %T to decimal", value)
	}
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(result), nil
}

func coerceFromDecimal(d decimal.Decimal, target reflect.Type) (reflect.Value, error) {
	switch target.Kind() {
	case reflect.Float32, reflect.Float64:
		return reflect.ValueOf(d.InexactFloat64()).Convert(target), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return reflect.ValueOf(d.IntPart()).Convert(target), nil
	case reflect.String:
		return reflect.ValueOf(d.String()).Convert(target), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot convert decimal to %s", target)
}

func coerceUuid(value any) (reflect.Value, error) {
	var result uuid.UUID
	var err error
	switch v := value.(type) {
	case string:
		result, err = uuid.Parse(v)
	case []byte:
		if len(v) == 16 {
			result, err = uuid.FromBytes(v)
		} else {
			result, err = uuid.Parse(string(v))
		}
	case [16]byte:
		result = uuid.UUID(v)
	default:
		err = fmt.Errorf("cannot convert value of type %T to uuid", value)
	}
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(result), nil
}

func coerceTime(value any) (reflect.Value, error) {
	var result time.Time
	var err error
	switch v := value.(type) {
	case string:
		result, err = time.Parse(time.RFC3339Nano, v)
	case []byte:
		result, err = time.Parse(time.RFC3339Nano, string(v))
	default:
		err = fmt.Errorf("cannot convert value of type %T to time", value)
	}
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(result), nil
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
