package magellan

import (
	"errors"
	"fmt"
	"go.uber.org/zap"
	"reflect"
)

// EntityMapper maps flat property maps (or rows of column names and values)
// onto instances of registered types
//
// An EntityMapper is intended for ad-hoc, one-off mappings - it carries no
// per-call state, performs no identity tracking and holds nothing between
// calls, so a single EntityMapper is safe for concurrent use
type EntityMapper struct {
	meta            *MetaData
	instantiator    EntityInstantiator
	errorTranslator ErrorTranslator
}

// NewEntityMapper creates a new entity mapper over the given type registry
//
// options can be any of EntityInstantiator or ErrorTranslator
func NewEntityMapper(meta *MetaData, options ...any) (*EntityMapper, error) {
	if meta == nil {
		return nil, fmt.Errorf("meta data must not be nil")
	}
	result := &EntityMapper{
		meta:            meta,
		instantiator:    defaultInstantiator,
		errorTranslator: defaultErrorTranslator,
	}
	for _, o := range options {
		if o != nil {
			switch option := o.(type) {
			case EntityInstantiator:
				result.instantiator = option
			case ErrorTranslator:
				result.errorTranslator = option
			default:
				return nil, fmt.Errorf("unknown option type: %T", o)
			}
		}
	}
	return result, nil
}

// MustNewEntityMapper is the same as NewEntityMapper, except it panics on error
func MustNewEntityMapper(meta *MetaData, options ...any) *EntityMapper {
	result, err := NewEntityMapper(meta, options...)
	if err != nil {
		panic(err)
	}
	return result
}

// MetaData returns the type registry the mapper was created with
func (m *EntityMapper) MetaData() *MetaData {
	return m.meta
}

// Map maps a property map onto a new instance of T
//
// T may be a struct type or a pointer to struct type - either way the runtime
// type of the created instance must be registered (a MappingError is returned
// when it is not)
//
// Properties that resolve to no field of the type are skipped (reported at
// debug level on the package logger) - an unknown property is never an error.
// Properties consumed by the instantiator as constructor arguments are not
// written as fields
func Map[T any](m *EntityMapper, properties map[string]any) (T, error) {
	var zero T
	target, isPtr, err := mapTargetType[T]()
	if err != nil {
		return zero, err
	}
	instance, err := m.mapInstance(target, properties)
	if err != nil {
		return zero, err
	}
	if isPtr {
		if result, ok := instance.(T); ok {
			return result, nil
		}
	} else if result, ok := reflect.ValueOf(instance).Elem().Interface().(T); ok {
		return result, nil
	}
	return zero, &MappingError{
		TypeName: target.Name(),
		Detail:   fmt.Sprintf("instantiator returned an instance of %T", instance),
	}
}

// MapRow maps a row of column names and values onto a new instance of T
//
// the columns and values are zipped into a property map (where the row contains
// duplicate column names, the last value wins) and mapped as Map does
//
// it is a precondition violation for the columns and values to be of different
// lengths - in which case a MappingError is returned
func MapRow[T any](m *EntityMapper, columns []string, values []any) (T, error) {
	if len(columns) != len(values) {
		var zero T
		return zero, &MappingError{
			Detail: fmt.Sprintf("mismatched columns and values (%d columns, %d values)", len(columns), len(values)),
		}
	}
	properties := make(map[string]any, len(columns))
	for i, name := range columns {
		properties[name] = values[i]
	}
	return Map[T](m, properties)
}

func mapTargetType[T any]() (target reflect.Type, isPtr bool, err error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	switch {
	case t.Kind() == reflect.Struct:
		return t, false, nil
	case t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct:
		return t.Elem(), true, nil
	}
	return nil, false, fmt.Errorf("can only map to struct (or pointer to struct) types, got %s", t)
}

// mapInstance creates an instance of the target type and applies the properties to it
//
// the returned instance is always a pointer to the created struct
func (m *EntityMapper) mapInstance(target reflect.Type, properties map[string]any) (any, error) {
	instance, err := m.instantiator.CreateInstance(target, properties)
	if err != nil {
		return nil, &MappingError{
			TypeName: target.Name(),
			Detail:   "cannot create instance",
			Cause:    err,
		}
	}
	ci := m.meta.ClassInfoOf(instance)
	if ci == nil {
		return nil, errUnregisteredType(instanceTypeName(instance))
	}
	isConstructorArg, ok := m.instantiator.ConstructorArguments(ci.structType)
	if !ok || isConstructorArg == nil {
		isConstructorArg = func(string) bool {
			return false
		}
	}
	for name, value := range properties {
		if isConstructorArg(name) {
			continue
		}
		if err := m.writeProperty(ci, instance, name, value); err != nil {
			return nil, err
		}
	}
	return instance, nil
}

// writeProperty applies a single property to the instance
//
// the property resolves to a field in order: property field, then relationship
// field, then - for the property "id" - the identity field. A property that
// resolves to no field is skipped
func (m *EntityMapper) writeProperty(ci *ClassInfo, instance any, name string, value any) error {
	fld := ci.PropertyField(name)
	if fld == nil {
		fld = ci.RelationshipField(name)
	}
	if fld == nil && name == identityProperty {
		fld = ci.IdentityField()
	}
	if fld == nil {
		Logger().Debug("unable to find writable property",
			zap.String("type", ci.name),
			zap.String("property", name))
		return nil
	}
	if fld.IsCollection() {
		merged, err := MergeCollection(collectionType(fld.fieldType), value, nil, ci.elementTypeFor(name))
		if err != nil {
			return &MappingError{
				TypeName: ci.name,
				Property: name,
				Cause:    err,
			}
		}
		value = merged
	}
	if err := fld.Write(instance, value); err != nil {
		var me *MappingError
		if errors.As(err, &me) && me.TypeName == "" {
			me.TypeName = ci.name
		}
		return err
	}
	return nil
}

// collectionType strips any pointers from a collection field type, leaving the
// slice or array type itself
func collectionType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func instanceTypeName(instance any) string {
	t := reflect.TypeOf(instance)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
