package magellan

import (
	"fmt"
	"reflect"
	"sync"
)

const defaultTagName = "graph"

// UseTagName is a type that can be passed as an option to NewMetaData
// and determines the field tag name to use for property mappings
//
// If this option is not passed to NewMetaData, then the default "graph" tag is used
type UseTagName string

// PropertyNamer is an interface that can be passed as an option to NewMetaData
// and is used to derive the property name to use for a given field
//
// If this option is not specified (or none are satisfied), the name is deduced
// from the "graph" tag for the field (or the field name itself)
type PropertyNamer interface {
	// PropertyName returns the property name to use for the given struct field
	//
	// The returned name is only used if second return arg is true
	PropertyName(structType reflect.Type, fld reflect.StructField) (string, bool)
}

// MetaData is the registry of types known to the mapper
//
// types must be registered (see MetaData.Register) before they can be mapped to -
// registration parses the type once and the resulting metadata is read-only, so
// a MetaData is safe for concurrent use
type MetaData struct {
	mu      sync.RWMutex
	tagName string
	namers  []PropertyNamer
	byName  map[string]*ClassInfo
	byType  map[reflect.Type]*ClassInfo
	byLabel map[string]*ClassInfo
}

// NewMetaData creates a new, empty type registry
//
// options can be any of UseTagName or PropertyNamer
func NewMetaData(options ...any) (*MetaData, error) {
	result := &MetaData{
		tagName: defaultTagName,
		byName:  map[string]*ClassInfo{},
		byType:  map[reflect.Type]*ClassInfo{},
		byLabel: map[string]*ClassInfo{},
	}
	for _, o := range options {
		if o != nil {
			switch option := o.(type) {
			case UseTagName:
				if option != "" {
					result.tagName = string(option)
				}
			case PropertyNamer:
				result.namers = append(result.namers, option)
			default:
				return nil, fmt.Errorf("unknown option type: %T", o)
			}
		}
	}
	return result, nil
}

// MustNewMetaData is the same as NewMetaData, except it panics on error
func MustNewMetaData(options ...any) *MetaData {
	result, err := NewMetaData(options...)
	if err != nil {
		panic(err)
	}
	return result
}

// Register registers the types of the given prototypes - each of which must be
// a non-nil pointer to a struct
//
// types of related entities reachable through relationship fields are registered
// transitively
func (md *MetaData) Register(prototypes ...any) error {
	md.mu.Lock()
	defer md.mu.Unlock()
	for _, p := range prototypes {
		if p == nil {
			return fmt.Errorf("cannot register nil prototype")
		}
		t := reflect.TypeOf(p)
		if t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
			return fmt.Errorf("can only register a pointer to struct, got %T", p)
		}
		if err := md.registerType(t.Elem()); err != nil {
			return err
		}
	}
	return nil
}

// MustRegister is the same as Register, except it panics on error (and returns
// the receiver, so registrations can be chained onto NewMetaData)
func (md *MetaData) MustRegister(prototypes ...any) *MetaData {
	if err := md.Register(prototypes...); err != nil {
		panic(err)
	}
	return md
}

func (md *MetaData) registerType(rt reflect.Type) error {
	if _, ok := md.byType[rt]; ok {
		return nil
	}
	if rt.Name() == "" {
		return fmt.Errorf("cannot register unnamed type %s", rt)
	}
	if existing, ok := md.byName[rt.Name()]; ok {
		return fmt.Errorf("cannot register type %s - name %q already registered (%s)", rt, rt.Name(), existing.structType)
	}
	ci, related, err := newClassInfo(rt, md.tagName, md.namers)
	if err != nil {
		return err
	}
	if existing, ok := md.byLabel[ci.label]; ok {
		return fmt.Errorf("cannot register type %s - label %q already registered (%s)", rt, ci.label, existing.structType)
	}
	md.byType[rt] = ci
	md.byName[ci.name] = ci
	md.byLabel[ci.label] = ci
	for _, rel := range related {
		if err := md.registerType(rel); err != nil {
			return err
		}
	}
	return nil
}

// ClassInfo returns the metadata for the registered type with the given simple
// name (or nil if no such type is registered)
func (md *MetaData) ClassInfo(name string) *ClassInfo {
	md.mu.RLock()
	defer md.mu.RUnlock()
	return md.byName[name]
}

// ClassInfoOf returns the metadata for the runtime type of the given entity
// (or nil if the type is not registered)
func (md *MetaData) ClassInfoOf(entity any) *ClassInfo {
	if entity == nil {
		return nil
	}
	t := reflect.TypeOf(entity)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return md.classInfoForType(t)
}

// ClassInfoForLabel returns the metadata for the registered type with the given
// label (or nil if no type is registered for the label)
func (md *MetaData) ClassInfoForLabel(label string) *ClassInfo {
	md.mu.RLock()
	defer md.mu.RUnlock()
	return md.byLabel[label]
}

func (md *MetaData) classInfoForType(t reflect.Type) *ClassInfo {
	md.mu.RLock()
	defer md.mu.RUnlock()
	return md.byType[t]
}
