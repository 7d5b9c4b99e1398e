package magellan

import (
	"fmt"
	"reflect"
	"sync"
)

// PropertyPredicate reports whether the named property is consumed by an
// instantiator when constructing an instance
//
// properties for which the predicate returns true are not written as fields
// by the mapper
type PropertyPredicate func(propertyName string) bool

// EntityInstantiator is an interface that can be passed as an option to
// NewEntityMapper and determines how instances of mapped types are created
//
// If this option is not specified, instances are created by reflection
// (i.e. zero-valued) and every property is treated as field-writable
type EntityInstantiator interface {
	// CreateInstance returns a new instance of the given struct type, as a
	// non-nil pointer to it
	//
	// the property values of the row being mapped are supplied so that
	// implementations can construct instances from them
	CreateInstance(target reflect.Type, propertyValues map[string]any) (any, error)
	// ConstructorArguments returns a predicate identifying the properties
	// consumed when constructing an instance of the given type
	//
	// the predicate is only used if the second return arg is true
	ConstructorArguments(target reflect.Type) (PropertyPredicate, bool)
}

var defaultInstantiator EntityInstantiator = reflectInstantiator{}

type reflectInstantiator struct{}

func (reflectInstantiator) CreateInstance(target reflect.Type, _ map[string]any) (any, error) {
	if target == nil || target.Kind() != reflect.Struct {
		return nil, fmt.Errorf("can only create instances of struct types, got %s", target)
	}
	return reflect.New(target).Interface(), nil
}

func (reflectInstantiator) ConstructorArguments(_ reflect.Type) (PropertyPredicate, bool) {
	return nil, false
}

// FactoryInstantiator is an EntityInstantiator that creates instances using
// registered factory funcs - falling back to reflection for types without one
//
// register factories with RegisterFactory
type FactoryInstantiator struct {
	mu        sync.RWMutex
	factories map[reflect.Type]*entityFactory
}

var _ EntityInstantiator = (*FactoryInstantiator)(nil)

type entityFactory struct {
	create   func(propertyValues map[string]any) (any, error)
	consumed map[string]struct{}
}

// NewFactoryInstantiator creates a new, empty FactoryInstantiator
func NewFactoryInstantiator() *FactoryInstantiator {
	return &FactoryInstantiator{
		factories: map[reflect.Type]*entityFactory{},
	}
}

// RegisterFactory registers a factory func for type T on the given FactoryInstantiator
//
// consumes names the properties the factory consumes - those properties will not
// be written as fields on instances the factory creates
func RegisterFactory[T any](fi *FactoryInstantiator, create func(propertyValues map[string]any) (*T, error), consumes ...string) {
	consumed := make(map[string]struct{}, len(consumes))
	for _, name := range consumes {
		consumed[name] = struct{}{}
	}
	fi.mu.Lock()
	defer fi.mu.Unlock()
	fi.factories[reflect.TypeOf((*T)(nil)).Elem()] = &entityFactory{
		create: func(propertyValues map[string]any) (any, error) {
			return create(propertyValues)
		},
		consumed: consumed,
	}
}

func (fi *FactoryInstantiator) CreateInstance(target reflect.Type, propertyValues map[string]any) (any, error) {
	fi.mu.RLock()
	factory, ok := fi.factories[target]
	fi.mu.RUnlock()
	if !ok {
		return defaultInstantiator.CreateInstance(target, propertyValues)
	}
	result, err := factory.create(propertyValues)
	if err != nil {
		return nil, err
	}
	if result == nil || reflect.ValueOf(result).IsNil() {
		return nil, fmt.Errorf("factory for type %s returned nil", target)
	}
	return result, nil
}

func (fi *FactoryInstantiator) ConstructorArguments(target reflect.Type) (PropertyPredicate, bool) {
	fi.mu.RLock()
	factory, ok := fi.factories[target]
	fi.mu.RUnlock()
	if !ok || len(factory.consumed) == 0 {
		return nil, false
	}
	return func(propertyName string) bool {
		_, is := factory.consumed[propertyName]
		return is
	}, true
}
