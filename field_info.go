package magellan

import (
	"reflect"
)

// FieldInfo describes a single mapped field of a registered type
//
// FieldInfo instances are built once, at registration, and are read-only thereafter
type FieldInfo struct {
	name         string
	goName       string
	fieldType    reflect.Type
	elemType     reflect.Type
	identity     bool
	relationship bool
	relType      string
	access       func(instance any) reflect.Value
}

// Name returns the property name the field is mapped to
func (f *FieldInfo) Name() string {
	return f.name
}

// GoName returns the struct field name
func (f *FieldInfo) GoName() string {
	return f.goName
}

// Type returns the declared type of the field
func (f *FieldInfo) Type() reflect.Type {
	return f.fieldType
}

// ElementType returns the element type for collection fields (nil for non-collection fields)
func (f *FieldInfo) ElementType() reflect.Type {
	return f.elemType
}

// IsIdentity reports whether the field is the identity field of its type
func (f *FieldInfo) IsIdentity() bool {
	return f.identity
}

// IsRelationship reports whether the field holds a related entity (or collection of related entities)
func (f *FieldInfo) IsRelationship() bool {
	return f.relationship
}

// RelationshipType returns the relationship type for relationship fields (empty for other fields)
func (f *FieldInfo) RelationshipType() string {
	return f.relType
}

// IsCollection reports whether the field is slice or array shaped
//
// byte slices are treated as scalar values, not collections
func (f *FieldInfo) IsCollection() bool {
	return f.elemType != nil
}

// Write sets the field on the given instance (which must be a pointer to
// a struct of the owning type), coercing the value to the field type where necessary
//
// incompatible values are reported as a MappingError
func (f *FieldInfo) Write(instance any, value any) error {
	fv := f.access(instance)
	cv, err := coerceValue(value, f.fieldType)
	if err != nil {
		return &MappingError{
			Property: f.name,
			Detail:   "cannot write property",
			Cause:    err,
		}
	}
	fv.Set(cv)
	return nil
}
