package magellan

import (
	"database/sql"
	"fmt"
	"github.com/shopspring/decimal"
	"reflect"
	"strings"
	"time"
	"unicode"
)

const identityProperty = "id"

var (
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
	timeType    = reflect.TypeOf(time.Time{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
)

// NodeLabeler is an interface that can be implemented by registered types
// to override the label used for the type
//
// If not implemented, the label is the simple type name
type NodeLabeler interface {
	// NodeLabel returns the label to use for the type
	NodeLabel() string
}

// ClassInfo is the mapping metadata for a single registered type
//
// obtain a ClassInfo from MetaData.ClassInfo (or MetaData.ClassInfoOf / MetaData.ClassInfoForLabel)
type ClassInfo struct {
	name          string
	label         string
	structType    reflect.Type
	fields        []*FieldInfo
	properties    map[string]*FieldInfo
	relationships map[string]*FieldInfo
	identity      *FieldInfo
}

// Name returns the simple type name
func (ci *ClassInfo) Name() string {
	return ci.name
}

// Label returns the label for the type
func (ci *ClassInfo) Label() string {
	return ci.label
}

// Type returns the underlying struct type
func (ci *ClassInfo) Type() reflect.Type {
	return ci.structType
}

// Fields returns the mapped fields of the type, in declaration order
func (ci *ClassInfo) Fields() []*FieldInfo {
	return ci.fields
}

// PropertyField returns the property field mapped to the given name (or nil)
func (ci *ClassInfo) PropertyField(name string) *FieldInfo {
	return ci.properties[name]
}

// RelationshipField returns the relationship field mapped to the given name (or nil)
func (ci *ClassInfo) RelationshipField(name string) *FieldInfo {
	return ci.relationships[name]
}

// IdentityField returns the identity field of the type (or nil if it has none)
func (ci *ClassInfo) IdentityField() *FieldInfo {
	return ci.identity
}

// elementTypeFor resolves the element type used when merging a collection value
// for the named property
//
// only property fields carry a usable element descriptor - for anything else
// (including relationship collections) the type itself is the fallback
func (ci *ClassInfo) elementTypeFor(name string) reflect.Type {
	if fld := ci.properties[name]; fld != nil && fld.elemType != nil {
		return fld.elemType
	}
	return ci.structType
}

// newClassInfo parses the given struct type into a ClassInfo
//
// also returns the types of related entities so that they can be registered transitively
func newClassInfo(rt reflect.Type, tagName string, namers []PropertyNamer) (*ClassInfo, []reflect.Type, error) {
	ci := &ClassInfo{
		name:          rt.Name(),
		label:         rt.Name(),
		structType:    rt,
		properties:    map[string]*FieldInfo{},
		relationships: map[string]*FieldInfo{},
	}
	if l, ok := reflect.New(rt).Interface().(NodeLabeler); ok {
		ci.label = l.NodeLabel()
	}
	var related []reflect.Type
	if err := ci.addFields(rt, nil, tagName, namers, &related); err != nil {
		return nil, nil, err
	}
	return ci, related, nil
}

func (ci *ClassInfo) addFields(rt reflect.Type, parentIndex []int, tagName string, namers []PropertyNamer, related *[]reflect.Type) error {
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		index := append([]int{}, parentIndex...)
		index = append(index, f.Index...)
		if f.Anonymous {
			if f.Type.Kind() == reflect.Pointer {
				return fmt.Errorf("cannot register type %q - embedded pointer field %q is not supported", ci.name, f.Name)
			}
			if f.Type.Kind() == reflect.Struct && !isValueType(f.Type) {
				if err := ci.addFields(f.Type, index, tagName, namers, related); err != nil {
					return err
				}
				continue
			}
		}
		tag, err := parseFieldTag(f, tagName)
		if err != nil {
			return fmt.Errorf("cannot register type %q: %w", ci.name, err)
		}
		if tag.skip {
			continue
		}
		name := ""
		named := false
		for _, namer := range namers {
			if n, ok := namer.PropertyName(rt, f); ok {
				name, named = n, true
				break
			}
		}
		if !named {
			if name = tag.name; name == "" {
				name = lowerCamelName(f.Name)
			}
		}
		fld := &FieldInfo{
			name:      name,
			goName:    f.Name,
			fieldType: f.Type,
			elemType:  collectionElem(f.Type),
			access:    fieldAccessor(index),
		}
		entity, entityType := entityKind(f.Type)
		switch {
		case tag.id:
			fld.identity = true
		case tag.rel || entity:
			fld.relationship = true
			if fld.relType = tag.relType; fld.relType == "" {
				fld.relType = upperSnakeName(f.Name)
			}
			if entity {
				*related = append(*related, entityType)
			}
		case !tag.tagged && f.Name == "ID" && isIdentityKind(f.Type):
			fld.identity = true
		}
		if err := ci.addField(fld); err != nil {
			return err
		}
	}
	return nil
}

func (ci *ClassInfo) addField(fld *FieldInfo) error {
	if _, exists := ci.properties[fld.name]; exists {
		return fmt.Errorf("cannot register type %q - duplicate property mapping %q", ci.name, fld.name)
	}
	if _, exists := ci.relationships[fld.name]; exists {
		return fmt.Errorf("cannot register type %q - duplicate property mapping %q", ci.name, fld.name)
	}
	ci.fields = append(ci.fields, fld)
	switch {
	case fld.identity:
		if ci.identity != nil {
			return fmt.Errorf("cannot register type %q - multiple identity fields (%q and %q)", ci.name, ci.identity.goName, fld.goName)
		}
		ci.identity = fld
	case fld.relationship:
		ci.relationships[fld.name] = fld
	default:
		ci.properties[fld.name] = fld
	}
	return nil
}

// fieldAccessor returns a func that, given a pointer to a struct instance,
// returns the addressable value of the field at the given index
func fieldAccessor(index []int) func(instance any) reflect.Value {
	indexCopy := append([]int{}, index...)
	return func(instance any) reflect.Value {
		return reflect.ValueOf(instance).Elem().FieldByIndex(indexCopy)
	}
}

type fieldTag struct {
	tagged  bool
	skip    bool
	name    string
	id      bool
	rel     bool
	relType string
}

func parseFieldTag(f reflect.StructField, tagName string) (result fieldTag, err error) {
	tag, ok := f.Tag.Lookup(tagName)
	if !ok {
		return result, nil
	}
	result.tagged = true
	if tag == "-" {
		result.skip = true
		return result, nil
	}
	parts := strings.Split(tag, ",")
	result.name = parts[0]
	for _, flag := range parts[1:] {
		switch {
		case flag == "id":
			result.id = true
		case flag == "rel":
			result.rel = true
		case strings.HasPrefix(flag, "rel="):
			result.rel = true
			result.relType = flag[4:]
		default:
			err = fmt.Errorf("unknown tag flag %q on field %q", flag, f.Name)
			return result, err
		}
	}
	return result, nil
}

// entityKind reports whether the field type holds a related entity - i.e. is a
// struct (or pointer to struct, or slice/array of structs) that is not a value type
//
// the second return arg is the underlying entity struct type
func entityKind(t reflect.Type) (bool, reflect.Type) {
	base := t
	for base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	if base.Kind() == reflect.Slice || base.Kind() == reflect.Array {
		base = base.Elem()
		for base.Kind() == reflect.Pointer {
			base = base.Elem()
		}
	}
	if base.Kind() == reflect.Struct && !isValueType(base) {
		return true, base
	}
	return false, nil
}

// collectionElem returns the element type for slice/array shaped field types (nil otherwise)
//
// byte slices are scalar values, not collections
func collectionElem(t reflect.Type) reflect.Type {
	base := t
	for base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	if (base.Kind() == reflect.Slice || base.Kind() == reflect.Array) && base.Elem().Kind() != reflect.Uint8 {
		return base.Elem()
	}
	return nil
}

func isIdentityKind(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint64, reflect.String:
		return true
	}
	return false
}

func isValueType(t reflect.Type) bool {
	if t == nil {
		return false
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return true
	}
	if t == timeType || t == decimalType {
		return true
	}
	return t.Implements(scannerType) || reflect.PointerTo(t).Implements(scannerType)
}

// lowerCamelName derives the default property name for a field - "Name" becomes "name",
// "ID" becomes "id", "URLPath" becomes "urlPath"
func lowerCamelName(s string) string {
	rs := []rune(s)
	upper := 0
	for upper < len(rs) && unicode.IsUpper(rs[upper]) {
		upper++
	}
	if upper == 0 {
		return s
	}
	if upper > 1 && upper < len(rs) {
		// leading acronym - the last upper starts the next word
		upper--
	}
	for i := 0; i < upper; i++ {
		rs[i] = unicode.ToLower(rs[i])
	}
	return string(rs)
}

// upperSnakeName derives the default relationship type for a field - "Satellites"
// becomes "SATELLITES", "LaunchSite" becomes "LAUNCH_SITE"
func upperSnakeName(s string) string {
	rs := []rune(s)
	var b strings.Builder
	for i, r := range rs {
		if unicode.IsUpper(r) && i > 0 && (unicode.IsLower(rs[i-1]) || (i+1 < len(rs) && unicode.IsLower(rs[i+1]))) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
