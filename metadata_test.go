package magellan

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"reflect"
	"testing"
)

func TestNewMetaData(t *testing.T) {
	md, err := NewMetaData()
	require.NoError(t, err)
	require.NotNil(t, md)
	assert.Equal(t, defaultTagName, md.tagName)
	assert.Empty(t, md.namers)

	md, err = NewMetaData(UseTagName("db"))
	require.NoError(t, err)
	assert.Equal(t, "db", md.tagName)

	md, err = NewMetaData(UseTagName(""))
	require.NoError(t, err)
	assert.Equal(t, defaultTagName, md.tagName)

	md, err = NewMetaData(&testPropertyNamer{})
	require.NoError(t, err)
	assert.Len(t, md.namers, 1)

	_, err = NewMetaData("not a valid option")
	require.Error(t, err)
	require.Equal(t, "unknown option type: string", err.Error())
}

func TestMustNewMetaData(t *testing.T) {
	require.Panics(t, func() {
		_ = MustNewMetaData("not a valid option")
	})
	require.NotPanics(t, func() {
		_ = MustNewMetaData()
	})
}

type testPropertyNamer struct{}

var _ PropertyNamer = &testPropertyNamer{}

func (t *testPropertyNamer) PropertyName(structType reflect.Type, fld reflect.StructField) (string, bool) {
	if fld.Name == "Renamed" {
		return "other", true
	}
	return "", false
}

func TestMetaData_Register(t *testing.T) {
	md := MustNewMetaData()
	err := md.Register(&Program{})
	require.NoError(t, err)

	ci := md.ClassInfo("Program")
	require.NotNil(t, ci)
	assert.Equal(t, "Program", ci.Name())
	assert.Equal(t, "Program", ci.Label())
	assert.Equal(t, reflect.TypeOf(Program{}), ci.Type())

	// related entity types are registered transitively
	require.NotNil(t, md.ClassInfo("Satellite"))

	assert.Nil(t, md.ClassInfo("Fooey"))
}

func TestMetaData_Register_Errors(t *testing.T) {
	md := MustNewMetaData()
	err := md.Register(nil)
	require.Error(t, err)
	require.Equal(t, "cannot register nil prototype", err.Error())

	err = md.Register(Program{})
	require.Error(t, err)
	require.Equal(t, "can only register a pointer to struct, got magellan.Program", err.Error())

	err = md.Register(&[]string{})
	require.Error(t, err)
}

func TestMetaData_Register_DuplicateName(t *testing.T) {
	md := MustNewMetaData()
	require.NoError(t, md.Register(&Program{}))
	// re-registering the same type is a no-op
	require.NoError(t, md.Register(&Program{}))

	type Program struct {
		Name string
	}
	err := md.Register(&Program{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `name "Program" already registered`)
}

func TestMetaData_MustRegister(t *testing.T) {
	require.Panics(t, func() {
		_ = MustNewMetaData().MustRegister(Program{})
	})
	md := MustNewMetaData().MustRegister(&Program{})
	require.NotNil(t, md.ClassInfo("Program"))
}

func TestMetaData_ClassInfoOf(t *testing.T) {
	md := MustNewMetaData().MustRegister(&Program{})
	assert.NotNil(t, md.ClassInfoOf(Program{}))
	assert.NotNil(t, md.ClassInfoOf(&Program{}))
	assert.Nil(t, md.ClassInfoOf(struct{}{}))
	assert.Nil(t, md.ClassInfoOf(nil))
}

func TestMetaData_ClassInfoForLabel(t *testing.T) {
	md := MustNewMetaData().MustRegister(&Program{}, &labeled{})
	assert.NotNil(t, md.ClassInfoForLabel("Program"))
	ci := md.ClassInfoForLabel("Space_Program")
	require.NotNil(t, ci)
	assert.Equal(t, "labeled", ci.Name())
	assert.Nil(t, md.ClassInfoForLabel("Fooey"))
}

type labeled struct {
	ID   int64
	Name string
}

var _ NodeLabeler = &labeled{}

func (l *labeled) NodeLabel() string {
	return "Space_Program"
}

func TestMetaData_Register_DuplicateLabel(t *testing.T) {
	md := MustNewMetaData().MustRegister(&labeled{})
	err := md.Register(&duplicateLabeled{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `label "Space_Program" already registered`)
}

type duplicateLabeled struct {
	Name string
}

func (l *duplicateLabeled) NodeLabel() string {
	return "Space_Program"
}

func TestMetaData_UseTagName(t *testing.T) {
	type renamed struct {
		Name string `col:"title"`
	}
	md := MustNewMetaData(UseTagName("col")).MustRegister(&renamed{})
	ci := md.ClassInfo("renamed")
	require.NotNil(t, ci)
	require.NotNil(t, ci.PropertyField("title"))
	require.Nil(t, ci.PropertyField("name"))
}

func TestMetaData_PropertyNamer(t *testing.T) {
	type renamed struct {
		Renamed string `graph:"ignored"`
		Name    string
	}
	md := MustNewMetaData(&testPropertyNamer{}).MustRegister(&renamed{})
	ci := md.ClassInfo("renamed")
	require.NotNil(t, ci)
	// the namer takes precedence over the tag
	require.NotNil(t, ci.PropertyField("other"))
	require.Nil(t, ci.PropertyField("ignored"))
	require.NotNil(t, ci.PropertyField("name"))
}
