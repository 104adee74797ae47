package param

import (
	"errors"
	"net/url"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var transforms = []Value{
	{Name: "none", Description: "leave the message alone"},
	{Name: "upper", Description: "upper-case"},
	{Name: "lower", Description: "lower-case"},
}

func TestTyped_AbsentAndBlankYieldDefault(t *testing.T) {
	p := Int("repeat", "", 3)

	v, err := p.Value(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	v, err = p.Value(url.Values{"repeat": {"   "}})
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.False(t, p.Specified(url.Values{"repeat": {""}}))
}

func TestTyped_InvalidValue(t *testing.T) {
	p := Int("repeat", "", 1)

	_, err := p.Value(url.Values{"repeat": {"many"}})
	var invalid *InvalidValueError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "repeat", invalid.Name)
	assert.Equal(t, "many", invalid.Value)
	assert.Equal(t, `invalid value "many" for parameter repeat`, err.Error())
	assert.False(t, p.Specified(url.Values{"repeat": {"many"}}))
}

func TestTyped_Specified(t *testing.T) {
	p := String("message", "", "hello")

	assert.False(t, p.Specified(url.Values{}))
	assert.False(t, p.Specified(url.Values{"message": {"hello"}}), "equal to default")
	assert.True(t, p.Specified(url.Values{"message": {"bye"}}))
}

func TestIntInRange(t *testing.T) {
	p := IntInRange("repeat", "", 1, 1, 100)

	v, err := p.Value(url.Values{"repeat": {"100"}})
	require.NoError(t, err)
	assert.Equal(t, 100, v)

	_, err = p.Value(url.Values{"repeat": {"101"}})
	assert.EqualError(t, err, `invalid value "101" for parameter repeat: must be between 1 and 100`)
}

func TestBool(t *testing.T) {
	p := Bool("help", "", false)

	for _, raw := range []string{"true", "TRUE", "yes", "On", "1"} {
		v, err := p.Value(url.Values{"help": {raw}})
		require.NoError(t, err, raw)
		assert.True(t, v, raw)
	}
	for _, raw := range []string{"false", "No", "off", "0"} {
		v, err := p.Value(url.Values{"help": {raw}})
		require.NoError(t, err, raw)
		assert.False(t, v, raw)
	}

	_, err := p.Value(url.Values{"help": {"maybe"}})
	assert.Error(t, err)
}

func TestFloat(t *testing.T) {
	p := Float("ratio", "", 0.5)
	v, err := p.Value(url.Values{"ratio": {"1e-3"}})
	require.NoError(t, err)
	assert.Equal(t, 0.001, v)
	assert.Equal(t, "0.5", p.Describe().Default)
}

func TestCaseInsensitiveString(t *testing.T) {
	p := CaseInsensitiveString("name", "", "Default")
	assert.Equal(t, "default", p.Default())

	v, err := p.Value(url.Values{"name": {"MiXeD"}})
	require.NoError(t, err)
	assert.Equal(t, "mixed", v)
	assert.False(t, p.Specified(url.Values{"name": {"DEFAULT"}}))
}

func TestEnum(t *testing.T) {
	p := Enum("transform", "How to transform", "none", transforms...)

	v, err := p.Value(url.Values{"transform": {"UPPER"}})
	require.NoError(t, err)
	assert.Equal(t, "upper", v)

	_, err = p.Value(url.Values{"transform": {"reverse"}})
	var invalid *InvalidValueError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "transform", invalid.Name)

	desc := p.Describe()
	assert.Equal(t, "enum", desc.Type)
	assert.Equal(t, "none", desc.Default)
	require.Len(t, desc.Values, 3)
	assert.Equal(t, "upper", desc.Values[1].Name)
}

func TestChoice_FallsBackToDefault(t *testing.T) {
	p := Choice("responseFormat", "", "xml", Value{Name: "xml"}, Value{Name: "json"}, Value{Name: "direct"})

	v, err := p.Value(url.Values{"responseFormat": {"JSON"}})
	require.NoError(t, err)
	assert.Equal(t, "json", v)

	v, err = p.Value(url.Values{"responseFormat": {"yaml"}})
	require.NoError(t, err)
	assert.Equal(t, "xml", v)
	assert.False(t, p.Specified(url.Values{"responseFormat": {"yaml"}}))
}

func TestEnumSet(t *testing.T) {
	p := EnumSet("transforms", "", nil, transforms...)

	v, err := p.Value(url.Values{"transforms": {"Upper; bogus ,lower:upper"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"upper", "lower"}, v)
	assert.Equal(t, "upper,lower", p.Format(v))
	assert.True(t, p.Specified(url.Values{"transforms": {"none"}}))
}

func TestStringList(t *testing.T) {
	p := StringList("tags", "", []string{"a"})

	v, err := p.Value(url.Values{"tags": {" red , green;blue:: "}})
	require.NoError(t, err)
	assert.Equal(t, []string{"red", "green", "blue"}, v)

	assert.False(t, p.Specified(url.Values{"tags": {" a "}}))
	assert.Equal(t, "a", p.Describe().Default)
}

func TestVersion(t *testing.T) {
	p := Version("since", "", nil)
	assert.Empty(t, p.Describe().Default)

	v, err := p.Value(url.Values{"since": {"v1.2"}})
	require.NoError(t, err)
	assert.True(t, v.Equal(semver.MustParse("1.2.0")))
	assert.True(t, p.Specified(url.Values{"since": {"1.2.0"}}))

	_, err = p.Value(url.Values{"since": {"one.two"}})
	var invalid *InvalidValueError
	require.ErrorAs(t, err, &invalid)
	assert.NotEmpty(t, invalid.Reason)

	withDefault := Version("since", "", semver.MustParse("1.0.0"))
	assert.False(t, withDefault.Specified(url.Values{"since": {"v1.0.0"}}))
}

func TestExample(t *testing.T) {
	setting := StringList("tags", "", nil).Example([]string{"x", "y"})
	assert.Equal(t, Setting{Name: "tags", Value: "x,y"}, setting)
}

func TestGroup_IsSpecified(t *testing.T) {
	message := String("message", "", "")
	tags := StringList("tags", "", nil)
	g := NewGroup("tagged", "Message with tags", message, tags)

	assert.False(t, g.IsSpecified(url.Values{"message": {"hi"}}))
	assert.True(t, g.IsSpecified(url.Values{"message": {"hi"}, "tags": {"a"}}))
	assert.False(t, NewGroup("empty", "").IsSpecified(url.Values{"x": {"1"}}))

	desc := g.Describe()
	assert.Equal(t, "tagged", desc.Name)
	require.Len(t, desc.Parameters, 2)
	assert.Equal(t, "stringList", desc.Parameters[1].Type)
}
