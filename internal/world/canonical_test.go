package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func canonical(t *testing.T, v any) string {
	t.Helper()
	b, err := MarshalCanonical(v)
	require.NoError(t, err)
	return string(b)
}

func TestMarshalCanonicalScalars(t *testing.T) {
	assert.Equal(t, "null", canonical(t, nil))
	assert.Equal(t, "null", canonical(t, Null{}))
	assert.Equal(t, `"key"`, canonical(t, Str("key")))
	assert.Equal(t, "-42", canonical(t, Int(-42)))
	assert.Equal(t, "true", canonical(t, Bool(true)))
	assert.Equal(t, "7", canonical(t, 7))
	assert.Equal(t, "7", canonical(t, int64(7)))
	assert.Equal(t, "false", canonical(t, false))
}

func TestMarshalCanonicalSortsKeysByUTF16(t *testing.T) {
	// U+10000 encodes to the surrogate pair D800 DC00, which sorts
	// before U+FB00 in UTF-16 code units. UTF-8 byte order would put
	// them the other way around.
	supplementary := string(rune(0x10000))
	ligature := string(rune(0xFB00))
	obj := map[string]any{
		ligature:      1,
		supplementary: 2,
	}
	assert.Equal(t, `{"`+supplementary+`":2,"`+ligature+`":1}`, canonical(t, obj))
}

func TestMarshalCanonicalDoesNotEscapeHTML(t *testing.T) {
	assert.Equal(t, `"<a>&</a>"`, canonical(t, "<a>&</a>"))
}

func TestMarshalCanonicalNormalizesNFC(t *testing.T) {
	// "e" + combining acute accent normalizes to the precomposed U+00E9.
	decomposed := "e" + string(rune(0x0301))
	composed := string(rune(0x00E9))
	assert.Equal(t, `"`+composed+`"`, canonical(t, decomposed))
	assert.Equal(t, canonical(t, composed), canonical(t, decomposed))
}

func TestMarshalCanonicalEscapes(t *testing.T) {
	assert.Equal(t, `"a\"b\\c"`, canonical(t, `a"b\c`))
	assert.Equal(t, `"line\nbreak\ttab"`, canonical(t, "line\nbreak\ttab"))
	assert.Equal(t, "\"\\u0001\"", canonical(t, string(rune(0x01))))
}

func TestMarshalCanonicalRejectsFloats(t *testing.T) {
	_, err := MarshalCanonical(3.14)
	require.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"x": float64(1)})
	require.Error(t, err)

	_, err = MarshalCanonical([]any{float32(2)})
	require.Error(t, err)
}

func TestMarshalCanonicalRejectsUnsupportedTypes(t *testing.T) {
	_, err := MarshalCanonical(struct{}{})
	require.Error(t, err)

	_, err = MarshalCanonical(map[int]any{1: "x"})
	require.Error(t, err)
}

func TestMarshalCanonicalNested(t *testing.T) {
	obj := map[string]any{
		"b": []any{1, "two", true, nil},
		"a": map[string]any{"z": 1, "y": 2},
	}
	assert.Equal(t, `{"a":{"y":2,"z":1},"b":[1,"two",true,null]}`, canonical(t, obj))
}
