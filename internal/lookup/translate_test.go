package lookup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	fields := NewFields()
	fields.Set("objects.LINOD.contact.0.name", "John Doe")
	fields.Set("objects.NETWK.contact.1.name", "Jane Doe")
	fields.Set("objects.LINOD.contact.0.address", "123 Neverland")
	fields.Set("asn", "63949")

	out, err := Translate(fields, []Rule{
		{Pattern: "objects.*.contact.*.name", Key: "contact.name"},
		{Pattern: "objects.*.contact.*.address", Key: "contact.address"},
	})
	require.NoError(t, err)

	names, _ := out.Get("contact.name")
	assert.Equal(t, []any{"John Doe", "Jane Doe"}, names)
	address, _ := out.Get("contact.address")
	assert.Equal(t, "123 Neverland", address)
	asn, _ := out.Get("asn")
	assert.Equal(t, "63949", asn)
}

func TestTranslateRemoveParts(t *testing.T) {
	fields := NewFields()
	fields.Set("objects.LINOD.contact.name", "Luke Murphey")

	out, err := Translate(fields, []Rule{{Pattern: "objects.*.contact.name", Key: "contact.name"}})
	require.NoError(t, err)

	v, _ := out.Get("contact.name")
	assert.Equal(t, "Luke Murphey", v)
}

func TestTranslateKey(t *testing.T) {
	key, ok, err := TranslateKey("AAAAAcontactBBBBB", []Rule{{Pattern: "AAAAA*BBBBB", Key: "contact.name"}})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "contact.name", key)

	key, ok, err = TranslateKey("objects.LINOD.contact.name", []Rule{{Pattern: "objects.*.contact.name", Key: "contact.name"}})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "contact.name", key)

	// Dots are literal.
	_, ok, err = TranslateKey("objectsXLINODXcontactXname", []Rule{{Pattern: "objects.*.contact.name", Key: "contact.name"}})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWildcardExpr(t *testing.T) {
	assert.Equal(t, `objects\..*\.contact\.name`, WildcardExpr("objects.*.contact.name"))
}

func TestMergeValues(t *testing.T) {
	tests := []struct {
		name          string
		first, second any
		want          any
	}{
		{"first nil", nil, []string{"A"}, []string{"A"}},
		{"second nil", []string{"A"}, nil, []string{"A"}},
		{"array and value", []string{"A"}, "B", []any{"A", "B"}},
		{"value and array", "A", []string{"B"}, []any{"A", "B"}},
		{"both arrays", []string{"A", "B"}, []string{"C", "D"}, []any{"A", "B", "C", "D"}},
		{"both values", "A", "B", []any{"A", "B"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeValues(tt.first, tt.second))
		})
	}
}
