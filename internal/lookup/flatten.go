package lookup

import (
	"strconv"

	"github.com/spf13/cast"
	"github.com/tidwall/gjson"
)

// Flatten turns a JSON document into dotted attribute names. Nested objects
// and arrays containing objects or arrays are walked with the key or index
// appended to the name. Arrays of plain values are stored whole as a
// []string. With ignoreBlanks, nulls, empty strings and empty arrays are
// dropped.
func Flatten(doc gjson.Result, ignoreBlanks bool) *Fields {
	fields := NewFields()
	flatten(doc, "", fields, ignoreBlanks)
	return fields
}

func flatten(item gjson.Result, name string, fields *Fields, ignoreBlanks bool) {
	prefix := name
	if prefix != "" {
		prefix += "."
	}

	switch {
	case item.IsObject():
		item.ForEach(func(key, value gjson.Result) bool {
			flatten(value, prefix+key.String(), fields, ignoreBlanks)
			return true
		})

	case ignoreBlanks && isBlank(item):

	case item.IsArray() && !nested(item):
		values := item.Array()
		if len(values) == 0 && ignoreBlanks {
			return
		}
		list := make([]string, 0, len(values))
		for _, v := range values {
			list = append(list, cast.ToString(v.Value()))
		}
		fields.Set(name, list)

	case item.IsArray():
		for i, v := range item.Array() {
			flatten(v, prefix+strconv.Itoa(i), fields, ignoreBlanks)
		}

	case item.Type == gjson.True || item.Type == gjson.False:
		fields.Set(name, item.Bool())

	case item.Type == gjson.Null:
		fields.Set(name, nil)

	default:
		fields.Set(name, cast.ToString(item.Value()))
	}
}

func isBlank(item gjson.Result) bool {
	return item.Type == gjson.Null || (item.Type == gjson.String && item.Str == "")
}

// nested reports whether an array holds objects or arrays.
func nested(array gjson.Result) bool {
	found := false
	array.ForEach(func(_, value gjson.Result) bool {
		found = value.IsObject() || value.IsArray()
		return !found
	})
	return found
}
