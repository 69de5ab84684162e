package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/moyoez/localsend-uploader/types"
)

func TestResolveExtraDataAbsent(t *testing.T) {
	resolved := ResolveExtraData(types.ExtraData{})
	assert.True(t, resolved.IsEmpty())
	assert.Empty(t, resolved.Fields)
	assert.False(t, resolved.HasBlob)
}

func TestResolveExtraDataFieldsKeepOrder(t *testing.T) {
	extra := types.FieldsData(
		types.ExtraField{Name: "tag", Value: types.NumberValue(1)},
		types.ExtraField{Name: "pinned", Value: types.BoolValue(true)},
		types.ExtraField{Name: "archived", Value: types.BoolValue(false)},
		types.ExtraField{Name: "ratio", Value: types.NumberValue(2.5)},
		types.ExtraField{Name: "big", Value: types.NumberValue(1e6)},
		types.ExtraField{Name: "neg", Value: types.NumberValue(-3)},
	)

	resolved := ResolveExtraData(extra)

	assert.False(t, resolved.HasBlob)
	assert.Equal(t, []types.FormField{
		{Name: "tag", Value: "1"},
		{Name: "pinned", Value: "true"},
		{Name: "archived", Value: "false"},
		{Name: "ratio", Value: "2.5"},
		{Name: "big", Value: "1000000"},
		{Name: "neg", Value: "-3"},
	}, resolved.Fields)
}

func TestResolveExtraDataReverseOrder(t *testing.T) {
	resolved := ResolveExtraData(types.FieldsData(
		types.ExtraField{Name: "z", Value: types.NumberValue(0)},
		types.ExtraField{Name: "a", Value: types.NumberValue(0)},
	))
	assert.Equal(t, "z", resolved.Fields[0].Name)
	assert.Equal(t, "a", resolved.Fields[1].Name)
}

func TestResolveExtraDataBlobIsNotSplit(t *testing.T) {
	blob := `{"tag":1,"pinned":true}&x=y`
	resolved := ResolveExtraData(types.BlobData(blob))

	assert.True(t, resolved.HasBlob)
	assert.Equal(t, blob, resolved.Blob)
	assert.Empty(t, resolved.Fields)
}

func TestResolveExtraDataEmptyInputs(t *testing.T) {
	assert.True(t, ResolveExtraData(types.FieldsData()).IsEmpty())

	empty := ResolveExtraData(types.BlobData(""))
	assert.True(t, empty.HasBlob)
	assert.Equal(t, "", empty.Blob)
}

func TestResolveExtraDataIsDeterministic(t *testing.T) {
	extra := types.FieldsData(
		types.ExtraField{Name: "a", Value: types.NumberValue(1)},
		types.ExtraField{Name: "b", Value: types.BoolValue(true)},
	)
	assert.Equal(t, ResolveExtraData(extra), ResolveExtraData(extra))
}
