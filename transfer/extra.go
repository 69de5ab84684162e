package transfer

import (
	"strconv"

	"github.com/moyoez/localsend-uploader/types"
)

// ResolveExtraData turns extraData into the fields attached to every submission of a batch.
// It never fails: absent data resolves to nothing, a string stays one opaque blob.
func ResolveExtraData(extra types.ExtraData) types.ResolvedFields {
	switch extra.Kind() {
	case types.ExtraDataBlob:
		return types.ResolvedFields{Blob: extra.Blob(), HasBlob: true}
	case types.ExtraDataFields:
		entries := extra.Fields()
		fields := make([]types.FormField, 0, len(entries))
		for _, entry := range entries {
			fields = append(fields, types.FormField{Name: entry.Name, Value: formatScalar(entry.Value)})
		}
		return types.ResolvedFields{Fields: fields}
	default:
		return types.ResolvedFields{}
	}
}

func formatScalar(v types.ExtraValue) string {
	if v.Kind() == types.ScalarBool {
		return strconv.FormatBool(v.Bool())
	}
	return strconv.FormatFloat(v.Number(), 'f', -1, 64)
}
