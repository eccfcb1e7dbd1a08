package remote

import (
	"encoding/json"
	"fmt"
)

// Decode unmarshals one raw document into T.
func Decode[T any](raw json.RawMessage) (*T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, decodeFailure("decode document", err)
	}
	return &v, nil
}

// DecodeList unmarshals every document of a listing into T, keeping order.
func DecodeList[T any](list *DocumentList) ([]T, error) {
	if list == nil {
		return nil, nil
	}
	out := make([]T, 0, len(list.Documents))
	for i, raw := range list.Documents {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, decodeFailure(fmt.Sprintf("decode document %d", i), err)
		}
		out = append(out, v)
	}
	return out, nil
}
