package dto

import (
	"encoding/json"
	"fmt"

	"github.com/horockey/kvstore/internal/model"
)

// SetKV is the body of POST /store and PUT /store/{key}.
// Value stays raw so an absent field can be told apart from null.
type SetKV struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

type KV[V any] struct {
	Key   string `json:"key"`
	Value V      `json:"value"`
}

type Keys struct {
	Keys []string `json:"keys"`
}

func SetKVToModel[V any](req SetKV) (model.KVPair[V], error) {
	if len(req.Value) == 0 {
		return model.KVPair[V]{}, model.ValidationError{Field: "value", Reason: "is required"}
	}

	res := model.KVPair[V]{Key: req.Key}
	if err := json.Unmarshal(req.Value, &res.Value); err != nil {
		return model.KVPair[V]{}, model.ValidationError{
			Field:  "value",
			Reason: fmt.Sprintf("malformed: %v", err),
		}
	}

	return res, nil
}

func NewKV[V any](kvp model.KVPair[V]) KV[V] {
	return KV[V]{
		Key:   kvp.Key,
		Value: kvp.Value,
	}
}
