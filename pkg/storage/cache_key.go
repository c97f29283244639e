package storage

import (
	"encoding/json"
	"fmt"

	"netfusion-go/pkg/utils"
)

// DeriveKey builds a cache key from namespace and a normalised parameter
// value. params is serialised with encoding/json, which writes struct fields
// in declaration order and map keys sorted, so equal inputs always produce
// the same key. Callers must leave request metadata (timestamps, request ids)
// out of params.
func DeriveKey(namespace string, params any) (string, error) {
	data, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to serialise cache key params: %w", err)
	}
	return namespace + ":" + utils.Fingerprint(data), nil
}
