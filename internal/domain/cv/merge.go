package cv

import (
	"encoding/json"
	"fmt"
)

// MergePatch applies an RFC 7396 merge patch to a stored document and returns the canonical
// encoding of the result. Objects merge recursively, arrays and scalars replace, null deletes.
func MergePatch(doc []byte, patch []byte) ([]byte, error) {
	var target any
	if len(doc) > 0 {
		if err := json.Unmarshal(doc, &target); err != nil {
			return nil, fmt.Errorf("decode stored cv: %w", err)
		}
	}

	var p any
	if err := json.Unmarshal(patch, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCV, err)
	}
	if _, ok := p.(map[string]any); !ok {
		return nil, fmt.Errorf("%w: patch must be a JSON object", ErrInvalidCV)
	}

	merged, err := json.Marshal(mergeValue(target, p))
	if err != nil {
		return nil, err
	}

	c, err := Decode(merged)
	if err != nil {
		return nil, err
	}
	return Encode(c)
}

func mergeValue(target, patch any) any {
	pm, ok := patch.(map[string]any)
	if !ok {
		return patch
	}

	tm, ok := target.(map[string]any)
	if !ok {
		tm = map[string]any{}
	}

	out := make(map[string]any, len(tm)+len(pm))
	for k, v := range tm {
		out[k] = v
	}
	for k, v := range pm {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = mergeValue(out[k], v)
	}
	return out
}
