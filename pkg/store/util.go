package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

var errAlreadyFinished = errors.New("transaction already finished")

// recordKey builds the physical key for a plain record.
func recordKey(key string) []byte {
	return []byte("r/" + key)
}

// listHeaderKey builds the physical key for a list's header record.
func listHeaderKey(listKey string) []byte {
	return []byte("l/" + listKey)
}

// listItemKey builds the physical key for one list item. Sequence
// numbers are zero-padded so Badger iterates them in order.
func listItemKey(listKey string, seq int64) []byte {
	return []byte(fmt.Sprintf("l/%s/%020d", listKey, seq))
}

// listHeader tracks a list's allocation state. Items are written at
// ascending sequence numbers; the newest item holds NextSeq-1, so the
// item at list position i lives at sequence NextSeq-1-i.
type listHeader struct {
	NextSeq int64 `json:"next_seq"`
	Length  int   `json:"length"`
}

func marshalValue(value interface{}) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal value: %w", err)
	}
	return data, nil
}

func unmarshalValue(data []byte, out interface{}) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal value: %w", err)
	}
	return nil
}

// matchesCriteria reports whether every criteria entry equals the
// corresponding field of the JSON-decoded item.
func matchesCriteria(raw []byte, criteria map[string]interface{}) bool {
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return false
	}
	for k, want := range criteria {
		got, ok := fields[k]
		if !ok {
			return false
		}
		// JSON numbers decode as float64; normalize the criteria side
		// so callers can pass ints.
		switch w := want.(type) {
		case int:
			want = float64(w)
		case int64:
			want = float64(w)
		}
		if !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

// sliceBounds clamps (offset, limit) against a list length; a limit of
// zero means "to the end".
func sliceBounds(length, offset, limit int) (start, end int) {
	if offset < 0 {
		offset = 0
	}
	if offset > length {
		offset = length
	}
	end = length
	if limit > 0 && offset+limit < length {
		end = offset + limit
	}
	return offset, end
}
