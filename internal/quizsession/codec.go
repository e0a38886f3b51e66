package quizsession

import (
	"encoding/json"
	"fmt"
)

// Both stores keep records as JSON, so every Get returns an independent copy.

func encode(rec Record) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode quiz session: %w", err)
	}
	return data, nil
}

func decode(data []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("decode quiz session: %w", err)
	}
	if rec.Session == nil || len(rec.Session.Questions) == 0 {
		return Record{}, fmt.Errorf("decode quiz session: no questions")
	}
	return rec, nil
}
