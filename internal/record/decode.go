package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"sigs.k8s.io/yaml"
)

// Decode parses a JSON or YAML array of objects into a Dataset validated against
// the schema. The first malformed record aborts decoding.
func Decode(schema *Schema, data []byte) (Dataset, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty document")
	}

	if trimmed[0] != '[' && trimmed[0] != '{' {
		converted, err := yaml.YAMLToJSON(trimmed)
		if err != nil {
			return nil, fmt.Errorf("parse %s document: %w", schema.Name, err)
		}
		trimmed = converted
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var raw []map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse %s document: %w", schema.Name, err)
	}

	ds := make(Dataset, 0, len(raw))
	for i, item := range raw {
		rec, err := schema.NewRecord(item)
		if err != nil {
			var malformed *MalformedRecordError
			if errors.As(err, &malformed) {
				malformed.Index = i + 1
			}
			return nil, err
		}
		ds = append(ds, rec)
	}
	return ds, nil
}

// Encode writes a Dataset as an indented JSON array.
func Encode(ds Dataset) ([]byte, error) {
	if ds == nil {
		ds = Dataset{}
	}
	return json.MarshalIndent(ds, "", "  ")
}
