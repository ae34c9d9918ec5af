package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Mapping holds the nodes of a conversation in the order they appear in the
// source record. A Go map would lose that order, and ties in message time
// fall back to it.
type Mapping []Node

// UnmarshalJSON decodes a JSON object of node-id to node, keeping key order.
// Values that are not objects are kept as empty structural nodes.
func (m *Mapping) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode mapping: %w", err)
	}
	if tok == nil {
		*m = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("decode mapping: expected object, got %v", tok)
	}

	var nodes Mapping
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode mapping key: %w", err)
		}
		key, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decode mapping node %q: %w", key, err)
		}

		node := Node{Key: key}
		if isObject(raw) {
			if err := json.Unmarshal(raw, &node); err != nil {
				return fmt.Errorf("decode mapping node %q: %w", key, err)
			}
			node.Key = key
		}
		nodes = append(nodes, node)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decode mapping: %w", err)
	}

	*m = nodes
	return nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
