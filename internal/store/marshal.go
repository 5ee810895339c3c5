package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/branchless/internal/ir"
)

// marshalProgram serializes a program to canonical JSON.
func marshalProgram(p ir.Program) (string, error) {
	m, err := ir.ToCanonicalMap(p)
	if err != nil {
		return "", fmt.Errorf("marshal program: %w", err)
	}
	data, err := ir.MarshalCanonical(m)
	if err != nil {
		return "", fmt.Errorf("marshal program: %w", err)
	}
	return string(data), nil
}

// unmarshalProgram parses a stored program.
func unmarshalProgram(data string) (ir.Program, error) {
	var p ir.Program
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return ir.Program{}, fmt.Errorf("unmarshal program: %w", err)
	}
	return p, nil
}
