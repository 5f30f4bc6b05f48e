package index

import (
	"encoding/json"
	"fmt"
	"os"
)

// ReadFileIndex reads a file index from a JSON file.
func ReadFileIndex(filename string) (*FileIndex, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	var spec FileIndex
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return &spec, nil
}

// WriteFileIndex writes a file index as canonical JSON.  Writing the result
// of ReadFileIndex reproduces the input bytes.
func WriteFileIndex(filename string, spec *FileIndex) error {
	data, err := MarshalFileIndex(spec)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o644)
}

// MarshalFileIndex renders a file index as canonical JSON bytes.
func MarshalFileIndex(spec *FileIndex) ([]byte, error) {
	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	return append(data, '\n'), nil
}
