package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"keksly-go/internal/keksly"
)

// File reads an override document from disk. Files ending in .yaml or .yml
// are decoded as YAML, everything else as JSON.
type File struct {
	Path   string
	Logger keksly.Logger
}

func NewFile(path string) *File {
	return &File{Path: path}
}

func (s *File) Fetch(ctx context.Context) (*keksly.PartialConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".yaml", ".yml":
		return decodeYAML(data, s.Logger)
	default:
		return decodeJSON(data, s.Logger)
	}
}

// DecodeYAML decodes an override document written in YAML.
func DecodeYAML(data []byte) (*keksly.PartialConfig, error) {
	return decodeYAML(data, nil)
}

var _ keksly.ConfigSource = (*File)(nil)
