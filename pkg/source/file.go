package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ritzau/coupling-analyzer/pkg/analysis/api"
	"github.com/ritzau/coupling-analyzer/pkg/config"
	"github.com/ritzau/coupling-analyzer/pkg/logging"
	"github.com/ritzau/coupling-analyzer/pkg/model"
)

// ErrUnsupportedFormat is returned for model files that are neither JSON nor YAML
var ErrUnsupportedFormat = errors.New("unsupported model file format")

// ErrMalformedModel is returned for model documents with null entries
var ErrMalformedModel = errors.New("malformed model")

// VoidType is the name the parser gives to the receiver of a chained call
const VoidType = "void"

// FileSource implements api.Source for a pre-parsed model file (.json, .yaml, .yml)
type FileSource struct {
	path string
}

// NewFileSource creates a source reading the given path. An empty path means
// cfg.Source is used at load time.
func NewFileSource(path string) api.Source {
	return &FileSource{path: path}
}

func (s *FileSource) Name() string {
	return "ModelFile"
}

func (s *FileSource) Load(ctx context.Context, cfg *config.Config) (*model.Project, error) {
	path := s.path
	if path == "" && cfg != nil {
		path = cfg.Source
	}
	if path == "" {
		return nil, fmt.Errorf("no model file given")
	}

	logger := logging.New("source.file")
	logger.Info("Loading model", "path", path)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model: %w", err)
	}

	project, err := Decode(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if project.Name == "" {
		project.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	logger.Info("Model loaded",
		"types", len(project.Types),
		"methods", len(project.Methods()),
		"invocations", project.InvocationCount())
	return project, nil
}

// Decode parses a model document. The extension selects the format.
func Decode(data []byte, ext string) (*model.Project, error) {
	var project model.Project

	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &project); err != nil {
			return nil, fmt.Errorf("parsing JSON model: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &project); err != nil {
			return nil, fmt.Errorf("parsing YAML model: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	if err := check(&project); err != nil {
		return nil, err
	}
	Normalize(&project)
	return &project, nil
}

// check rejects null types, methods and invocations
func check(p *model.Project) error {
	for i, t := range p.Types {
		if t == nil {
			return fmt.Errorf("%w: type %d is null", ErrMalformedModel, i)
		}
		for j, m := range t.Methods {
			if m == nil {
				return fmt.Errorf("%w: method %d of %s is null", ErrMalformedModel, j, t.QualifiedName)
			}
			for k, inv := range m.Invocations {
				if inv == nil {
					return fmt.Errorf("%w: invocation %d of %s.%s is null", ErrMalformedModel, k, t.QualifiedName, m.Name)
				}
			}
		}
	}
	return nil
}

// Normalize fills in owners missing from methods and marks void receivers
// as synthetic, so resolution falls through to the accessed type.
func Normalize(p *model.Project) {
	for _, t := range p.Types {
		for _, m := range t.Methods {
			if m.DeclaringType == "" {
				m.DeclaringType = t.QualifiedName
			}
			for _, inv := range m.Invocations {
				markVoid(inv.Receiver.Type)
				markVoid(inv.Receiver.AccessedType)
			}
		}
	}
}

func markVoid(ref *model.TypeRef) {
	if ref != nil && ref.QualifiedName == VoidType {
		ref.Synthetic = true
	}
}
