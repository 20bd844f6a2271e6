// Package declarations loads the static registry declaration: the resource catalog,
// the effect registry, the page map and the polling policy.
package declarations

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"os"
	"slices"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.trai.ch/stashsync/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

//go:embed registry.yaml
var defaultDeclaration []byte

//go:embed registry.schema.json
var schemaSource []byte

const schemaURL = "https://go.trai.ch/stashsync/registry.schema.json"

// Loader implements ports.DeclarationLoader.
// A zero Path loads the declaration embedded in the binary.
type Loader struct {
	Path string
}

// NewLoader creates a Loader for the embedded declaration.
func NewLoader() *Loader {
	return &Loader{}
}

// NewFileLoader creates a Loader that reads the declaration from path.
func NewFileLoader(path string) *Loader {
	return &Loader{Path: path}
}

// Load reads, shape-checks and converts the declaration.
// Closed-world checks are left to the registry.
func (l *Loader) Load() (*domain.Declarations, error) {
	data := defaultDeclaration
	if l.Path != "" {
		var err error
		data, err = os.ReadFile(l.Path)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrDeclarationReadFailed.Error()), "path", l.Path)
		}
	}
	return Parse(data)
}

// Default returns the embedded declaration source.
func Default() []byte {
	return slices.Clone(defaultDeclaration)
}

// Parse validates data against the declaration schema and converts it to domain types.
func Parse(data []byte) (*domain.Declarations, error) {
	if err := checkSchema(data); err != nil {
		return nil, err
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, zerr.Wrap(err, domain.ErrDeclarationParseFailed.Error())
	}
	return doc.toDomain(), nil
}

func checkSchema(data []byte) error {
	// The schema validator works on JSON values, so the YAML tree is
	// re-encoded as JSON before validation.
	var tree any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return zerr.Wrap(err, domain.ErrDeclarationParseFailed.Error())
	}
	raw, err := json.Marshal(tree)
	if err != nil {
		return zerr.Wrap(err, domain.ErrDeclarationParseFailed.Error())
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return zerr.Wrap(err, domain.ErrDeclarationParseFailed.Error())
	}

	schema, err := compileSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(inst); err != nil {
		return zerr.Wrap(err, domain.ErrDeclarationSchemaFailed.Error())
	}
	return nil
}

func compileSchema() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaSource))
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrDeclarationSchemaFailed.Error())
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, zerr.Wrap(err, domain.ErrDeclarationSchemaFailed.Error())
	}
	schema, err := c.Compile(schemaURL)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrDeclarationSchemaFailed.Error())
	}
	return schema, nil
}

func (d *Document) toDomain() *domain.Declarations {
	decl := &domain.Declarations{
		Resources:  make(map[domain.ResourceName]domain.ResourceConfig, len(d.Resources)),
		Operations: make(map[domain.WriteOperation]domain.EffectEntry, len(d.Operations)),
		Pages:      make(map[domain.PageName]domain.PageConfig, len(d.Pages)),
		Polling: domain.PollConfig{
			Interval:          millis(d.Polling.PollIntervalMs),
			PollableResources: names(d.Polling.PollableResources),
		},
	}

	for name, dto := range d.Resources {
		decl.Resources[domain.ResourceName(name)] = domain.ResourceConfig{
			FreshnessWindow: millis(dto.FreshnessWindowMs),
			RetentionWindow: millis(dto.RetentionWindowMs),
			Pollable:        dto.Pollable,
			DependsOn:       names(dto.DependsOn),
		}
	}
	for op, dto := range d.Operations {
		decl.Operations[domain.WriteOperation(op)] = domain.EffectEntry{
			Invalidate: names(dto.Invalidate),
			MarkStale:  names(dto.MarkStale),
		}
	}
	for page, dto := range d.Pages {
		decl.Pages[domain.PageName(page)] = domain.PageConfig{
			Primary:    names(dto.Primary),
			Supporting: names(dto.Supporting),
			SyncScope:  domain.SyncScope(dto.SyncScope),
		}
	}
	return decl
}

func millis(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func names(in []string) []domain.ResourceName {
	out := make([]domain.ResourceName, 0, len(in))
	for _, s := range in {
		out = append(out, domain.ResourceName(s))
	}
	return out
}
