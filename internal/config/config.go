// Package config reads pipeline configuration files. A config file is a
// YAML list of stages, each a single-key map from stage name to options.
// It is validated against an embedded CUE schema and translated into the
// argument vector the command line would take.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// ErrUnknownLiteral is returned when an option value is neither a bool, a
// string nor a list of strings.
var ErrUnknownLiteral = errors.New("unknown literal type")

// Config is the content of a pipeline config file.
type Config struct {
	name    string
	content []byte
}

// Read loads the config file at path.
func Read(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return New(path, content), nil
}

// New wraps content read from name.
func New(name string, content []byte) *Config {
	return &Config{name: name, content: content}
}

// Name returns the file name the config was read from.
func (c *Config) Name() string {
	return c.name
}

// Issue is a single schema violation.
type Issue struct {
	Pos     token.Pos
	Message string
}

func (i Issue) String() string {
	if i.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", i.Pos.Filename(), i.Pos.Line(), i.Pos.Column(), i.Message)
	}
	return i.Message
}

// ValidationError lists every schema violation found in a config file.
type ValidationError struct {
	Name   string
	Issues []Issue
}

func (e *ValidationError) Error() string {
	lines := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		lines[i] = issue.String()
	}
	return fmt.Sprintf("invalid config %s:\n  %s", e.Name, strings.Join(lines, "\n  "))
}

// Validate checks the config against the pipeline schema. Violations are
// reported as a *ValidationError.
func (c *Config) Validate() error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	file, err := cueyaml.Extract(c.name, c.content)
	if err != nil {
		return c.validationError(err)
	}
	data := ctx.BuildFile(file)
	if err := data.Err(); err != nil {
		return c.validationError(err)
	}

	pipeline := schema.LookupPath(cue.ParsePath("#Pipeline")).Unify(data)
	if err := pipeline.Validate(cue.Concrete(true)); err != nil {
		return c.validationError(err)
	}
	return nil
}

// validationError extracts positioned messages from CUE errors.
func (c *Config) validationError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &ValidationError{Name: c.name, Issues: []Issue{{Message: err.Error()}}}
	}

	issues := make([]Issue, 0, len(errs))
	for _, e := range errs {
		issue := Issue{Message: e.Error()}
		if positions := cueerrors.Positions(e); len(positions) > 0 {
			issue.Pos = positions[0]
		}
		issues = append(issues, issue)
	}
	return &ValidationError{Name: c.name, Issues: issues}
}

// Args translates the config into an argument vector: each stage name
// followed by its options. A true bool becomes "--name", a false bool is
// dropped, a string becomes "--name value" and a list repeats the pair
// for every element.
func (c *Config) Args() ([]string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(c.content, &doc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", c.name, err)
	}
	if doc.Kind == 0 {
		return nil, nil
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 || doc.Content[0].Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("config %s: expected a list of stages", c.name)
	}

	var args []string
	for _, item := range doc.Content[0].Content {
		if item.Kind != yaml.MappingNode || len(item.Content) != 2 {
			return nil, fmt.Errorf("config %s:%d: each stage must be a single-key map", c.name, item.Line)
		}
		command, options := item.Content[0], item.Content[1]
		args = append(args, command.Value)

		if options.Kind != yaml.MappingNode {
			// An empty stage ("- merge:") decodes as null.
			if options.Tag == "!!null" {
				continue
			}
			return nil, fmt.Errorf("config %s:%d: options of %s must be a map", c.name, options.Line, command.Value)
		}

		for i := 0; i < len(options.Content); i += 2 {
			name, value := options.Content[i].Value, options.Content[i+1]
			var literal any
			if err := value.Decode(&literal); err != nil {
				return nil, fmt.Errorf("config %s:%d: %s: %w", c.name, value.Line, name, err)
			}
			opt, err := optionArgs(name, literal)
			if err != nil {
				return nil, fmt.Errorf("config %s:%d: %w", c.name, value.Line, err)
			}
			args = append(args, opt...)
		}
	}
	return args, nil
}

func optionArgs(name string, literal any) ([]string, error) {
	flag := "--" + name
	switch v := literal.(type) {
	case bool:
		if v {
			return []string{flag}, nil
		}
		return nil, nil
	case string:
		return []string{flag, v}, nil
	case []any:
		args := make([]string, 0, 2*len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s: %T in list", ErrUnknownLiteral, name, item)
			}
			args = append(args, flag, s)
		}
		return args, nil
	default:
		return nil, fmt.Errorf("%w: %s: %T", ErrUnknownLiteral, name, literal)
	}
}
