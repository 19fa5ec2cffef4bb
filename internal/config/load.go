package config

import (
	"os"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/jander99/overture-sub000/internal/errors"
	"github.com/jander99/overture-sub000/pkg/fileutil"
)

// yamlPosRe extracts the 1-indexed line (and column, when the parser
// provides one) from a yaml.v3 error message.
var yamlPosRe = regexp.MustCompile(`line (\d+)(?:, column (\d+))?`)

// Load reads, parses, and validates a canonical config file.
//
// A missing file returns an error satisfying errors.Is(err, errors.ErrNotFound).
// Parse failures return a *errors.LoadError with line/column when derivable.
// Schema violations return a *ValidationError.
func Load(path string) (*DeclaredConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrNotFound, "config file %s", path)
		}
		return nil, &errors.LoadError{Path: path, Err: err}
	}

	return Parse(path, data)
}

// LoadOptional is Load, except a missing file yields (nil, nil).
// Parse and validation failures are still errors; only absence is optional.
func LoadOptional(path string) (*DeclaredConfig, error) {
	if path == "" {
		return nil, nil
	}
	cfg, err := Load(path)
	if err != nil && errors.Is(err, errors.ErrNotFound) {
		return nil, nil
	}
	return cfg, err
}

// Parse parses and validates config data. The path is used for error
// reporting only.
func Parse(path string, data []byte) (*DeclaredConfig, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		le := &errors.LoadError{Path: path, Err: err}
		le.Line, le.Column = yamlErrorPosition(err)
		return nil, le
	}

	if issues := Validate(&root); len(issues) > 0 {
		return nil, &ValidationError{File: path, Issues: issues}
	}

	var cfg DeclaredConfig
	if err := root.Decode(&cfg); err != nil {
		le := &errors.LoadError{Path: path, Err: err}
		le.Line, le.Column = yamlErrorPosition(err)
		return nil, le
	}

	if cfg.MCP == nil {
		cfg.MCP = make(map[string]*ServerDecl)
	}

	return &cfg, nil
}

// Save writes a canonical config atomically as YAML.
func Save(path string, cfg *DeclaredConfig) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	return errors.Wrapf(fileutil.AtomicWriteYAML(path, cfg), "saving %s", path)
}

// yamlErrorPosition extracts 1-indexed line/column from a yaml.v3 error.
// Column defaults to 1 when the parser reports only a line.
func yamlErrorPosition(err error) (line, column int) {
	var typeErr *yaml.TypeError
	msg := err.Error()
	if errors.As(err, &typeErr) && len(typeErr.Errors) > 0 {
		msg = typeErr.Errors[0]
	}

	m := yamlPosRe.FindStringSubmatch(msg)
	if m == nil {
		return 0, 0
	}
	line, _ = strconv.Atoi(m[1])
	column = 1
	if m[2] != "" {
		column, _ = strconv.Atoi(m[2])
	}
	return line, column
}

// Exists reports whether a canonical config file is present at path.
func Exists(path string) bool {
	return fileutil.FileExists(path)
}
