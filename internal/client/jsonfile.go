package client

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/jander99/overture-sub000/internal/errors"
	"github.com/jander99/overture-sub000/pkg/fileutil"
)

// ReadJSONFile reads a JSON native config whose servers live under rootKey.
// Top-level keys other than rootKey are preserved in the snapshot's Extra.
// A missing file yields an empty snapshot.
func ReadJSONFile(path, rootKey string) (*NativeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewNativeConfig(), nil
		}
		return nil, &errors.LoadError{Path: path, Err: err}
	}
	return ParseJSON(path, data, rootKey)
}

// ParseJSON decodes JSON native config data. The path is for error
// reporting only.
func ParseJSON(path string, data []byte, rootKey string) (*NativeConfig, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		le := &errors.LoadError{Path: path, Err: err}
		le.Line, le.Column = jsonErrorPosition(data, err)
		return nil, le
	}

	cfg := NewNativeConfig()
	if serversData, ok := raw[rootKey]; ok {
		if err := json.Unmarshal(serversData, &cfg.Servers); err != nil {
			le := &errors.LoadError{Path: path, Err: err}
			le.Line, le.Column = jsonErrorPosition(data, err)
			return nil, le
		}
		delete(raw, rootKey)
	}
	if cfg.Servers == nil {
		cfg.Servers = make(map[string]*NativeServer)
	}
	if len(raw) > 0 {
		cfg.Extra = raw
	}

	return cfg, nil
}

// WriteJSONFile writes a snapshot back under rootKey, restoring preserved
// top-level payload, atomically, creating the parent directory if needed.
func WriteJSONFile(path, rootKey string, cfg *NativeConfig) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "creating directory for %s", path)
	}

	out := make(map[string]any, len(cfg.Extra)+1)
	for k, v := range cfg.Extra {
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return errors.Wrapf(err, "preserved field %s", k)
		}
		out[k] = val
	}
	out[rootKey] = cfg.Servers

	return errors.Wrapf(fileutil.AtomicWriteJSON(path, out), "writing %s", path)
}

// jsonErrorPosition converts a json error's byte offset into a 1-indexed
// line/column pair. Returns zeros when the error carries no offset.
func jsonErrorPosition(data []byte, err error) (line, column int) {
	var offset int64
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	default:
		return 0, 0
	}

	if offset < 0 || offset > int64(len(data)) {
		return 0, 0
	}

	line, column = 1, 1
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	return line, column
}
