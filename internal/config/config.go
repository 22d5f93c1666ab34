// Package config loads the typed configuration documents used by the
// Hailstorm packager CLI and by components that accept a metadata-shaped
// config (resource provider options, thread pool sizing). A config document
// is either the binary metadata format or a plain JSON object; which one is
// in use is sniffed from the first bytes rather than a file extension.
package config

import (
	"bytes"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/forgelight/forgekit"
	"github.com/forgelight/forgekit/internal/metadata"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Config is a typed key-value configuration document, backed by a
// metadata.Metadata.
type Config struct {
	md *metadata.Metadata
}

// New creates an empty Config.
func New() *Config {
	return &Config{md: metadata.New()}
}

// Load reads a Config from r, auto-detecting the binary metadata magic
// header versus a JSON document.
func Load(r io.Reader) (*Config, error) {
	br := bufferAll(r)
	head := br.Bytes()

	if len(head) >= 4 && bytes.Equal(head[:4], metadata.Magic[:]) {
		md, err := metadata.Decode(br)
		if err != nil {
			return nil, errors.Wrap(err, "config: decode binary metadata")
		}
		return &Config{md: md}, nil
	}

	var raw map[string]any
	if err := json.NewDecoder(br).Decode(&raw); err != nil {
		return nil, forgekit.NewError("config.Load", forgekit.CodeConfigIsInvalid, "not a valid binary metadata blob or JSON object")
	}

	md := metadata.New()
	for k, v := range raw {
		if err := setFromJSONValue(md, k, v); err != nil {
			return nil, err
		}
	}
	return &Config{md: md}, nil
}

func setFromJSONValue(md *metadata.Metadata, key string, v any) error {
	switch val := v.(type) {
	case bool:
		md.SetBool(key, val)
	case float64:
		md.SetInt32(key, int32(val))
	case string:
		md.SetString(key, val)
	case []any:
		if len(val) == 0 {
			md.SetStringArray(key, nil)
			return nil
		}
		switch val[0].(type) {
		case string:
			arr := make([]string, len(val))
			for i, e := range val {
				s, ok := e.(string)
				if !ok {
					return forgekit.NewError("config.Load", forgekit.CodeConfigValueTypeMissmatch, "mixed-type array for key "+key)
				}
				arr[i] = s
			}
			md.SetStringArray(key, arr)
		case float64:
			arr := make([]int32, len(val))
			for i, e := range val {
				f, ok := e.(float64)
				if !ok {
					return forgekit.NewError("config.Load", forgekit.CodeConfigValueTypeMissmatch, "mixed-type array for key "+key)
				}
				arr[i] = int32(f)
			}
			md.SetInt32Array(key, arr)
		default:
			return forgekit.NewError("config.Load", forgekit.CodeConfigValueTypeMissmatch, "unsupported array element type for key "+key)
		}
	default:
		return forgekit.NewError("config.Load", forgekit.CodeConfigValueTypeMissmatch, "unsupported JSON value type for key "+key)
	}
	return nil
}

func bufferAll(r io.Reader) *bytes.Reader {
	data, err := io.ReadAll(r)
	if err != nil {
		data = nil
	}
	return bytes.NewReader(data)
}

// GetBool returns the bool value for key.
func (c *Config) GetBool(key string) (bool, error) { return c.md.GetBool(key) }

// GetInt32 returns the int32 value for key.
func (c *Config) GetInt32(key string) (int32, error) { return c.md.GetInt32(key) }

// GetFloat returns the float32 value for key.
func (c *Config) GetFloat(key string) (float32, error) { return c.md.GetFloat(key) }

// GetString returns the string value for key.
func (c *Config) GetString(key string) (string, error) { return c.md.GetString(key) }

// GetStringArray returns the string array value for key.
func (c *Config) GetStringArray(key string) ([]string, error) { return c.md.GetStringArray(key) }

// GetInt32Array returns the int32 array value for key.
func (c *Config) GetInt32Array(key string) ([]int32, error) { return c.md.GetInt32Array(key) }

// GetInt32OrDefault returns the int32 value for key, or def if the key is
// absent. A type mismatch on a present key is still returned as an error.
func (c *Config) GetInt32OrDefault(key string, def int32) (int32, error) {
	v, err := c.GetInt32(key)
	if forgekit.IsCode(err, forgekit.CodeConfigKeyNotFound) {
		return def, nil
	}
	return v, err
}

// Merge copies every key from other into c, overwriting any existing value
// c already has for that key. Later merges win, matching command-line
// config flags applied in order.
func (c *Config) Merge(other *Config) {
	other.md.CopyInto(c.md)
}

// Metadata exposes the backing typed document, for components (like the
// Hailstorm writer) that want to embed configuration directly as archive
// metadata.
func (c *Config) Metadata() *metadata.Metadata { return c.md }
