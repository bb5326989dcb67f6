package config

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// RawManifest holds the manifest as read from the source document: a flat
// mapping from upper-snake key to raw scalar value, before interpolation and
// coercion. Scalars are carried as strings; numeric and boolean literals are
// rendered in their canonical form so coercion sees one input shape.
type RawManifest map[string]string

// LoadManifest parses the manifest file at path into a RawManifest.
// Supported formats follow the file extension (yaml, yml, json, toml).
func LoadManifest(path string) (RawManifest, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, &ParseError{Source: path, Err: err}
	}
	return manifestFromSettings(path, v.AllSettings())
}

// LoadManifestBytes parses an in-memory manifest document. The format
// defaults to yaml.
func LoadManifestBytes(data []byte) (RawManifest, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, &ParseError{Err: err}
	}
	return manifestFromSettings("", v.AllSettings())
}

// manifestFromSettings flattens viper settings into a RawManifest. Viper
// lowercases keys; the manifest key set is upper-snake by convention, so
// uppercasing restores the original names losslessly.
func manifestFromSettings(source string, settings map[string]interface{}) (RawManifest, error) {
	manifest := make(RawManifest, len(settings))
	for key, value := range settings {
		switch value.(type) {
		case map[string]interface{}, []interface{}:
			return nil, &ParseError{
				Source: source,
				Err:    fmt.Errorf("key %s: manifest values must be scalars, got nested structure", strings.ToUpper(key)),
			}
		}
		manifest[strings.ToUpper(key)] = formatScalar(value)
	}
	return manifest, nil
}

func formatScalar(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
