package config

import (
	"fmt"
	"reflect"
	"strings"
)

// String renders the full configuration as an indented key/value listing.
// Secrets are included; prefer Redacted for anything that reaches logs.
func (c *Config) String() string {
	return formatStruct(reflect.ValueOf(c).Elem(), "", false)
}

// Redacted renders the configuration with fields tagged `redact` masked.
func (c *Config) Redacted() string {
	return formatStruct(reflect.ValueOf(c).Elem(), "", true)
}

func formatStruct(v reflect.Value, prefix string, redact bool) string {
	var sb strings.Builder
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		value := v.Field(i)

		if !value.CanInterface() {
			continue
		}

		switch value.Kind() {
		case reflect.Struct:
			sb.WriteString(fmt.Sprintf("%s%s:\n", prefix, field.Name))
			sb.WriteString(formatStruct(value, prefix+"  ", redact))
		case reflect.Slice:
			if value.Len() == 0 {
				sb.WriteString(fmt.Sprintf("%s%s: []\n", prefix, field.Name))
			} else {
				sb.WriteString(fmt.Sprintf("%s%s:\n", prefix, field.Name))
				for j := 0; j < value.Len(); j++ {
					sb.WriteString(fmt.Sprintf("%s  - %v\n", prefix, value.Index(j).Interface()))
				}
			}
		default:
			display := value.Interface()
			if redact && field.Tag.Get("redact") == "true" && !value.IsZero() {
				display = "***"
			}
			sb.WriteString(fmt.Sprintf("%s%s: %v\n", prefix, field.Name, display))
		}
	}

	return sb.String()
}
