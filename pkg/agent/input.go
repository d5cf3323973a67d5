/*
Copyright 2025 The Inkwell Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package agent

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/inkwell-ai/inkwell/internal/errors"
)

// Input is the weakly typed tree of named fields a task arrives with.
// Unknown keys are ignored; every agent reads the tree through the same
// accessors so missing-field failures are uniform.
type Input map[string]any

// RequiredString returns the named field as a non-empty string, or an
// input error naming the missing key.
func (in Input) RequiredString(key string) (string, error) {
	s := in.OptionalString(key, "")
	if s == "" {
		return "", errors.Newf(errors.ErrorTypeInput, "missing required field %q", key)
	}
	return s, nil
}

// FirstRequiredString returns the first present key of the alternatives,
// for inputs that accept either of two spellings.
func (in Input) FirstRequiredString(keys ...string) (string, error) {
	for _, key := range keys {
		if s := in.OptionalString(key, ""); s != "" {
			return s, nil
		}
	}
	return "", errors.Newf(errors.ErrorTypeInput, "missing required field %q", strings.Join(keys, "|"))
}

// OptionalString returns the named field as a string, or def when absent.
// Numeric and boolean values are rendered; other types are ignored.
func (in Input) OptionalString(key, def string) string {
	v, ok := in[key]
	if !ok || v == nil {
		return def
	}
	switch s := v.(type) {
	case string:
		if s == "" {
			return def
		}
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case bool:
		return strconv.FormatBool(s)
	default:
		return def
	}
}

// OptionalEnum returns the named field constrained to the allowed values,
// or def when absent. An unrecognized value is an input error.
func (in Input) OptionalEnum(key, def string, allowed ...string) (string, error) {
	s := in.OptionalString(key, def)
	for _, a := range allowed {
		if s == a {
			return s, nil
		}
	}
	return "", errors.Newf(errors.ErrorTypeInput, "field %q must be one of %s, got %q",
		key, strings.Join(allowed, "|"), s)
}

// StringList returns the named field as a list, accepting either a JSON
// array or a comma-separated string. Absent keys yield nil.
func (in Input) StringList(key string) []string {
	v, ok := in[key]
	if !ok || v == nil {
		return nil
	}
	switch list := v.(type) {
	case []string:
		return trimAll(list)
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	case string:
		if strings.TrimSpace(list) == "" {
			return nil
		}
		return trimAll(strings.Split(list, ","))
	default:
		return nil
	}
}

// OptionalBool returns the named field as a bool, accepting native bools
// and the usual string spellings.
func (in Input) OptionalBool(key string, def bool) bool {
	v, ok := in[key]
	if !ok || v == nil {
		return def
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return def
		}
		return parsed
	default:
		return def
	}
}

// OptionalInt returns the named field as an int, accepting JSON numbers
// and numeric strings.
func (in Input) OptionalInt(key string, def int) int {
	v, ok := in[key]
	if !ok || v == nil {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return def
		}
		return parsed
	default:
		return def
	}
}

// OptionalFloat returns the named field as a float64.
func (in Input) OptionalFloat(key string, def float64) float64 {
	v, ok := in[key]
	if !ok || v == nil {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return def
		}
		return parsed
	default:
		return def
	}
}

// Child returns a nested object field as an Input.
func (in Input) Child(key string) (Input, bool) {
	v, ok := in[key]
	if !ok {
		return nil, false
	}
	switch child := v.(type) {
	case Input:
		return child, true
	case map[string]any:
		return Input(child), true
	default:
		return nil, false
	}
}

// NestedString resolves a dotted path such as "paper.id".
func (in Input) NestedString(path string) string {
	parts := strings.Split(path, ".")
	current := in
	for i, part := range parts {
		if i == len(parts)-1 {
			return current.OptionalString(part, "")
		}
		child, ok := current.Child(part)
		if !ok {
			return ""
		}
		current = child
	}
	return ""
}

func trimAll(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// String renders the input keys for diagnostics without dumping values,
// which may hold entire documents.
func (in Input) String() string {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	return fmt.Sprintf("input{%s}", strings.Join(keys, ","))
}
