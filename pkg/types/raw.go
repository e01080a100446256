// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Well-known RawFieldMap keys. Adapters may emit extra keys (e.g. "country");
// the normalizer ignores what it does not understand.
const (
	FieldID        = "id"
	FieldTitle     = "title"
	FieldDate      = "date"
	FieldInventors = "inventors"
	FieldInventor  = "inventor"
	FieldApplicant = "applicant"
	FieldAssignee  = "assignee"
	FieldAbstract  = "abstract"
	FieldSourceURL = "sourceUrl"
	FieldGoogleURL = "googlePatentUrl"
	FieldDetailURL = "detailUrl"
	FieldPDFURL    = "pdfUrl"
	FieldStatus    = "status"
	FieldSource    = "source"
	FieldRank      = "rank"
	FieldCountry   = "country"
)

// FieldValue is either a scalar string or a list of strings.
type FieldValue struct {
	scalar string
	list   []string
	isList bool
}

// Str builds a scalar FieldValue.
func Str(s string) FieldValue { return FieldValue{scalar: s} }

// List builds a list FieldValue. The slice is copied.
func List(items ...string) FieldValue {
	cp := make([]string, len(items))
	copy(cp, items)
	return FieldValue{list: cp, isList: true}
}

// IsList reports whether the value holds a list.
func (v FieldValue) IsList() bool { return v.isList }

// String returns the scalar value, or the list items joined by "; ".
func (v FieldValue) String() string {
	if v.isList {
		return strings.Join(v.list, "; ")
	}
	return v.scalar
}

// Items returns the list items, or the scalar as a one-element slice when it
// is non-empty.
func (v FieldValue) Items() []string {
	if v.isList {
		cp := make([]string, len(v.list))
		copy(cp, v.list)
		return cp
	}
	if v.scalar == "" {
		return nil
	}
	return []string{v.scalar}
}

// MarshalJSON encodes scalars as strings and lists as arrays.
func (v FieldValue) MarshalJSON() ([]byte, error) {
	if v.isList {
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	}
	return json.Marshal(v.scalar)
}

// UnmarshalJSON accepts strings, numbers, booleans, null, and arrays of any
// of those. Nested objects are rejected.
func (v *FieldValue) UnmarshalJSON(data []byte) error {
	var anyVal any
	if err := json.Unmarshal(data, &anyVal); err != nil {
		return err
	}
	switch t := anyVal.(type) {
	case []any:
		items := make([]string, 0, len(t))
		for _, item := range t {
			s, err := scalarString(item)
			if err != nil {
				return err
			}
			items = append(items, s)
		}
		*v = FieldValue{list: items, isList: true}
		return nil
	default:
		s, err := scalarString(t)
		if err != nil {
			return err
		}
		*v = FieldValue{scalar: s}
		return nil
	}
}

func scalarString(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	default:
		return "", fmt.Errorf("unsupported raw field value of type %T", v)
	}
}

// RawFieldMap is the untyped, source-specific output of an adapter. It may be
// missing any field.
type RawFieldMap map[string]FieldValue

// Get returns the scalar form of key, or "" when absent.
func (m RawFieldMap) Get(key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	return v.String()
}

// First returns the value of the first key present with non-blank content.
func (m RawFieldMap) First(keys ...string) string {
	for _, k := range keys {
		if s := m.Get(k); strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// Set stores a scalar value.
func (m RawFieldMap) Set(key, value string) { m[key] = Str(value) }

// SetList stores a list value.
func (m RawFieldMap) SetList(key string, items []string) { m[key] = List(items...) }

// SetInt stores an integer as a scalar.
func (m RawFieldMap) SetInt(key string, n int) { m[key] = Str(strconv.Itoa(n)) }
