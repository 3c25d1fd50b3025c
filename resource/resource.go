// Package resource holds the backend entities and pagination types shared by
// the normalizer, the admin services and the screens.
package resource

import (
	"encoding/json"

	"github.com/jrsteele09/vpn-admin/internal/utils"
)

// Resource is a single backend entity. Both JSON:API documents
// ({id, type, attributes, relationships}) and flat objects are supported.
type Resource map[string]any

// ID returns the identity as a string; numeric ids are rendered without decimals
func (r Resource) ID() string {
	return utils.ToString(r["id"])
}

func (r Resource) Type() string {
	return utils.ToString(r["type"])
}

// Attributes returns the JSON:API attributes object, or the resource itself
// for flat payloads.
func (r Resource) Attributes() map[string]any {
	if attrs, ok := r["attributes"].(map[string]any); ok {
		return attrs
	}
	return r
}

// Attr looks the field up in attributes first, then at the top level.
func (r Resource) Attr(name string) (any, bool) {
	if attrs, ok := r["attributes"].(map[string]any); ok {
		if v, ok := attrs[name]; ok {
			return v, true
		}
	}
	v, ok := r[name]
	return v, ok
}

func (r Resource) String(name string) string {
	v, _ := r.Attr(name)
	return utils.ToString(v)
}

func (r Resource) Int(name string) (int, bool) {
	v, ok := r.Attr(name)
	if !ok {
		return 0, false
	}
	return utils.ToInt(v)
}

func (r Resource) Float(name string) float64 {
	v, _ := r.Attr(name)
	if f, ok := v.(float64); ok {
		return f
	}
	return 0
}

func (r Resource) Bool(name string) bool {
	v, _ := r.Attr(name)
	b, _ := v.(bool)
	return b
}

// Relationship returns the related resource linkage ({id, type}) stored under
// relationships.<name>.data, e.g. the user of a server assignment.
func (r Resource) Relationship(name string) (Resource, bool) {
	rels, ok := r["relationships"].(map[string]any)
	if !ok {
		return nil, false
	}
	rel, ok := rels[name].(map[string]any)
	if !ok {
		return nil, false
	}
	data, ok := rel["data"].(map[string]any)
	if !ok {
		return nil, false
	}
	return Resource(data), true
}

// Decode converts the attributes into a typed struct via their JSON form.
func (r Resource) Decode(target any) error {
	b, err := json.Marshal(r.Attributes())
	if err != nil {
		return err
	}
	return json.Unmarshal(b, target)
}
