package normalize

import (
	"bytes"
	"encoding/json"

	"github.com/jrsteele09/vpn-admin/internal/errors"
	"github.com/jrsteele09/vpn-admin/resource"
	"github.com/tidwall/gjson"
)

// Shape is the tagged union of the payload layouts the backend returns.
// Exactly one of BareArray, PaginatedEnvelope, SingleResourceEnvelope or
// Opaque is produced by Classify.
type Shape interface {
	shape()
}

// BareArray is a top-level JSON array of resources.
type BareArray struct {
	Items []resource.Resource
}

// Meta is the pagination block of a paginated envelope. Nil fields were absent.
type Meta struct {
	CurrentPage *int
	TotalPages  *int
	TotalCount  *int
}

// PaginatedEnvelope is {data: [...], meta: {...}, included: [...]}.
type PaginatedEnvelope struct {
	Items    []resource.Resource
	Meta     *Meta
	Included []resource.Resource
}

// SingleResourceEnvelope is {data: {...}} as returned by detail endpoints.
type SingleResourceEnvelope struct {
	Item     resource.Resource
	Included []resource.Resource
}

// Opaque is anything else, kept verbatim for call-specific decoding
// (dashboard stats, reports, empty bodies).
type Opaque struct {
	Raw json.RawMessage
}

func (BareArray) shape()              {}
func (PaginatedEnvelope) shape()      {}
func (SingleResourceEnvelope) shape() {}
func (Opaque) shape()                 {}

// Classify inspects a raw JSON body and returns its Shape. An empty body is
// Opaque; invalid JSON is ErrMalformedBody.
func Classify(raw []byte) (Shape, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Opaque{Raw: nil}, nil
	}
	if !gjson.ValidBytes(trimmed) {
		return nil, errors.ErrMalformedBody
	}
	return classify(gjson.ParseBytes(trimmed), trimmed), nil
}

func classify(doc gjson.Result, raw []byte) Shape {
	if doc.IsArray() {
		return BareArray{Items: toResources(doc)}
	}

	data := doc.Get("data")
	switch {
	case data.IsArray():
		return PaginatedEnvelope{
			Items:    toResources(data),
			Meta:     toMeta(doc.Get("meta")),
			Included: toResources(doc.Get("included")),
		}
	case data.IsObject():
		// {data: {data: [...], meta: {...}}} is a paginated envelope wrapped once more.
		if data.Get("data").IsArray() {
			return classify(data, []byte(data.Raw))
		}
		return SingleResourceEnvelope{
			Item:     toResource(data),
			Included: toResources(doc.Get("included")),
		}
	}
	return Opaque{Raw: json.RawMessage(raw)}
}

func toResources(list gjson.Result) []resource.Resource {
	if !list.IsArray() {
		return nil
	}
	elements := list.Array()
	items := make([]resource.Resource, 0, len(elements))
	for _, e := range elements {
		items = append(items, toResource(e))
	}
	return items
}

// toResource converts an object element. Scalars found inside a collection
// are wrapped as {"value": v} so items stay uniform.
func toResource(e gjson.Result) resource.Resource {
	if m, ok := e.Value().(map[string]interface{}); ok {
		return resource.Resource(m)
	}
	return resource.Resource{"value": e.Value()}
}

func toMeta(meta gjson.Result) *Meta {
	if !meta.IsObject() {
		return nil
	}
	field := func(name string) *int {
		v := meta.Get(name)
		if !v.Exists() || v.Type != gjson.Number {
			return nil
		}
		i := int(v.Int())
		return &i
	}
	return &Meta{
		CurrentPage: field("current_page"),
		TotalPages:  field("total_pages"),
		TotalCount:  field("total_count"),
	}
}
