// Package normalize turns the backend's inconsistent response bodies into a
// PageResult for collections or a single Resource for detail endpoints, so
// callers never branch on the payload layout.
package normalize

import (
	"encoding/json"
	"fmt"

	"github.com/jrsteele09/vpn-admin/internal/errors"
	"github.com/jrsteele09/vpn-admin/resource"
)

type Kind int

const (
	KindPage Kind = iota + 1
	KindItem
	KindOpaque
)

func (k Kind) String() string {
	switch k {
	case KindPage:
		return "page"
	case KindItem:
		return "item"
	case KindOpaque:
		return "opaque"
	}
	return "unknown"
}

// Result is the normalized outcome; Kind tells which field is populated.
type Result struct {
	Kind Kind
	Page resource.PageResult
	Item resource.Resource
	Raw  json.RawMessage
}

// Normalize accepts a raw body ([]byte, json.RawMessage, string), an already
// decoded JSON value, or an already normalized value. Normalized inputs are
// returned unchanged, so Normalize(Normalize(x)) == Normalize(x).
func Normalize(body any) (Result, error) {
	switch v := body.(type) {
	case Result:
		return v, nil
	case *Result:
		if v == nil {
			return Result{Kind: KindOpaque}, nil
		}
		return *v, nil
	case resource.PageResult:
		return Result{Kind: KindPage, Page: v}, nil
	case *resource.PageResult:
		if v == nil {
			return Result{Kind: KindOpaque}, nil
		}
		return Result{Kind: KindPage, Page: *v}, nil
	case resource.Resource:
		return Result{Kind: KindItem, Item: v}, nil
	case Opaque:
		return Result{Kind: KindOpaque, Raw: v.Raw}, nil
	case nil:
		return Result{Kind: KindOpaque}, nil
	case json.RawMessage:
		return fromRaw(v)
	case []byte:
		return fromRaw(v)
	case string:
		return fromRaw([]byte(v))
	default:
		// Decoded JSON values ([]any, map[string]any, ...) go through their wire form.
		raw, err := json.Marshal(v)
		if err != nil {
			return Result{}, errors.Wrapf(errors.ErrMalformedBody, "marshal %T", body)
		}
		return fromRaw(raw)
	}
}

func fromRaw(raw []byte) (Result, error) {
	shape, err := Classify(raw)
	if err != nil {
		return Result{}, err
	}
	return FromShape(shape), nil
}

// FromShape applies the normalization rules to a classified payload.
func FromShape(shape Shape) Result {
	switch s := shape.(type) {
	case BareArray:
		return Result{Kind: KindPage, Page: resource.PageResult{
			Items:       nonNil(s.Items),
			CurrentPage: 1,
			TotalPages:  1,
			TotalCount:  len(s.Items),
		}}
	case PaginatedEnvelope:
		page := resource.PageResult{
			Items:       nonNil(s.Items),
			CurrentPage: 1,
			TotalPages:  1,
			TotalCount:  len(s.Items),
			Included:    s.Included,
		}
		if s.Meta != nil {
			if s.Meta.CurrentPage != nil {
				page.CurrentPage = *s.Meta.CurrentPage
			}
			if s.Meta.TotalPages != nil {
				page.TotalPages = *s.Meta.TotalPages
			}
			if s.Meta.TotalCount != nil {
				page.TotalCount = *s.Meta.TotalCount
			}
		}
		return Result{Kind: KindPage, Page: page}
	case SingleResourceEnvelope:
		return Result{Kind: KindItem, Item: s.Item}
	case Opaque:
		return Result{Kind: KindOpaque, Raw: s.Raw}
	}
	return Result{Kind: KindOpaque}
}

// Page normalizes a collection response.
func Page(body any) (resource.PageResult, error) {
	r, err := Normalize(body)
	if err != nil {
		return resource.PageResult{}, err
	}
	if r.Kind != KindPage {
		return resource.PageResult{}, fmt.Errorf("%w: want page, got %s", errors.ErrUnexpectedShape, r.Kind)
	}
	return r.Page, nil
}

// Item normalizes a detail response.
func Item(body any) (resource.Resource, error) {
	r, err := Normalize(body)
	if err != nil {
		return nil, err
	}
	if r.Kind != KindItem {
		return nil, fmt.Errorf("%w: want item, got %s", errors.ErrUnexpectedShape, r.Kind)
	}
	return r.Item, nil
}

// Decode unmarshals an opaque body (stats, reports) into target.
func Decode(body any, target any) error {
	r, err := Normalize(body)
	if err != nil {
		return err
	}
	if r.Kind != KindOpaque {
		return fmt.Errorf("%w: want opaque, got %s", errors.ErrUnexpectedShape, r.Kind)
	}
	if len(r.Raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Raw, target); err != nil {
		return errors.Wrapf(errors.ErrMalformedBody, "decode %T: %v", target, err)
	}
	return nil
}

func nonNil(items []resource.Resource) []resource.Resource {
	if items == nil {
		return []resource.Resource{}
	}
	return items
}
