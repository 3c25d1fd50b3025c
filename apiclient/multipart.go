package apiclient

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"sort"

	"github.com/jrsteele09/vpn-admin/internal/utils"
)

type multipartBody struct {
	prefix string
	fields map[string]any
}

// encode writes each field as prefix[name]. Objects and arrays are sent as
// JSON text, scalars as their string form.
func (m *multipartBody) encode() (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	names := make([]string, 0, len(m.fields))
	for name := range m.fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		key := name
		if m.prefix != "" {
			key = m.prefix + "[" + name + "]"
		}
		value, err := formValue(m.fields[name])
		if err != nil {
			return nil, "", err
		}
		if err := w.WriteField(key, value); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

func formValue(v any) (string, error) {
	switch v.(type) {
	case map[string]any, []any, []string:
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return utils.ToString(v), nil
}
