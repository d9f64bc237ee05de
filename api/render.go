package api

import (
	"net/http"

	"github.com/goccy/go-json"
)

var jsonContentType = []string{"application/json; charset=utf-8"}

// unescapedJSON renders like the dataset writer: goccy/go-json with HTML
// escaping off, so tokens such as "<" or "&" come back verbatim.
type unescapedJSON struct {
	Data any
}

func (r unescapedJSON) Render(w http.ResponseWriter) error {
	r.WriteContentType(w)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(r.Data)
}

func (r unescapedJSON) WriteContentType(w http.ResponseWriter) {
	header := w.Header()
	if len(header["Content-Type"]) == 0 {
		header["Content-Type"] = jsonContentType
	}
}
