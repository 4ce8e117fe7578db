// Package bind decodes request bodies and runs struct-tag validation in one
// step so controllers stay a few lines long.
package bind

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mosaicpim/mosaic/pkg/validate"
)

const maxBodyBytes = 10 << 20

// JSON decodes the request body into dst and validates it against its
// `validate` tags. Returned field errors are keyed by json field name.
func JSON(r *http.Request, dst interface{}) (map[string]string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return nil, fmt.Errorf("bind: decode body: %w", err)
	}

	if fields := validate.Struct(dst); len(fields) > 0 {
		return fields, nil
	}

	return nil, nil
}
