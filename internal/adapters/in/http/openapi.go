package http

import (
	"context"
	_ "embed"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/pkg/errors"
)

//go:embed openapi.yaml
var openAPIDocument []byte

// LoadOpenAPI parses and validates the embedded API document.
func LoadOpenAPI(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()

	doc, err := loader.LoadFromData(openAPIDocument)
	if err != nil {
		return nil, errors.Wrap(err, "load openapi document")
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, errors.Wrap(err, "validate openapi document")
	}

	return doc, nil
}
