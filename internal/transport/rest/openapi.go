package rest

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi"
)

const (
	OpenAPIPath = "./api/openapi.yml"
	apiPrefix   = "/api/v1"
)

// LoadOpenAPI reads and validates the API document.
func LoadOpenAPI(ctx context.Context, path string) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	return doc, nil
}

// UndocumentedRoutes lists "METHOD /path" for every API route the router
// serves that the document does not describe.
func UndocumentedRoutes(routes chi.Routes, doc *openapi3.T) ([]string, error) {
	var missing []string
	err := chi.Walk(routes, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		if !strings.HasPrefix(route, apiPrefix+"/") {
			return nil
		}
		path := strings.TrimPrefix(route, apiPrefix)
		path = strings.TrimSuffix(strings.ReplaceAll(path, "/*", ""), "/")
		if path == "" {
			path = "/"
		}

		item := doc.Paths.Find(path)
		if item == nil || item.GetOperation(method) == nil {
			missing = append(missing, method+" "+path)
		}
		return nil
	})
	sort.Strings(missing)
	return missing, err
}
