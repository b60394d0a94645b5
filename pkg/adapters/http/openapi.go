package http

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	legacyrouter "github.com/getkin/kin-openapi/routers/legacy"

	"github.com/aretw0/formwork/pkg/domain"
)

//go:embed openapi.yaml
var rawSpec []byte

var (
	specOnce   sync.Once
	specDoc    *openapi3.T
	specRouter routers.Router
	specErr    error
)

// GetSwagger parses and validates the embedded OpenAPI document.
func GetSwagger() (*openapi3.T, error) {
	specOnce.Do(func() {
		loader := openapi3.NewLoader()
		specDoc, specErr = loader.LoadFromData(rawSpec)
		if specErr != nil {
			return
		}
		if specErr = specDoc.Validate(loader.Context); specErr != nil {
			return
		}
		specRouter, specErr = legacyrouter.NewRouter(specDoc)
	})
	return specDoc, specErr
}

// RawSpec returns the embedded OpenAPI document.
func RawSpec() []byte {
	return rawSpec
}

// requestValidator rejects requests that do not match the OpenAPI document.
// Paths outside the document (metrics, docs) pass through.
func requestValidator(next http.Handler) http.Handler {
	if _, err := GetSwagger(); err != nil {
		panic(fmt.Sprintf("invalid embedded OpenAPI document: %v", err))
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route, params, err := specRouter.FindRoute(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		input := &openapi3filter.RequestValidationInput{
			Request:    r,
			PathParams: params,
			Route:      route,
			Options:    &openapi3filter.Options{MultiError: false},
		}
		if err := openapi3filter.ValidateRequest(context.WithoutCancel(r.Context()), input); err != nil {
			writeError(w, r, fmt.Errorf("%w: %s", domain.ErrInvalidRequest, requestErrorMessage(err)))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestErrorMessage(err error) string {
	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.Parameter != nil {
			return fmt.Sprintf("parameter %q: %s", reqErr.Parameter.Name, reqErr.Reason)
		}
		if reqErr.Err != nil {
			return fmt.Sprintf("request body: %v", reqErr.Err)
		}
		return reqErr.Reason
	}
	return err.Error()
}
