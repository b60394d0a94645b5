package middleware

import "github.com/aretw0/formwork/pkg/ports"

// Middleware allows wrapping a TemplateStore to add behavior.
type Middleware func(ports.TemplateStore) ports.TemplateStore

// Chain applies middlewares so the first one is the outermost.
func Chain(store ports.TemplateStore, mws ...Middleware) ports.TemplateStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
