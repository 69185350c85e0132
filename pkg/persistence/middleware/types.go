package middleware

import "github.com/aretw0/alf/pkg/ports"

// Middleware allows wrapping a KnowledgeStore to add behavior.
type Middleware func(ports.KnowledgeStore) ports.KnowledgeStore

// Chain applies middlewares so that the first one is the outermost.
func Chain(store ports.KnowledgeStore, mws ...Middleware) ports.KnowledgeStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
