// Package middleware wraps a ports.RunStore to change what is persisted:
// masking sensitive output fields, or sealing whole reports with AES-GCM.
package middleware

import "github.com/aretw0/weft/pkg/ports"

// Middleware allows wrapping a RunStore to add behavior.
type Middleware func(ports.RunStore) ports.RunStore

// Chain applies mws to store so that the first middleware sees a Save first.
func Chain(store ports.RunStore, mws ...Middleware) ports.RunStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
