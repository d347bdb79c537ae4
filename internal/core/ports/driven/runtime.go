package driven

import "errors"

// Runtime bundles the long-lived adapters built from one set of settings.
// A Runtime is never mutated after construction; rotating a credential
// builds a new one.
type Runtime struct {
	Embedder    EmbeddingService
	Generator   Generator
	VectorStore VectorStore

	// Collection is the vector store collection records live in.
	Collection string
}

// Close releases all resources held by the runtime.
func (r *Runtime) Close() error {
	var errs []error
	if r.Embedder != nil {
		errs = append(errs, r.Embedder.Close())
	}
	if r.Generator != nil {
		errs = append(errs, r.Generator.Close())
	}
	if r.VectorStore != nil {
		errs = append(errs, r.VectorStore.Close())
	}
	return errors.Join(errs...)
}
