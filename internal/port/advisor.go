package port

import "context"

// Advisor abstracts the external narrative/LLM review collaborator. Given a
// prompt built from preprocessed document fields it returns free text that
// is expected, but not guaranteed, to embed one JSON verdict object.
//
// Implementations own their transport, retry and throttling policy; the
// validation engine treats Review as an opaque blocking call and aborts the
// document's pipeline on error.
type Advisor interface {
	Review(ctx context.Context, prompt string) (string, error)
}
