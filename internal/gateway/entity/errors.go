package entity

import "errors"

// Error taxonomy shared by the conversation engine and the submission pipeline.
var (
	ErrInputRejected      = errors.New("input rejected")
	ErrGatewayUnavailable = errors.New("ai gateway unavailable")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrMalformedAIOutput  = errors.New("malformed ai output")
	ErrMissingDescription = errors.New("missing description")
)
