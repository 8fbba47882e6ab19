package protocol

import "errors"

// Handler execution failure kinds. The executor catches these, logs them
// and transitions the execution to failed; retryable kinds may be
// re-attempted under the workflow's max-retries setting.
var (
	// ErrHTTPRequestFailed indicates an outbound HTTP call failed at the
	// network or body-parse level.
	ErrHTTPRequestFailed = errors.New("http request failed")

	// ErrUpstream indicates an external collaborator answered with an
	// error (e.g. a non-2xx from the text-generation service).
	ErrUpstream = errors.New("upstream service error")

	// ErrCredentialMissing indicates a node requires a secret that the
	// credential resolver could not provide.
	ErrCredentialMissing = errors.New("credential missing")

	// ErrConditionEval indicates a condition expression could not be
	// evaluated under the restricted comparison grammar.
	ErrConditionEval = errors.New("condition evaluation failed")
)

// Retryable reports whether the failure is a candidate for the executor's
// bounded per-node retry loop. Structural and credential failures are
// always fatal.
func Retryable(err error) bool {
	return errors.Is(err, ErrHTTPRequestFailed) || errors.Is(err, ErrUpstream)
}
