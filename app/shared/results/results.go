package results

// OperationResult carries the outcome of a service operation. Exactly one of
// Success or Failure is set when the operation completed; both are nil when
// the operation errored out before producing a business result.
//
// Failures are expected, recoverable conditions (missing result, conflict,
// nothing configured) and travel as payloads with stable reason codes.
// Infrastructure problems travel as Go errors alongside the result.
type OperationResult[S any, F any] struct {
	Success *S
	Failure *F
}

// OK wraps a success payload.
func OK[S any, F any](s S) OperationResult[S, F] {
	return OperationResult[S, F]{Success: &s}
}

// Fail wraps a failure payload.
func Fail[S any, F any](f F) OperationResult[S, F] {
	return OperationResult[S, F]{Failure: &f}
}

// IsSuccess reports whether a success payload is present.
func (r OperationResult[S, F]) IsSuccess() bool { return r.Success != nil }

// IsFailure reports whether a failure payload is present.
func (r OperationResult[S, F]) IsFailure() bool { return r.Failure != nil }
