// Package retry provides bounded retry and polling for external readiness.
//
// [WithBackoff] retries an operation with configurable max attempts,
// initial delay, and maximum delay. [Poll] checks a readiness predicate at
// a fixed interval with a hard attempt budget. Both return [TimeoutError]
// on exhaustion so callers can distinguish "never became ready" from other
// failures.
package retry
