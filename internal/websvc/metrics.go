package websvc

import "context"

// RequestType is a type alias for string that represents the request type for
// web service metrics.
type RequestType = string

// List of web service requests of type RequestType.
const (
	RequestTypeCheck       RequestType = "check"
	RequestTypeControl     RequestType = "control"
	RequestTypeHealthCheck RequestType = "health_check"
	RequestTypeMetrics     RequestType = "metrics"
	RequestTypeRefresh     RequestType = "refresh"
)

// Metrics is an interface for collecting web service request statistics.
type Metrics interface {
	// IncrementReqCount increments the web service request count for a given
	// RequestType.  reqType must be one of the RequestType values.
	IncrementReqCount(ctx context.Context, reqType RequestType)
}

// EmptyMetrics is the implementation of the [Metrics] interface that does
// nothing.
type EmptyMetrics struct{}

// type check
var _ Metrics = EmptyMetrics{}

// IncrementReqCount implements the [Metrics] interface for EmptyMetrics.
func (EmptyMetrics) IncrementReqCount(_ context.Context, _ RequestType) {}
