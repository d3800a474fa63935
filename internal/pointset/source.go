// Package pointset retrieves raw PointSet payloads by identifier.
//
// The bytes are returned undecoded; decoding belongs to the caller so that
// source failures and format failures stay distinguishable.
package pointset

import (
	"context"
	"errors"
	"fmt"
)

// Source fetches the raw PointSet bytes stored under id.
type Source interface {
	Fetch(ctx context.Context, id string) ([]byte, error)
}

// ErrNotFound is returned when the source has no point set under the id.
var ErrNotFound = errors.New("pointset not found")

// FailureKind classifies an upstream failure.
type FailureKind string

const (
	KindTimeout     FailureKind = "timeout"
	KindUnreachable FailureKind = "unreachable"
	KindStatus      FailureKind = "status"
	KindRequest     FailureKind = "request"
)

// UpstreamError describes a failed fetch from the point set manager.
type UpstreamError struct {
	Kind FailureKind
	// StatusCode is set for KindStatus.
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Kind == KindStatus:
		return fmt.Sprintf("pointset manager returned status %d", e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("pointset manager %s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("pointset manager %s", e.Kind)
	}
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// AsUpstreamError returns the *UpstreamError in err's chain, if any.
func AsUpstreamError(err error) (*UpstreamError, bool) {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}
