// Package services provides application-level orchestration services
package services

import (
	"github.com/AtRiskMedia/vsl-go/internal/domain/attribution"
	"github.com/AtRiskMedia/vsl-go/internal/domain/tracking"
)

// Visit is one request's view of a visitor: the attribution store built over
// the visitor's storage and a tracker that resolves through it.
type Visit struct {
	VisitorID string
	Store     *attribution.Store
	Tracker   *tracking.Tracker
}

// Attribution resolves the visitor's attribution for this request.
func (v *Visit) Attribution() attribution.Set {
	if v == nil || v.Store == nil {
		return attribution.Set{}
	}
	return v.Store.ResolveAll()
}
