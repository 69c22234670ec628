// MindHangar - AI Model Lifecycle and Hybrid Content Recommendations
// Copyright 2026 Uday (uday68)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/uday68/mindhangar-sub001

package supervisor

import (
	"context"

	"github.com/uday68/mindhangar-sub001/internal/events"
)

// BusService adapts the catalog event bus to suture.Service. The bus's
// router blocks in Run until the context is canceled, which is exactly the
// contract suture expects.
type BusService struct {
	bus *events.Bus
}

// NewBusService wraps an event bus for supervision.
func NewBusService(bus *events.Bus) *BusService {
	return &BusService{bus: bus}
}

// Serve runs the bus router until ctx is canceled.
func (s *BusService) Serve(ctx context.Context) error {
	return s.bus.Run(ctx)
}

// String implements suture's service naming.
func (s *BusService) String() string {
	return "catalog-event-bus"
}
