package service

import (
	"context"
	"time"

	"todolist/internal/core/port"
)

// observe opens a service span and returns the function that closes it
// and records the outcome of the operation.
func observe(ctx context.Context, telemetry port.Telemetry, service, operation, userID string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := telemetry.StartServiceSpan(ctx, service, operation, userID, nil)

	return ctx, func(err error) {
		telemetry.RecordServiceOperation(ctx, service, operation, userID, time.Since(start), err)

		if err != nil {
			span.RecordError(err)
		}

		span.End()
	}
}
