package repository

import (
	"context"
	"time"

	"todolist/internal/core/port"
)

// track opens a repository span and returns the function that closes it.
func track(ctx context.Context, telemetry port.Telemetry, operation, entity string, attrs map[string]interface{}) (context.Context, func(error)) {
	startTime := time.Now()

	if attrs == nil {
		attrs = map[string]interface{}{}
	}

	attrs["db.system"] = "mongodb"

	ctx, span := telemetry.StartRepositorySpan(ctx, operation, entity, attrs)

	return ctx, func(err error) {
		span.SetAttributes(map[string]interface{}{
			"operation.duration_ns": time.Since(startTime).Nanoseconds(),
		})

		if err != nil {
			span.SetStatus("error", err.Error())
			span.RecordError(err)
		} else {
			span.SetStatus("ok", "")
		}

		span.End()
	}
}
