package stage

import (
	"context"

	"musica/internal/queue"
)

// Handler describes the contract the workflow manager needs from each stage.
// Prepare validates the job before work starts; Execute does the work and
// returns the first error encountered.
type Handler interface {
	Prepare(context.Context, *queue.Job) error
	Execute(context.Context, *queue.Job) error
	HealthCheck(context.Context) Health
}
