// Package pipeline composes the renderer, object store, and metadata
// repository into the photo workflows: upload, delete, refresh, and
// retention cleanup. All failure and rollback policy lives here; the
// collaborators it calls are deliberately policy-free.
package pipeline

import (
	ctx "context"

	"github.com/anecdotario/photo-services/models/common"
	"github.com/anecdotario/photo-services/network"
)

// Worker holds what every pipeline orchestrator needs. Each
// invocation is a stateless unit of work; nothing here is shared
// mutable state.
type Worker struct {
	Context *common.Context
}

func (w *Worker) store() network.ObjectStore {
	return w.Context.ObjectStore
}

func (w *Worker) repo() network.PhotoRepo {
	return w.Context.PhotoRepo
}

// background is the context for object-store calls. No cancellation
// token exists in this subsystem; a surrounding execution budget may
// kill an in-flight call, and callers treat interruption as
// failure-and-safe-to-retry.
func background() ctx.Context {
	return ctx.Background()
}
