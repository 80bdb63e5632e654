package outbox

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/md-rashed-zaman/meetslot/libs/db"
)

// Emitter records an event in its own transaction, for events that are not
// tied to a row write such as verification requests.
type Emitter struct {
	pool *db.Pool
	repo *Repository
}

func NewEmitter(pool *db.Pool, repo *Repository) *Emitter {
	return &Emitter{pool: pool, repo: repo}
}

func (e *Emitter) Emit(ctx context.Context, evt Event) error {
	return e.pool.WithTx(ctx, func(tx pgx.Tx) error {
		return e.repo.Insert(ctx, tx, evt)
	})
}
