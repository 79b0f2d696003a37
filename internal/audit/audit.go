// Package audit registra las acciones administrativas que pasan por el
// gateway (login, logout, altas y ediciones de tenants).
//
// Con DSN configurado los eventos van a Postgres; sin DSN quedan solo en
// el log estructurado. Un fallo de auditoría nunca corta el request.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/tenantdesk/internal/observability/logger"
)

// Event es una acción auditable.
type Event struct {
	ID     uuid.UUID
	Actor  string // email o subject del admin
	Action string // login | logout | tenant_create | tenant_update
	Target string // ej. "tenant:42"
	Detail map[string]any
	At     time.Time
}

// Recorder persiste eventos de auditoría.
type Recorder interface {
	Record(ctx context.Context, ev Event)
	Close()
}

// ─────────────── Postgres ───────────────

const schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id         UUID PRIMARY KEY,
	actor      TEXT NOT NULL,
	action     TEXT NOT NULL,
	target     TEXT NOT NULL DEFAULT '',
	detail     JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS audit_events_actor_idx ON audit_events (actor, created_at DESC);
`

// PGRecorder escribe eventos en Postgres vía pgx.
type PGRecorder struct {
	pool *pgxpool.Pool
}

// NewPG conecta el pool y asegura el esquema.
func NewPG(ctx context.Context, dsn string) (*PGRecorder, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, err
	}
	return &PGRecorder{pool: pool}, nil
}

func (r *PGRecorder) Record(ctx context.Context, ev Event) {
	fill(&ev)
	detail, _ := json.Marshal(ev.Detail)

	// Insert con timeout propio: la auditoría no debe colgar el request.
	ictx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ictx,
		`INSERT INTO audit_events (id, actor, action, target, detail, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		ev.ID, ev.Actor, ev.Action, ev.Target, detail, ev.At,
	)
	if err != nil {
		logger.From(ctx).Warn("audit: insert failed",
			logger.String("action", ev.Action), logger.Err(err))
	}
}

func (r *PGRecorder) Close() { r.pool.Close() }

// ─────────────── Log fallback ───────────────

// LogRecorder manda los eventos al log estructurado.
type LogRecorder struct{}

func NewLog() *LogRecorder { return &LogRecorder{} }

func (r *LogRecorder) Record(ctx context.Context, ev Event) {
	fill(&ev)
	logger.From(ctx).Info("audit event",
		logger.String("audit_id", ev.ID.String()),
		logger.String("actor", ev.Actor),
		logger.String("action", ev.Action),
		logger.String("target", ev.Target),
	)
}

func (r *LogRecorder) Close() {}

func fill(ev *Event) {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
}
