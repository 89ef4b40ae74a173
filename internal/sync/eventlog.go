package syncx

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// Event types written by the assessment store.
const (
	TypeResultSubmitted = "ResultSubmitted"
	TypeLearnerReset    = "LearnerReset"
	TypeLearnerRemoved  = "LearnerRemoved"
)

type Event struct {
	Seq       int64  `json:"seq"`
	SiteID    string `json:"site_id"`
	Type      string `json:"type"`
	Key       string `json:"key"`
	DataJSON  string `json:"data"`
	CreatedAt int64  `json:"created_at"`
}

// Execer lets callers append inside their own *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// NewEvent marshals payload into an Event. A payload that cannot be
// marshalled is recorded as "{}".
func NewEvent(typ, key string, payload any) Event {
	buf, err := json.Marshal(payload)
	if err != nil {
		buf = []byte("{}")
	}
	return Event{Type: typ, Key: key, DataJSON: string(buf)}
}

// Append writes e through x, which may be a *sql.DB or a *sql.Tx.
func Append(ctx context.Context, x Execer, e Event) error {
	if e.SiteID == "" {
		e.SiteID = "local"
	}
	_, err := x.ExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		e.SiteID, e.Type, e.Key, e.DataJSON, time.Now().Unix())
	return err
}

type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// List returns events with seq > after, oldest first.
func (r *EventRepo) List(ctx context.Context, after int64, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, site_id, typ, key, data, created_at
		   FROM event_log WHERE seq > $1 ORDER BY seq LIMIT $2`, after, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Seq, &e.SiteID, &e.Type, &e.Key, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
