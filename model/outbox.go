package model

import "database/sql"

type OutboxStatus int

const (
	OutboxPending OutboxStatus = 1
	OutboxSent    OutboxStatus = 2
)

// Outbox rows are written in the same transaction as the order they describe
// and relayed to Kafka by the relay-outbox command.
type Outbox struct {
	ID        int64        `db:"id"`
	Content   []byte       `db:"content"`
	Status    OutboxStatus `db:"status"`
	CreatedAt sql.NullTime `db:"created_at"`
	UpdatedAt sql.NullTime `db:"updated_at"`
}
