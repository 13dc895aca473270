package db

import (
	"context"
	"time"
)

const createSquad = `-- name: CreateSquad :one
INSERT INTO squads (name, tag, created_at) VALUES (?, ?, ?)
RETURNING id, name, tag, created_at
`

type CreateSquadParams struct {
	Name      string
	Tag       string
	CreatedAt time.Time
}

func (q *Queries) CreateSquad(ctx context.Context, arg CreateSquadParams) (Squad, error) {
	row := q.db.QueryRowContext(ctx, createSquad, arg.Name, arg.Tag, arg.CreatedAt)
	var i Squad
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Tag,
		&i.CreatedAt,
	)
	return i, err
}

const deleteSquadMember = `-- name: DeleteSquadMember :exec
DELETE FROM squad_members WHERE account_id = ?
`

func (q *Queries) DeleteSquadMember(ctx context.Context, accountID int64) error {
	_, err := q.db.ExecContext(ctx, deleteSquadMember, accountID)
	return err
}

const getMembershipByIdentity = `-- name: GetMembershipByIdentity :one
SELECT a.id AS account_id, a.player_identity, CAST(COALESCE(sm.squad_id, 0) AS INTEGER) AS squad_id
FROM accounts a
LEFT JOIN squad_members sm ON sm.account_id = a.id
WHERE a.player_identity = ?
`

type GetMembershipByIdentityRow struct {
	AccountID      int64
	PlayerIdentity string
	SquadID        int64
}

func (q *Queries) GetMembershipByIdentity(ctx context.Context, playerIdentity string) (GetMembershipByIdentityRow, error) {
	row := q.db.QueryRowContext(ctx, getMembershipByIdentity, playerIdentity)
	var i GetMembershipByIdentityRow
	err := row.Scan(&i.AccountID, &i.PlayerIdentity, &i.SquadID)
	return i, err
}

const getSquad = `-- name: GetSquad :one
SELECT id, name, tag, created_at FROM squads WHERE id = ?
`

func (q *Queries) GetSquad(ctx context.Context, id int64) (Squad, error) {
	row := q.db.QueryRowContext(ctx, getSquad, id)
	var i Squad
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Tag,
		&i.CreatedAt,
	)
	return i, err
}

const upsertAccount = `-- name: UpsertAccount :exec
INSERT INTO accounts (id, player_identity, created_at)
VALUES (?, ?, ?)
ON CONFLICT (id) DO UPDATE SET player_identity = excluded.player_identity
`

type UpsertAccountParams struct {
	ID             int64
	PlayerIdentity string
	CreatedAt      time.Time
}

func (q *Queries) UpsertAccount(ctx context.Context, arg UpsertAccountParams) error {
	_, err := q.db.ExecContext(ctx, upsertAccount, arg.ID, arg.PlayerIdentity, arg.CreatedAt)
	return err
}

const upsertSquadMember = `-- name: UpsertSquadMember :exec
INSERT INTO squad_members (account_id, squad_id, joined_at)
VALUES (?, ?, ?)
ON CONFLICT (account_id) DO UPDATE SET squad_id = excluded.squad_id, joined_at = excluded.joined_at
`

type UpsertSquadMemberParams struct {
	AccountID int64
	SquadID   int64
	JoinedAt  time.Time
}

func (q *Queries) UpsertSquadMember(ctx context.Context, arg UpsertSquadMemberParams) error {
	_, err := q.db.ExecContext(ctx, upsertSquadMember, arg.AccountID, arg.SquadID, arg.JoinedAt)
	return err
}
