package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/idealoop/ideas/internal/storage"
	"github.com/idealoop/ideas/internal/types"
)

var _ storage.Transaction = (*mysqlTx)(nil)

type mysqlTx struct {
	tx *sql.Tx
}

// RunInTransaction executes fn in a READ COMMITTED transaction. Only BEGIN is
// retried on transient errors; once fn has run the outcome is reported as is.
func (s *MySQLStore) RunInTransaction(ctx context.Context, fn func(tx storage.Transaction) error) (err error) {
	if s.closed.Load() {
		return storage.ErrClosed
	}
	var sqlTx *sql.Tx
	err = withRetry(ctx, func() error {
		var beginErr error
		sqlTx, beginErr = s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
		return beginErr
	})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = sqlTx.Rollback()
			panic(r)
		}
	}()

	if err := fn(&mysqlTx{tx: sqlTx}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (t *mysqlTx) GetIdeaForUpdate(ctx context.Context, id int64) (*types.Idea, error) {
	row := t.tx.QueryRowContext(ctx, "SELECT "+storage.IdeaColumns+" FROM ideas WHERE id = ? FOR UPDATE", id)
	idea, err := storage.ScanIdea(row)
	if err != nil {
		return nil, wrapDBError(fmt.Sprintf("get idea %d", id), err)
	}
	return idea, nil
}

func (t *mysqlTx) InsertIdea(ctx context.Context, idea *types.Idea) error {
	if err := idea.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	now := nowUTC()
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO ideas (content, status, owner_agent, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, idea.Content, string(idea.Status), idea.OwnerAgent, now, now)
	if err != nil {
		return wrapDBError("insert idea", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return wrapDBError("insert idea id", err)
	}
	idea.ID = id
	idea.CreatedAt = now
	idea.UpdatedAt = now
	return nil
}

func (t *mysqlTx) UpdateIdea(ctx context.Context, idea *types.Idea) error {
	if err := idea.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	now := nowUTC()
	// RowsAffected would be 0 for an update that changes nothing, so
	// existence is checked separately.
	var exists bool
	if err := t.tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM ideas WHERE id = ?)", idea.ID).Scan(&exists); err != nil {
		return wrapDBError(fmt.Sprintf("update idea %d", idea.ID), err)
	}
	if !exists {
		return fmt.Errorf("update idea %d: %w", idea.ID, storage.ErrNotFound)
	}
	_, err := t.tx.ExecContext(ctx, `
		UPDATE ideas SET content = ?, status = ?, owner_agent = ?, updated_at = ?
		WHERE id = ?
	`, idea.Content, string(idea.Status), idea.OwnerAgent, now, idea.ID)
	if err != nil {
		return wrapDBError(fmt.Sprintf("update idea %d", idea.ID), err)
	}
	idea.UpdatedAt = now
	return nil
}

func (t *mysqlTx) AppendMessage(ctx context.Context, ideaID int64, kind types.MessageKind, content string) (*types.Message, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("invalid message kind: %s", kind)
	}
	now := nowUTC()
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO messages (idea_id, kind, content, created_at)
		VALUES (?, ?, ?, ?)
	`, ideaID, string(kind), content, now)
	if err != nil {
		return nil, wrapDBError(fmt.Sprintf("append message to idea %d", ideaID), err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, wrapDBError("append message id", err)
	}
	return &types.Message{ID: id, IdeaID: ideaID, Kind: kind, Content: content, CreatedAt: now}, nil
}
