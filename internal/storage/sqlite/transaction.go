package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/idealoop/ideas/internal/storage"
	"github.com/idealoop/ideas/internal/types"
)

var _ storage.Transaction = (*sqliteTxStorage)(nil)

// sqliteTxStorage implements storage.Transaction over a dedicated connection
// holding an IMMEDIATE transaction.
type sqliteTxStorage struct {
	conn *sql.Conn
}

// RunInTransaction executes fn within a database transaction.
//
// The transaction uses BEGIN IMMEDIATE, so the database write lock is held
// from the first read. A concurrent operation on the same idea therefore
// waits for this one to commit and then reads the status it left behind.
//
// If fn returns an error or panics the transaction is rolled back; a panic is
// re-raised to the caller.
func (s *SQLiteStorage) RunInTransaction(ctx context.Context, fn func(tx storage.Transaction) error) error {
	if s.closed.Load() {
		return storage.ErrClosed
	}
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection for transaction: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if err := beginImmediateWithRetry(ctx, conn); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			// Background context so the rollback runs even if ctx is cancelled
			_, _ = conn.ExecContext(context.Background(), "ROLLBACK")
		}
	}()

	if err := fn(&sqliteTxStorage{conn: conn}); err != nil {
		return err
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}

// beginImmediateWithRetry retries BEGIN IMMEDIATE while another connection
// holds the write lock past busy_timeout.
func beginImmediateWithRetry(ctx context.Context, conn *sql.Conn) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 10 * time.Millisecond
	bo.MaxInterval = 500 * time.Millisecond
	bo.MaxElapsedTime = 5 * time.Second

	return backoff.Retry(func() error {
		_, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE")
		if err == nil {
			return nil
		}
		if isBusyError(err) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(bo, ctx))
}

func (t *sqliteTxStorage) GetIdeaForUpdate(ctx context.Context, id int64) (*types.Idea, error) {
	row := t.conn.QueryRowContext(ctx, "SELECT "+storage.IdeaColumns+" FROM ideas WHERE id = ?", id)
	idea, err := storage.ScanIdea(row)
	if err != nil {
		return nil, wrapDBErrorf(err, "get idea %d", id)
	}
	return idea, nil
}

func (t *sqliteTxStorage) InsertIdea(ctx context.Context, idea *types.Idea) error {
	if err := idea.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	now := nowUTC()
	res, err := t.conn.ExecContext(ctx, `
		INSERT INTO ideas (content, status, owner_agent, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, idea.Content, string(idea.Status), idea.OwnerAgent, formatTime(now), formatTime(now))
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

func (t *sqliteTxStorage) UpdateIdea(ctx context.Context, idea *types.Idea) error {
	if err := idea.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	now := nowUTC()
	res, err := t.conn.ExecContext(ctx, `
		UPDATE ideas SET content = ?, status = ?, owner_agent = ?, updated_at = ?
		WHERE id = ?
	`, idea.Content, string(idea.Status), idea.OwnerAgent, formatTime(now), idea.ID)
	if err != nil {
		return wrapDBErrorf(err, "update idea %d", idea.ID)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update idea %d: %w", idea.ID, storage.ErrNotFound)
	}
	idea.UpdatedAt = now
	return nil
}

func (t *sqliteTxStorage) AppendMessage(ctx context.Context, ideaID int64, kind types.MessageKind, content string) (*types.Message, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("invalid message kind: %s", kind)
	}
	now := nowUTC()
	res, err := t.conn.ExecContext(ctx, `
		INSERT INTO messages (idea_id, kind, content, created_at)
		VALUES (?, ?, ?, ?)
	`, ideaID, string(kind), content, formatTime(now))
	if err != nil {
		return nil, wrapDBErrorf(err, "append message to idea %d", ideaID)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, wrapDBError("append message id", err)
	}
	return &types.Message{ID: id, IdeaID: ideaID, Kind: kind, Content: content, CreatedAt: now}, nil
}
