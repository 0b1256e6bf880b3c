package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/idealoop/ideas/internal/storage"
	"github.com/idealoop/ideas/internal/types"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02 15:04:05.000000"

func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// GetIdea retrieves an idea by ID
func (s *SQLiteStorage) GetIdea(ctx context.Context, id int64) (*types.Idea, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+storage.IdeaColumns+" FROM ideas WHERE id = ?", id)
	idea, err := storage.ScanIdea(row)
	if err != nil {
		return nil, wrapDBErrorf(err, "get idea %d", id)
	}
	return idea, nil
}

// ListIdeas returns ideas matching filter in the filter's order.
func (s *SQLiteStorage) ListIdeas(ctx context.Context, filter types.IdeaFilter) ([]*types.Idea, error) {
	query, args := storage.ListIdeasQuery(filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError("list ideas", err)
	}
	defer func() { _ = rows.Close() }()

	ideas := []*types.Idea{}
	for rows.Next() {
		idea, err := storage.ScanIdea(rows)
		if err != nil {
			return nil, wrapDBError("scan idea", err)
		}
		ideas = append(ideas, idea)
	}
	return ideas, wrapDBError("list ideas", rows.Err())
}

// ListMessages returns an idea's thread oldest first.
func (s *SQLiteStorage) ListMessages(ctx context.Context, ideaID int64) ([]*types.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+storage.MessageColumns+`
		FROM messages
		WHERE idea_id = ?
		ORDER BY created_at ASC, id ASC
	`, ideaID)
	if err != nil {
		return nil, wrapDBErrorf(err, "list messages for idea %d", ideaID)
	}
	defer func() { _ = rows.Close() }()

	msgs := []*types.Message{}
	for rows.Next() {
		m, err := storage.ScanMessage(rows)
		if err != nil {
			return nil, wrapDBError("scan message", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, wrapDBErrorf(rows.Err(), "list messages for idea %d", ideaID)
}

// DeleteIdea removes an idea; its messages go with it via ON DELETE CASCADE.
func (s *SQLiteStorage) DeleteIdea(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM ideas WHERE id = ?", id)
	if err != nil {
		return wrapDBErrorf(err, "delete idea %d", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapDBErrorf(err, "delete idea %d", id)
	}
	if n == 0 {
		return fmt.Errorf("delete idea %d: %w", id, storage.ErrNotFound)
	}
	return nil
}
