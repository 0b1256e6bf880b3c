package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/idealoop/ideas/internal/storage"
	"github.com/idealoop/ideas/internal/types"
)

func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// GetIdea retrieves an idea by ID
func (s *MySQLStore) GetIdea(ctx context.Context, id int64) (*types.Idea, error) {
	var idea *types.Idea
	err := withRetry(ctx, func() error {
		var err error
		idea, err = storage.ScanIdea(s.db.QueryRowContext(ctx, "SELECT "+storage.IdeaColumns+" FROM ideas WHERE id = ?", id))
		return err
	})
	if err != nil {
		return nil, wrapDBError(fmt.Sprintf("get idea %d", id), err)
	}
	return idea, nil
}

// ListIdeas returns ideas matching filter in the filter's order.
func (s *MySQLStore) ListIdeas(ctx context.Context, filter types.IdeaFilter) ([]*types.Idea, error) {
	query, args := storage.ListIdeasQuery(filter)
	var ideas []*types.Idea
	err := withRetry(ctx, func() error {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()
		ideas = []*types.Idea{}
		for rows.Next() {
			idea, err := storage.ScanIdea(rows)
			if err != nil {
				return err
			}
			ideas = append(ideas, idea)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, wrapDBError("list ideas", err)
	}
	return ideas, nil
}

// ListMessages returns an idea's thread oldest first.
func (s *MySQLStore) ListMessages(ctx context.Context, ideaID int64) ([]*types.Message, error) {
	var msgs []*types.Message
	err := withRetry(ctx, func() error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT `+storage.MessageColumns+`
			FROM messages
			WHERE idea_id = ?
			ORDER BY created_at ASC, id ASC
		`, ideaID)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()
		msgs = []*types.Message{}
		for rows.Next() {
			m, err := storage.ScanMessage(rows)
			if err != nil {
				return err
			}
			msgs = append(msgs, m)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, wrapDBError(fmt.Sprintf("list messages for idea %d", ideaID), err)
	}
	return msgs, nil
}

// DeleteIdea removes an idea; its messages go with it via ON DELETE CASCADE.
func (s *MySQLStore) DeleteIdea(ctx context.Context, id int64) error {
	var res sql.Result
	err := withRetry(ctx, func() error {
		var err error
		res, err = s.db.ExecContext(ctx, "DELETE FROM ideas WHERE id = ?", id)
		return err
	})
	if err != nil {
		return wrapDBError(fmt.Sprintf("delete idea %d", id), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapDBError(fmt.Sprintf("delete idea %d", id), err)
	}
	if n == 0 {
		return fmt.Errorf("delete idea %d: %w", id, storage.ErrNotFound)
	}
	return nil
}
