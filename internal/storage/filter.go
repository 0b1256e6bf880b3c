package storage

import (
	"fmt"
	"strings"

	"github.com/idealoop/ideas/internal/types"
)

// IdeaColumns is the select list scanned by ScanIdea.
const IdeaColumns = "id, content, status, owner_agent, created_at, updated_at"

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// ScanIdea reads one row selected with IdeaColumns.
func ScanIdea(s Scanner) (*types.Idea, error) {
	var idea types.Idea
	if err := s.Scan(&idea.ID, &idea.Content, &idea.Status, &idea.OwnerAgent, &idea.CreatedAt, &idea.UpdatedAt); err != nil {
		return nil, err
	}
	idea.CreatedAt = idea.CreatedAt.UTC()
	idea.UpdatedAt = idea.UpdatedAt.UTC()
	return &idea, nil
}

// MessageColumns is the select list scanned by ScanMessage.
const MessageColumns = "id, idea_id, kind, content, created_at"

// ScanMessage reads one row selected with MessageColumns.
func ScanMessage(s Scanner) (*types.Message, error) {
	var m types.Message
	if err := s.Scan(&m.ID, &m.IdeaID, &m.Kind, &m.Content, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.CreatedAt = m.CreatedAt.UTC()
	return &m, nil
}

// ListIdeasQuery builds the SELECT for ListIdeas. Both backends accept the
// same "?" placeholders.
func ListIdeasQuery(filter types.IdeaFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if filter.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, string(s))
		}
		where = append(where, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ", ")))
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(IdeaColumns)
	b.WriteString(" FROM ideas")
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	switch filter.OrderBy {
	case types.OrderLeastRecentlyUpdated:
		b.WriteString(" ORDER BY updated_at ASC, id ASC")
	default:
		b.WriteString(" ORDER BY created_at DESC, id DESC")
	}
	if filter.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}
	return b.String(), args
}
