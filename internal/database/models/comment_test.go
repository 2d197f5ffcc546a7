package models

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/robalyx/my2cents/internal/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.uber.org/zap"
)

// newOfflineModel returns a model whose queries can be rendered without a server.
func newOfflineModel(t *testing.T) *CommentModel {
	t.Helper()

	db := bun.NewDB(sql.OpenDB(pgdriver.NewConnector()), pgdialect.New())
	t.Cleanup(func() { _ = db.Close() })

	return NewComment(db, zap.NewNop())
}

func unquoted(query string) string {
	return strings.ReplaceAll(query, `"`, "")
}

func TestThreadQueryBreaksTiesByInsertion(t *testing.T) {
	t.Parallel()

	model := newOfflineModel(t)

	var comments []*types.Comment
	query := unquoted(model.threadQuery(&comments, "hello-world").String())

	assert.Contains(t, query, "comment.slug = 'hello-world'")
	assert.Contains(t, query, "ORDER BY comment.created_at DESC, comment.id ASC")
}

func TestAwaitingQueryBreaksTiesByInsertion(t *testing.T) {
	t.Parallel()

	model := newOfflineModel(t)

	var comments []*types.Comment
	query := unquoted(model.awaitingQuery(&comments, 20).String())

	assert.Contains(t, query, "ORDER BY comment.created_at DESC, comment.id ASC")
	assert.Contains(t, query, "LIMIT 20")
}
