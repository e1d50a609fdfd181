package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRequestFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "request.cue")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRequest_Valid(t *testing.T) {
	path := writeRequestFile(t, `
table: "book"
select: ["id", "title"]
filters: [{column: "title", op: "like", value: "Moby%"}]
order: [{column: "title"}, {column: "id", desc: true}]
limit: 10
joins: [{
	table:       "author"
	association: "belongsTo"
	filters: [{column: "country", op: "eq", value: "US"}]
}]
`)

	req, err := LoadRequest(path)
	require.NoError(t, err)

	assert.Equal(t, "book", req.Table)
	assert.Equal(t, []string{"id", "title"}, req.Select)
	require.Len(t, req.Filters, 1)
	assert.Equal(t, "like", req.Filters[0].Op)
	require.Len(t, req.Order, 2)
	assert.False(t, req.Order[0].Desc)
	assert.True(t, req.Order[1].Desc)
	require.NotNil(t, req.Limit)
	assert.Equal(t, 10, *req.Limit)

	require.Len(t, req.Joins, 1)
	join := req.Joins[0]
	assert.Equal(t, "author", join.Table)
	assert.Equal(t, "belongsTo", join.Association)
	// The schema defaults unstated kinds to a required join.
	assert.Equal(t, "required", join.Kind)
	require.Len(t, join.Filters, 1)
	assert.Equal(t, "US", join.Filters[0].Value)
}

func TestLoadRequest_RejectsUnknownOp(t *testing.T) {
	path := writeRequestFile(t, `
table: "book"
filters: [{column: "title", op: "equals", value: "x"}]
`)

	_, err := LoadRequest(path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestLoadRequest_RejectsMissingTable(t *testing.T) {
	path := writeRequestFile(t, `limit: 10`)

	_, err := LoadRequest(path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestLoadRequest_RejectsNegativeLimit(t *testing.T) {
	path := writeRequestFile(t, `
table: "book"
limit: -1
`)

	_, err := LoadRequest(path)
	assert.Error(t, err)
}

func TestLoadRequest_MissingFile(t *testing.T) {
	_, err := LoadRequest(filepath.Join(t.TempDir(), "nowhere.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestLoadRequest_SyntaxError(t *testing.T) {
	path := writeRequestFile(t, `table: "book`)

	_, err := LoadRequest(path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
