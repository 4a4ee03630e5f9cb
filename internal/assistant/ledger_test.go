package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Backland-Labs/waitlist/internal/core"
)

func page(ids ...string) []core.Message {
	msgs := make([]core.Message, len(ids))
	for i, id := range ids {
		msgs[i] = core.Message{ID: id, Role: core.RoleAssistant}
	}
	return msgs
}

func ids(msgs []core.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func TestTrimToNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		cursor     string
		page       []core.Message
		wantIDs    []string
		wantCursor string
	}{
		{
			name:       "no cursor returns whole page",
			cursor:     "",
			page:       page("m3", "m2", "m1"),
			wantIDs:    []string{"m3", "m2", "m1"},
			wantCursor: "m3",
		},
		{
			name:       "cursor in middle returns strictly newer prefix",
			cursor:     "m2",
			page:       page("m4", "m3", "m2", "m1"),
			wantIDs:    []string{"m4", "m3"},
			wantCursor: "m4",
		},
		{
			name:       "cursor is newest",
			cursor:     "m4",
			page:       page("m4", "m3"),
			wantIDs:    []string{},
			wantCursor: "m4",
		},
		{
			name:       "cursor missing from page treats page as new",
			cursor:     "m0",
			page:       page("m4", "m3"),
			wantIDs:    []string{"m4", "m3"},
			wantCursor: "m4",
		},
		{
			name:       "empty page keeps cursor",
			cursor:     "m2",
			page:       page(),
			wantIDs:    []string{},
			wantCursor: "m2",
		},
		{
			name:       "empty page without cursor",
			cursor:     "",
			page:       nil,
			wantIDs:    []string{},
			wantCursor: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fresh, cursor := TrimToNew(tt.cursor, tt.page)
			assert.Equal(t, tt.wantIDs, ids(fresh))
			assert.Equal(t, tt.wantCursor, cursor)
		})
	}
}

func TestTrimToNew_Idempotent(t *testing.T) {
	t.Parallel()

	p := page("m4", "m3", "m2", "m1")
	first, c1 := TrimToNew("m2", p)
	second, c2 := TrimToNew("m2", p)

	assert.Equal(t, first, second)
	assert.Equal(t, c1, c2)
	assert.Equal(t, []string{"m4", "m3", "m2", "m1"}, ids(p), "page must not be modified")

	first[0].ID = "changed"
	assert.Equal(t, "m4", p[0].ID, "result must not alias the page")
}

func TestTrimToNew_CursorIsMonotonic(t *testing.T) {
	t.Parallel()

	// Pages as the backend grows the thread, newest first.
	pages := [][]core.Message{
		page("m1"),
		page("m2", "m1"),
		page("m2", "m1"),
		page("m5", "m4", "m3", "m2", "m1"),
	}
	rank := map[string]int{"": 0, "m1": 1, "m2": 2, "m3": 3, "m4": 4, "m5": 5}

	cursor := ""
	for _, p := range pages {
		_, next := TrimToNew(cursor, p)
		assert.GreaterOrEqual(t, rank[next], rank[cursor])
		cursor = next
	}
	assert.Equal(t, "m5", cursor)
}
