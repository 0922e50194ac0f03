package task

import (
	"encoding/json"
	"testing"
	"time"

	"taskboard/internal/models"
	"taskboard/pkg/apierrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, body string, dst interface{}) map[string]json.RawMessage {
	t.Helper()
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(body), &raw))
	require.NoError(t, json.Unmarshal([]byte(body), dst))
	return raw
}

func TestBuildCreateInput(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
		check   func(t *testing.T, in CreateInput)
	}{
		{name: "missing title", body: `{"columnId":"c"}`, wantErr: true},
		{name: "missing column", body: `{"title":"x"}`, wantErr: true},
		{name: "null priority", body: `{"title":"x","columnId":"c","priority":null}`, wantErr: true},
		{name: "bad priority", body: `{"title":"x","columnId":"c","priority":"urgent"}`, wantErr: true},
		{name: "bad due date", body: `{"title":"x","columnId":"c","dueDate":"tomorrow"}`, wantErr: true},
		{name: "blank checklist item", body: `{"title":"x","columnId":"c","checklist":[{"text":" "}]}`, wantErr: true},
		{
			name: "defaults",
			body: `{"title":"  x  ","columnId":"c"}`,
			check: func(t *testing.T, in CreateInput) {
				assert.Equal(t, "x", in.Title)
				assert.Equal(t, models.PriorityMedium, in.Priority)
				assert.Nil(t, in.DueDate)
				assert.Empty(t, in.Checklist)
			},
		},
		{
			name: "full",
			body: `{"title":"x","columnId":"c","priority":"low","dueDate":"2025-03-01","checklist":[{"text":"a","completed":true}]}`,
			check: func(t *testing.T, in CreateInput) {
				assert.Equal(t, models.PriorityLow, in.Priority)
				require.NotNil(t, in.DueDate)
				assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), *in.DueDate)
				assert.Equal(t, []models.ChecklistItem{{Text: "a", Completed: true}}, in.Checklist)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req CreateTaskRequest
			raw := decode(t, tt.body, &req)
			in, err := BuildCreateInput(req, raw)
			if tt.wantErr {
				require.ErrorIs(t, err, apierrors.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			tt.check(t, in)
		})
	}
}

func TestBuildPatch(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
		check   func(t *testing.T, p Patch)
	}{
		{name: "empty", body: `{}`, wantErr: true},
		{name: "unknown fields only", body: `{"board":"x"}`, wantErr: true},
		{name: "null title", body: `{"title":null}`, wantErr: true},
		{name: "blank title", body: `{"title":" "}`, wantErr: true},
		{name: "null priority", body: `{"priority":null}`, wantErr: true},
		{name: "null checklist", body: `{"checklist":null}`, wantErr: true},
		{name: "bad due date", body: `{"dueDate":"03/01/2025"}`, wantErr: true},
		{
			name: "clear description and due date",
			body: `{"description":null,"dueDate":null}`,
			check: func(t *testing.T, p Patch) {
				assert.True(t, p.DescriptionSet)
				assert.Nil(t, p.Description)
				assert.True(t, p.DueDateSet)
				assert.Nil(t, p.DueDate)
				assert.False(t, p.Empty())
			},
		},
		{
			name: "rfc3339 due date",
			body: `{"dueDate":"2025-03-01T10:00:00Z","priority":"high"}`,
			check: func(t *testing.T, p Patch) {
				require.NotNil(t, p.DueDate)
				assert.Equal(t, 10, p.DueDate.Hour())
				require.NotNil(t, p.Priority)
				assert.Equal(t, models.PriorityHigh, *p.Priority)
				assert.False(t, p.DescriptionSet)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req UpdateTaskRequest
			raw := decode(t, tt.body, &req)
			p, err := BuildPatch(req, raw)
			if tt.wantErr {
				require.ErrorIs(t, err, apierrors.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			tt.check(t, p)
		})
	}
}

func TestBuildMoveInput(t *testing.T) {
	two := 2
	tests := []struct {
		name  string
		index string
		want  *int
	}{
		{name: "integer", index: `2`, want: &two},
		{name: "absent"},
		{name: "null", index: `null`},
		{name: "string", index: `"2"`},
		{name: "fraction", index: `1.5`},
		{name: "object", index: `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := MoveTaskRequest{FromColumnID: " a ", ToColumnID: "b"}
			if tt.index != "" {
				req.Index = json.RawMessage(tt.index)
			}
			in := BuildMoveInput("t1", req)
			assert.Equal(t, MoveInput{TaskID: "t1", FromColumnID: "a", ToColumnID: "b", Index: tt.want}, in)
		})
	}

	assert.Equal(t, MoveInput{TaskID: "t1"}, BuildMoveInput("t1", MoveTaskRequest{}))
}
