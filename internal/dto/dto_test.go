package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yukikurage/task-tracker-api/internal/errors"
	"github.com/yukikurage/task-tracker-api/internal/models"
)

func TestOptional_DistinguishesAbsentNullAndValue(t *testing.T) {
	var req UpdateTaskRequest
	require.NoError(t, json.Unmarshal([]byte(`{"title":"New","due_date":null}`), &req))

	assert.True(t, req.Title.HasValue())
	assert.Equal(t, "New", req.Title.Value)
	assert.True(t, req.DueDate.Set)
	assert.True(t, req.DueDate.Null)
	assert.False(t, req.Description.Set)
	assert.Nil(t, req.Description.Ptr())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-04-02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.April, 2, 0, 0, 0, 0, time.UTC), d.Time)

	d, err = ParseDate("2025-04-02T23:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.April, 2, 21, 30, 0, 0, time.UTC), d.Time)

	_, err = ParseDate("02/04/2025")
	assert.Error(t, err)

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `"2025-04-02"`, string(out))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "scriptalert(1)/script", Sanitize("  <script>alert(1)</script> "))
	assert.Equal(t, "plain", Sanitize("plain"))
}

func TestCreateTaskRequest_DueDateMustBeInFuture(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	req := CreateTaskRequest{Title: "x", DueDate: &Date{time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)}}
	err := req.Validate(now)
	require.Error(t, err)
	assert.Equal(t, []FieldError{{Field: "due_date", Message: "must be in the future"}}, FieldErrors(err))

	req.DueDate = &Date{time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC)}
	assert.NoError(t, req.Validate(now))
}

func TestCreateTaskRequest_ToModel(t *testing.T) {
	desc := "details"
	req := CreateTaskRequest{
		Title:       "Ship",
		Description: &desc,
		DueDate:     &Date{time.Date(2025, time.April, 2, 18, 0, 0, 0, time.UTC)},
	}

	task := req.ToModel()
	assert.Equal(t, "details", task.Description)
	assert.Equal(t, models.TaskStatus(""), task.Status)
	assert.Equal(t, time.Date(2025, time.April, 2, 0, 0, 0, 0, time.UTC), *task.DueDate)
}

func TestUpdateTaskRequest_Validate(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantKind   apperrors.Kind
		wantFields []string
	}{
		{name: "empty", body: `{}`, wantKind: apperrors.KindEmptyUpdate},
		{name: "null title", body: `{"title":null}`, wantFields: []string{"title"}},
		{name: "bad status", body: `{"status":"blocked"}`, wantFields: []string{"status"}},
		{name: "zero assignee", body: `{"assigned_to":0}`, wantFields: []string{"assigned_to"}},
		{name: "clear nullable fields", body: `{"description":null,"due_date":null,"assigned_to":null}`},
		{name: "valid values", body: `{"title":"t","priority":"high","due_date":"2030-01-01","assigned_to":3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req UpdateTaskRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))

			err := req.Validate()
			switch {
			case tt.wantKind != apperrors.KindUnknown:
				assert.Equal(t, tt.wantKind, apperrors.KindOf(err))
			case len(tt.wantFields) > 0:
				require.Error(t, err)
				var fields []string
				for _, fe := range FieldErrors(err) {
					fields = append(fields, fe.Field)
				}
				assert.Equal(t, tt.wantFields, fields)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestUpdateTaskRequest_Changes(t *testing.T) {
	var req UpdateTaskRequest
	require.NoError(t, json.Unmarshal([]byte(`{"status":"done","due_date":null,"assigned_to":null,"description":null}`), &req))

	changes := req.Changes()
	assert.Equal(t, models.TaskStatusDone, *changes.Status)
	assert.True(t, changes.ClearDueDate)
	assert.True(t, changes.ClearAssignee)
	assert.Equal(t, "", *changes.Description)
	assert.Nil(t, changes.Title)
	assert.Nil(t, changes.Priority)
}

func TestAssignTaskRequest_Changes(t *testing.T) {
	var req AssignTaskRequest
	require.NoError(t, json.Unmarshal([]byte(`{"assigned_to":5}`), &req))
	assert.Equal(t, uint64(5), *req.Changes().AssignedTo)

	req = AssignTaskRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"assigned_to":null}`), &req))
	assert.True(t, req.Changes().ClearAssignee)
}

func TestBulkUpdateRequest(t *testing.T) {
	var req BulkUpdateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"taskIds":[1,2],"updateData":{}}`), &req))
	assert.Equal(t, apperrors.KindEmptyInput, apperrors.KindOf(req.Validate()))

	req = BulkUpdateRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"taskIds":[1,2],"updateData":{"status":"done","assigned_to":null}}`), &req))
	require.NoError(t, req.Validate())

	changes := req.Changes()
	assert.Equal(t, models.TaskStatusDone, *changes.Status)
	assert.True(t, changes.ClearAssignee)
	assert.Nil(t, changes.Priority)
}

func TestParseAssignee(t *testing.T) {
	f, err := ParseAssignee("")
	require.NoError(t, err)
	assert.False(t, f.IsSet())

	f, err = ParseAssignee("unassigned")
	require.NoError(t, err)
	assert.True(t, f.Unassigned)

	f, err = ParseAssignee("12")
	require.NoError(t, err)
	assert.Equal(t, uint64(12), f.UserID)

	for _, bad := range []string{"0", "-1", "abc", "1.5"} {
		_, err = ParseAssignee(bad)
		assert.Error(t, err, bad)
	}
}

func TestUpdateUserRequest_Validate(t *testing.T) {
	var req UpdateUserRequest
	require.NoError(t, json.Unmarshal([]byte(`{"username":"a!","email":"nope"}`), &req))

	err := req.Validate()
	require.Error(t, err)
	fields := FieldErrors(err)
	require.Len(t, fields, 2)
	assert.Equal(t, "username", fields[0].Field)
	assert.Equal(t, "must only contain alphanumeric characters", fields[0].Message)
	assert.Equal(t, "email", fields[1].Field)

	req = UpdateUserRequest{}
	assert.Equal(t, apperrors.KindEmptyUpdate, apperrors.KindOf(req.Validate()))
}

func TestToTaskDTO(t *testing.T) {
	due := time.Date(2025, time.April, 2, 0, 0, 0, 0, time.UTC)
	assignee := uint64(7)
	task := models.Task{
		ID:         1,
		Title:      "Ship",
		Status:     models.TaskStatusTodo,
		Priority:   models.TaskPriorityHigh,
		DueDate:    &due,
		AssignedTo: &assignee,
		Assignee:   &models.User{ID: 7, Username: "alice", FullName: "Alice A"},
	}

	out, err := json.Marshal(ToTaskDTO(task))
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &body))
	assert.Equal(t, "2025-04-02", body["due_date"])
	assert.Equal(t, map[string]interface{}{"id": float64(7), "username": "alice", "full_name": "Alice A"}, body["assigned_user"])

	task.Assignee = nil
	task.DueDate = nil
	out, err = json.Marshal(ToTaskDTO(task))
	require.NoError(t, err)
	assert.Contains(t, string(out), `"due_date":null`)
	assert.NotContains(t, string(out), "assigned_user")
}
