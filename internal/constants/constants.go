package constants

// Pagination
const (
	MinPageSize        = 1
	DefaultPageSize    = 50
	MaxPageSize        = 100
	DefaultSearchLimit = 20
)

// Validation
const (
	MaxSearchLength      = 100
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000
	MinUsernameLength    = 3
	MaxUsernameLength    = 50
	MaxEmailLength       = 100
	MaxFullNameLength    = 100
)

// AI task suggestions
const (
	MaxAIInputLength    = 5000
	MaxAIGeneratedTasks = 20
)

// Context keys
const (
	ContextKeyTask      = "task"
	ContextKeyUser      = "user"
	ContextKeyRequestID = "request_id"
)

// AssigneeUnassigned is the assignedTo query value matching tasks without an assignee.
const AssigneeUnassigned = "unassigned"

const APIVersion = "1.0.0"
