package backend

import (
	"context"
	"strings"
)

// Credentials are the three fields a user supplies on the credential form.
// The gateway holds them only inside a live session record; they are never
// written anywhere else.
type Credentials struct {
	ServerURL string `json:"server_url"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// Complete reports whether all three credential fields are present.
func (c Credentials) Complete() bool {
	return strings.TrimSpace(c.ServerURL) != "" &&
		strings.TrimSpace(c.Email) != "" &&
		strings.TrimSpace(c.Password) != ""
}

// Table describes a Gridbase table.
type Table struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	RecordCount int    `json:"record_count,omitempty"`
}

// Field describes a column of a table.
type Field struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required,omitempty"`
}

// View describes a saved view over a table.
type View struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// RecordQuery holds pagination and filtering parameters for record retrieval.
type RecordQuery struct {
	Page     int
	PageSize int
	Filter   string
	OrderBy  string
}

// RecordPage is one page of records plus the total count.
type RecordPage struct {
	Records []map[string]any `json:"records"`
	Total   int              `json:"total"`
	Page    int              `json:"page"`
}

// FileInfo describes a stored file.
type FileInfo struct {
	Path       string `json:"path"`
	Size       int64  `json:"size"`
	ModifiedAt string `json:"modified_at,omitempty"`
}

// Task describes a scheduled task.
type Task struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Due       string `json:"due,omitempty"`
	Completed bool   `json:"completed"`
}

// DirectoryUser describes an identity-directory account.
type DirectoryUser struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	Admin       bool   `json:"admin,omitempty"`
}

// Client is the capability interface the Command Executor calls into.
// Each operation in the executor catalog maps to exactly one of these calls.
// Implementations authenticate with the credentials they were built from.
type Client interface {
	ListTables(ctx context.Context) ([]Table, error)
	GetTableSchema(ctx context.Context, tableID string) ([]Field, error)
	CreateTable(ctx context.Context, name string, fields []Field) (*Table, error)
	DeleteTable(ctx context.Context, tableID string) error

	CreateField(ctx context.Context, tableID string, field Field) (*Field, error)
	DeleteField(ctx context.Context, tableID, fieldID string) error

	ListRecords(ctx context.Context, tableID string, query RecordQuery) (*RecordPage, error)
	GetRecord(ctx context.Context, tableID, recordID string) (map[string]any, error)
	CreateRecord(ctx context.Context, tableID string, fields map[string]any) (map[string]any, error)
	UpdateRecord(ctx context.Context, tableID, recordID string, fields map[string]any) (map[string]any, error)
	DeleteRecords(ctx context.Context, tableID string, recordIDs []string) (int, error)

	ListViews(ctx context.Context, tableID string) ([]View, error)

	ListFiles(ctx context.Context, path string) ([]FileInfo, error)
	DeleteFile(ctx context.Context, path string) error

	ListTasks(ctx context.Context) ([]Task, error)
	CreateTask(ctx context.Context, title, due string) (*Task, error)
	CompleteTask(ctx context.Context, taskID string) error

	ListDirectoryUsers(ctx context.Context) ([]DirectoryUser, error)
	CreateDirectoryUser(ctx context.Context, user DirectoryUser, password string) (*DirectoryUser, error)
	DeleteDirectoryUser(ctx context.Context, userID string) error
}

// Factory builds a Client scoped to one set of credentials. The dispatcher
// calls it on every authenticated request so clients are never cached across
// calls.
type Factory func(creds Credentials) Client
