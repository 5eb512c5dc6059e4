// Package backendfakes provides an in-memory backend.Client for tests.
package backendfakes

import (
	"context"
	"fmt"
	"sync"

	"github.com/gridbase/gridgate/backend"
	errs "github.com/gridbase/gridgate/internal/errors"
)

var _ backend.Client = (*FakeClient)(nil)

// FakeClient implements backend.Client against in-memory maps. Set Err to
// make every call fail (the validator sees this as a rejected credential
// exchange). Calls records every operation that reached the fake, which lets
// tests assert that guarded operations never touched the backend.
type FakeClient struct {
	lock sync.Mutex

	Err    error
	Calls  []string
	Tables []backend.Table
	Schema map[string][]backend.Field
	Record map[string]map[string]any // recordID -> fields
	Views  []backend.View
	Files  []backend.FileInfo
	Tasks  []backend.Task
	Users  []backend.DirectoryUser
}

func NewFakeClient() *FakeClient {
	return &FakeClient{
		Tables: []backend.Table{{ID: "tbl-1", Name: "projects"}},
		Schema: map[string][]backend.Field{
			"tbl-1": {{ID: "fld-1", Name: "title", Type: "text", Required: true}},
		},
		Record: map[string]map[string]any{},
	}
}

// Factory returns a backend.Factory that hands out this same fake for every
// credential set, mirroring how the dispatcher builds per-request clients.
func (f *FakeClient) Factory() backend.Factory {
	return func(backend.Credentials) backend.Client { return f }
}

func (f *FakeClient) record(call string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.Calls = append(f.Calls, call)
	return nil
}

// CallNames returns the operations that reached the backend.
func (f *FakeClient) CallNames() []string {
	f.lock.Lock()
	defer f.lock.Unlock()
	out := make([]string, len(f.Calls))
	copy(out, f.Calls)
	return out
}

func (f *FakeClient) ListTables(ctx context.Context) ([]backend.Table, error) {
	if err := f.record("ListTables"); err != nil {
		return nil, err
	}
	return f.Tables, nil
}

func (f *FakeClient) GetTableSchema(ctx context.Context, tableID string) ([]backend.Field, error) {
	if err := f.record("GetTableSchema"); err != nil {
		return nil, err
	}
	fields, ok := f.Schema[tableID]
	if !ok {
		return nil, errs.ErrBackendNotFound
	}
	return fields, nil
}

func (f *FakeClient) CreateTable(ctx context.Context, name string, fields []backend.Field) (*backend.Table, error) {
	if err := f.record("CreateTable"); err != nil {
		return nil, err
	}
	table := backend.Table{ID: fmt.Sprintf("tbl-%d", len(f.Tables)+1), Name: name}
	f.Tables = append(f.Tables, table)
	f.Schema[table.ID] = fields
	return &table, nil
}

func (f *FakeClient) DeleteTable(ctx context.Context, tableID string) error {
	if err := f.record("DeleteTable"); err != nil {
		return err
	}
	for i, t := range f.Tables {
		if t.ID == tableID {
			f.Tables = append(f.Tables[:i], f.Tables[i+1:]...)
			return nil
		}
	}
	return errs.ErrBackendNotFound
}

func (f *FakeClient) CreateField(ctx context.Context, tableID string, field backend.Field) (*backend.Field, error) {
	if err := f.record("CreateField"); err != nil {
		return nil, err
	}
	field.ID = fmt.Sprintf("fld-%d", len(f.Schema[tableID])+1)
	f.Schema[tableID] = append(f.Schema[tableID], field)
	return &field, nil
}

func (f *FakeClient) DeleteField(ctx context.Context, tableID, fieldID string) error {
	return f.record("DeleteField")
}

func (f *FakeClient) ListRecords(ctx context.Context, tableID string, query backend.RecordQuery) (*backend.RecordPage, error) {
	if err := f.record("ListRecords"); err != nil {
		return nil, err
	}
	records := make([]map[string]any, 0, len(f.Record))
	for _, r := range f.Record {
		records = append(records, r)
	}
	return &backend.RecordPage{Records: records, Total: len(records), Page: query.Page}, nil
}

func (f *FakeClient) GetRecord(ctx context.Context, tableID, recordID string) (map[string]any, error) {
	if err := f.record("GetRecord"); err != nil {
		return nil, err
	}
	record, ok := f.Record[recordID]
	if !ok {
		return nil, errs.ErrBackendNotFound
	}
	return record, nil
}

func (f *FakeClient) CreateRecord(ctx context.Context, tableID string, fields map[string]any) (map[string]any, error) {
	if err := f.record("CreateRecord"); err != nil {
		return nil, err
	}
	id := fmt.Sprintf("rec-%d", len(f.Record)+1)
	fields["id"] = id
	f.Record[id] = fields
	return fields, nil
}

func (f *FakeClient) UpdateRecord(ctx context.Context, tableID, recordID string, fields map[string]any) (map[string]any, error) {
	if err := f.record("UpdateRecord"); err != nil {
		return nil, err
	}
	record, ok := f.Record[recordID]
	if !ok {
		return nil, errs.ErrBackendNotFound
	}
	for k, v := range fields {
		record[k] = v
	}
	return record, nil
}

func (f *FakeClient) DeleteRecords(ctx context.Context, tableID string, recordIDs []string) (int, error) {
	if err := f.record("DeleteRecords"); err != nil {
		return 0, err
	}
	deleted := 0
	for _, id := range recordIDs {
		if _, ok := f.Record[id]; ok {
			delete(f.Record, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *FakeClient) ListViews(ctx context.Context, tableID string) ([]backend.View, error) {
	if err := f.record("ListViews"); err != nil {
		return nil, err
	}
	return f.Views, nil
}

func (f *FakeClient) ListFiles(ctx context.Context, path string) ([]backend.FileInfo, error) {
	if err := f.record("ListFiles"); err != nil {
		return nil, err
	}
	return f.Files, nil
}

func (f *FakeClient) DeleteFile(ctx context.Context, path string) error {
	return f.record("DeleteFile")
}

func (f *FakeClient) ListTasks(ctx context.Context) ([]backend.Task, error) {
	if err := f.record("ListTasks"); err != nil {
		return nil, err
	}
	return f.Tasks, nil
}

func (f *FakeClient) CreateTask(ctx context.Context, title, due string) (*backend.Task, error) {
	if err := f.record("CreateTask"); err != nil {
		return nil, err
	}
	task := backend.Task{ID: fmt.Sprintf("task-%d", len(f.Tasks)+1), Title: title, Due: due}
	f.Tasks = append(f.Tasks, task)
	return &task, nil
}

func (f *FakeClient) CompleteTask(ctx context.Context, taskID string) error {
	if err := f.record("CompleteTask"); err != nil {
		return err
	}
	for i := range f.Tasks {
		if f.Tasks[i].ID == taskID {
			f.Tasks[i].Completed = true
			return nil
		}
	}
	return errs.ErrBackendNotFound
}

func (f *FakeClient) ListDirectoryUsers(ctx context.Context) ([]backend.DirectoryUser, error) {
	if err := f.record("ListDirectoryUsers"); err != nil {
		return nil, err
	}
	return f.Users, nil
}

func (f *FakeClient) CreateDirectoryUser(ctx context.Context, user backend.DirectoryUser, password string) (*backend.DirectoryUser, error) {
	if err := f.record("CreateDirectoryUser"); err != nil {
		return nil, err
	}
	user.ID = fmt.Sprintf("usr-%d", len(f.Users)+1)
	f.Users = append(f.Users, user)
	return &user, nil
}

func (f *FakeClient) DeleteDirectoryUser(ctx context.Context, userID string) error {
	if err := f.record("DeleteDirectoryUser"); err != nil {
		return err
	}
	for i, u := range f.Users {
		if u.ID == userID {
			f.Users = append(f.Users[:i], f.Users[i+1:]...)
			return nil
		}
	}
	return errs.ErrBackendNotFound
}
