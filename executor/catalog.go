package executor

import (
	"context"
	"fmt"

	"github.com/gridbase/gridgate/backend"
)

// registerCatalog wires every operation to exactly one backend call.
// Destructive operations are table, field, record-set, file and
// directory-user deletion.
func (e *Executor) registerCatalog() {
	e.register(&Operation{
		Name:        "list_tables",
		Description: "Enumerate the tables in the account",
		handler: func(ctx context.Context, client backend.Client, args Args) (any, error) {
			return client.ListTables(ctx)
		},
	})

	e.register(&Operation{
		Name:        "get_table_schema",
		Description: "Fetch the field schema of a table",
		handler: func(ctx context.Context, client backend.Client, args Args) (any, error) {
			tableID, err := args.String("table_id")
			if err != nil {
				return nil, err
			}
			return client.GetTableSchema(ctx, tableID)
		},
	})

	e.register(&Operation{
		Name:        "create_table",
		Description: "Create a new table",
		handler: func(ctx context.Context, client backend.Client, args Args) (any, error) {
			name, err := args.String("name")
			if err != nil {
				return nil, err
			}
			return client.CreateTable(ctx, name, nil)
		},
	})

	e.register(&Operation{
		Name:        "delete_table",
		Description: "Delete a table and all of its records",
		Destructive: true,
		handler: func(ctx context.Context, client backend.Client, args Args) (any, error) {
			tableID, err := args.String("table_id")
			if err != nil {
				return nil, err
			}
			if err := client.DeleteTable(ctx, tableID); err != nil {
				return nil, err
			}
			return fmt.Sprintf("table %s deleted", tableID), nil
		},
	})

	e.register(&Operation{
		Name:        "create_field",
		Description: "Add a field to a table",
		handler: func(ctx context.Context, client backend.Client, args Args) (any, error) {
			tableID, err := args.String("table_id")
			if err != nil {
				return nil, err
			}
			name, err := args.String("name")
			if err != nil {
				return nil, err
			}
			fieldType := args.OptionalString("type")
			if fieldType == "" {
				fieldType = "text"
			}
			return client.CreateField(ctx, tableID, backend.Field{Name: name, Type: fieldType})
		},
	})

	e.register(&Operation{
		Name:        "delete_field",
		Description: "Delete a field from a table",
		Destructive: true,
		handler: func(ctx context.Context, client backend.Client, args Args) (any, error) {
			tableID, err := args.String("table_id")
			if err != nil {
				return nil, err
			}
			fieldID, err := args.String("field_id")
			if err != nil {
				return nil, err
			}
			if err := client.DeleteField(ctx, tableID, fieldID); err != nil {
				return nil, err
			}
			return fmt.Sprintf("field %s deleted", fieldID), nil
		},
	})

	e.register(&Operation{
		Name:        "list_records",
		Description: "Retrieve records from a table with pagination and filtering",
		handler: func(ctx context.Context, client backend.Client, args Args) (any, error) {
			tableID, err := args.String("table_id")
			if err != nil {
				return nil, err
			}
			query := backend.RecordQuery{
				Page:     args.Int("page", 1),
				PageSize: args.Int("page_size", 50),
				Filter:   args.OptionalString("filter"),
				OrderBy:  args.OptionalString("order_by"),
			}
			return client.ListRecords(ctx, tableID, query)
		},
	})

	e.register(&Operation{
		Name:        "get_record",
		Description: "Fetch a single record by id",
		handler: func(ctx context.Context, client backend.Client, args Args) (any, error) {
			tableID, err := args.String("table_id")
			if err != nil {
				return nil, err
			}
			recordID, err := args.String("record_id")
			if err != nil {
				return nil, err
			}
			return client.GetRecord(ctx, tableID, recordID)
		},
	})

	e.register(&Operation{
		Name:        "create_record",
		Description: "Create a record in a table",
		handler: func(ctx context.Context, client backend.Client, args Args) (any, error) {
			tableID, err := args.String("table_id")
			if err != nil {
				return nil, err
			}
			fields, err := args.Map("fields")
			if err != nil {
				return nil, err
			}
			return client.CreateRecord(ctx, tableID, fields)
		},
	})

	e.register(&Operation{
		Name:        "update_record",
		Description: "Update fields of an existing record",
		handler: func(ctx context.Context, client backend.Client, args Args) (any, error) {
			tableID, err := args.String("table_id")
			if err != nil {
				return nil, err
			}
			recordID, err := args.String("record_id")
			if err != nil {
				return nil, err
			}
			fields, err := args.Map("fields")
			if err != nil {
				return nil, err
			}
			return client.UpdateRecord(ctx, tableID, recordID, fields)
		},
	})

	e.register(&Operation{
		Name:        "delete_records",
		Description: "Delete a set of records from a table",
		Destructive: true,
		handler: func(ctx context.Context, client backend.Client, args Args) (any, error) {
			tableID, err := args.String("table_id")
			if err != nil {
				return nil, err
			}
			recordIDs, err := args.StringSlice("record_ids")
			if err != nil {
				return nil, err
			}
			deleted, err := client.DeleteRecords(ctx, tableID, recordIDs)
			if err != nil {
				return nil, err
			}
			return fmt.Sprintf("%d records deleted", deleted), nil
		},
	})

	e.register(&Operation{
		Name:        "list_views",
		Description: "List the saved views of a table",
		handler: func(ctx context.Context, client backend.Client, args Args) (any, error) {
			tableID, err := args.String("table_id")
			if err != nil {
				return nil, err
			}
			return client.ListViews(ctx, tableID)
		},
	})

	e.register(&Operation{
		Name:        "list_files",
		Description: "List stored files under a path",
		handler: func(ctx context.Context, client backend.Client, args Args) (any, error) {
			return client.ListFiles(ctx, args.OptionalString("path"))
		},
	})

	e.register(&Operation{
		Name:        "delete_file",
		Description: "Delete a stored file",
		Destructive: true,
		handler: func(ctx context.Context, client backend.Client, args Args) (any, error) {
			path, err := args.String("path")
			if err != nil {
				return nil, err
			}
			if err := client.DeleteFile(ctx, path); err != nil {
				return nil, err
			}
			return fmt.Sprintf("file %s deleted", path), nil
		},
	})

	e.register(&Operation{
		Name:        "list_tasks",
		Description: "List scheduled tasks",
		handler: func(ctx context.Context, client backend.Client, args Args) (any, error) {
			return client.ListTasks(ctx)
		},
	})

	e.register(&Operation{
		Name:        "create_task",
		Description: "Create a scheduled task",
		handler: func(ctx context.Context, client backend.Client, args Args) (any, error) {
			title, err := args.String("title")
			if err != nil {
				return nil, err
			}
			return client.CreateTask(ctx, title, args.OptionalString("due"))
		},
	})

	e.register(&Operation{
		Name:        "complete_task",
		Description: "Mark a scheduled task as completed",
		handler: func(ctx context.Context, client backend.Client, args Args) (any, error) {
			taskID, err := args.String("task_id")
			if err != nil {
				return nil, err
			}
			if err := client.CompleteTask(ctx, taskID); err != nil {
				return nil, err
			}
			return fmt.Sprintf("task %s completed", taskID), nil
		},
	})

	e.register(&Operation{
		Name:        "list_directory_users",
		Description: "List identity-directory users",
		handler: func(ctx context.Context, client backend.Client, args Args) (any, error) {
			return client.ListDirectoryUsers(ctx)
		},
	})

	e.register(&Operation{
		Name:        "create_directory_user",
		Description: "Create an identity-directory user",
		handler: func(ctx context.Context, client backend.Client, args Args) (any, error) {
			email, err := args.String("email")
			if err != nil {
				return nil, err
			}
			password, err := args.String("password")
			if err != nil {
				return nil, err
			}
			user := backend.DirectoryUser{
				Email:       email,
				DisplayName: args.OptionalString("display_name"),
				Admin:       args.Bool("admin"),
			}
			return client.CreateDirectoryUser(ctx, user, password)
		},
	})

	e.register(&Operation{
		Name:        "delete_directory_user",
		Description: "Delete an identity-directory user",
		Destructive: true,
		handler: func(ctx context.Context, client backend.Client, args Args) (any, error) {
			userID, err := args.String("user_id")
			if err != nil {
				return nil, err
			}
			if err := client.DeleteDirectoryUser(ctx, userID); err != nil {
				return nil, err
			}
			return fmt.Sprintf("directory user %s deleted", userID), nil
		},
	})
}
