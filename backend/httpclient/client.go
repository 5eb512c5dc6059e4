// Package httpclient implements the backend.Client capability interface
// against the Gridbase HTTP API. A client is scoped to one set of user
// credentials: the first API call performs the credential exchange (login
// for a short-lived API token) and subsequent calls reuse that token for
// the lifetime of the client, which is a single gateway request.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/gridbase/gridgate/backend"
	errs "github.com/gridbase/gridgate/internal/errors"
)

const defaultTimeout = 30 * time.Second

type Client struct {
	creds      backend.Credentials
	httpClient *http.Client
	apiToken   string
}

var _ backend.Client = (*Client)(nil)

// New builds a client for one set of credentials. No network traffic happens
// until the first call.
func New(creds backend.Credentials) *Client {
	return &Client{
		creds:      creds,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// Factory adapts New to the backend.Factory signature.
func Factory(creds backend.Credentials) backend.Client {
	return New(creds)
}

// login exchanges the user credentials for an API token.
func (c *Client) login(ctx context.Context) error {
	if c.apiToken != "" {
		return nil
	}

	body := map[string]string{"email": c.creds.Email, "password": c.creds.Password}
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/login", nil, body, &resp); err != nil {
		if errs.Is(err, errs.ErrBackendRejected) {
			return err
		}
		return errors.Wrap(err, "[Client.login] credential exchange")
	}
	if resp.Token == "" {
		return errs.ErrBackendRejected
	}
	c.apiToken = resp.Token
	return nil
}

func (c *Client) ListTables(ctx context.Context) ([]backend.Table, error) {
	var resp struct {
		Tables []backend.Table `json:"tables"`
	}
	if err := c.authed(ctx, http.MethodGet, "/api/v1/tables", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tables, nil
}

func (c *Client) GetTableSchema(ctx context.Context, tableID string) ([]backend.Field, error) {
	var resp struct {
		Fields []backend.Field `json:"fields"`
	}
	if err := c.authed(ctx, http.MethodGet, "/api/v1/tables/"+url.PathEscape(tableID)+"/schema", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Fields, nil
}

func (c *Client) CreateTable(ctx context.Context, name string, fields []backend.Field) (*backend.Table, error) {
	body := map[string]any{"name": name, "fields": fields}
	var table backend.Table
	if err := c.authed(ctx, http.MethodPost, "/api/v1/tables", nil, body, &table); err != nil {
		return nil, err
	}
	return &table, nil
}

func (c *Client) DeleteTable(ctx context.Context, tableID string) error {
	return c.authed(ctx, http.MethodDelete, "/api/v1/tables/"+url.PathEscape(tableID), nil, nil, nil)
}

func (c *Client) CreateField(ctx context.Context, tableID string, field backend.Field) (*backend.Field, error) {
	var created backend.Field
	if err := c.authed(ctx, http.MethodPost, "/api/v1/tables/"+url.PathEscape(tableID)+"/fields", nil, field, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) DeleteField(ctx context.Context, tableID, fieldID string) error {
	path := fmt.Sprintf("/api/v1/tables/%s/fields/%s", url.PathEscape(tableID), url.PathEscape(fieldID))
	return c.authed(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) ListRecords(ctx context.Context, tableID string, query backend.RecordQuery) (*backend.RecordPage, error) {
	params := url.Values{}
	if query.Page > 0 {
		params.Set("page", fmt.Sprint(query.Page))
	}
	if query.PageSize > 0 {
		params.Set("page_size", fmt.Sprint(query.PageSize))
	}
	if query.Filter != "" {
		params.Set("filter", query.Filter)
	}
	if query.OrderBy != "" {
		params.Set("order_by", query.OrderBy)
	}

	var page backend.RecordPage
	if err := c.authed(ctx, http.MethodGet, "/api/v1/tables/"+url.PathEscape(tableID)+"/records", params, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) GetRecord(ctx context.Context, tableID, recordID string) (map[string]any, error) {
	path := fmt.Sprintf("/api/v1/tables/%s/records/%s", url.PathEscape(tableID), url.PathEscape(recordID))
	var record map[string]any
	if err := c.authed(ctx, http.MethodGet, path, nil, nil, &record); err != nil {
		return nil, err
	}
	return record, nil
}

func (c *Client) CreateRecord(ctx context.Context, tableID string, fields map[string]any) (map[string]any, error) {
	var record map[string]any
	if err := c.authed(ctx, http.MethodPost, "/api/v1/tables/"+url.PathEscape(tableID)+"/records", nil, fields, &record); err != nil {
		return nil, err
	}
	return record, nil
}

func (c *Client) UpdateRecord(ctx context.Context, tableID, recordID string, fields map[string]any) (map[string]any, error) {
	path := fmt.Sprintf("/api/v1/tables/%s/records/%s", url.PathEscape(tableID), url.PathEscape(recordID))
	var record map[string]any
	if err := c.authed(ctx, http.MethodPatch, path, nil, fields, &record); err != nil {
		return nil, err
	}
	return record, nil
}

func (c *Client) DeleteRecords(ctx context.Context, tableID string, recordIDs []string) (int, error) {
	body := map[string]any{"record_ids": recordIDs}
	var resp struct {
		Deleted int `json:"deleted"`
	}
	if err := c.authed(ctx, http.MethodPost, "/api/v1/tables/"+url.PathEscape(tableID)+"/records/delete", nil, body, &resp); err != nil {
		return 0, err
	}
	return resp.Deleted, nil
}

func (c *Client) ListViews(ctx context.Context, tableID string) ([]backend.View, error) {
	var resp struct {
		Views []backend.View `json:"views"`
	}
	if err := c.authed(ctx, http.MethodGet, "/api/v1/tables/"+url.PathEscape(tableID)+"/views", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Views, nil
}

func (c *Client) ListFiles(ctx context.Context, path string) ([]backend.FileInfo, error) {
	params := url.Values{}
	if path != "" {
		params.Set("path", path)
	}
	var resp struct {
		Files []backend.FileInfo `json:"files"`
	}
	if err := c.authed(ctx, http.MethodGet, "/api/v1/files", params, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Files, nil
}

func (c *Client) DeleteFile(ctx context.Context, path string) error {
	params := url.Values{}
	params.Set("path", path)
	return c.authed(ctx, http.MethodDelete, "/api/v1/files", params, nil, nil)
}

func (c *Client) ListTasks(ctx context.Context) ([]backend.Task, error) {
	var resp struct {
		Tasks []backend.Task `json:"tasks"`
	}
	if err := c.authed(ctx, http.MethodGet, "/api/v1/tasks", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

func (c *Client) CreateTask(ctx context.Context, title, due string) (*backend.Task, error) {
	body := map[string]string{"title": title, "due": due}
	var task backend.Task
	if err := c.authed(ctx, http.MethodPost, "/api/v1/tasks", nil, body, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) CompleteTask(ctx context.Context, taskID string) error {
	return c.authed(ctx, http.MethodPost, "/api/v1/tasks/"+url.PathEscape(taskID)+"/complete", nil, nil, nil)
}

func (c *Client) ListDirectoryUsers(ctx context.Context) ([]backend.DirectoryUser, error) {
	var resp struct {
		Users []backend.DirectoryUser `json:"users"`
	}
	if err := c.authed(ctx, http.MethodGet, "/api/v1/directory/users", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

func (c *Client) CreateDirectoryUser(ctx context.Context, user backend.DirectoryUser, password string) (*backend.DirectoryUser, error) {
	body := map[string]any{
		"email":        user.Email,
		"display_name": user.DisplayName,
		"admin":        user.Admin,
		"password":     password,
	}
	var created backend.DirectoryUser
	if err := c.authed(ctx, http.MethodPost, "/api/v1/directory/users", nil, body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) DeleteDirectoryUser(ctx context.Context, userID string) error {
	return c.authed(ctx, http.MethodDelete, "/api/v1/directory/users/"+url.PathEscape(userID), nil, nil, nil)
}

// authed performs the credential exchange if needed, then issues the call
// with the API token attached.
func (c *Client) authed(ctx context.Context, method, path string, params url.Values, body, out any) error {
	if err := c.login(ctx); err != nil {
		return err
	}
	return c.doJSON(ctx, method, path, params, body, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, params url.Values, body, out any) error {
	u := strings.TrimSuffix(c.creds.ServerURL, "/") + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "[Client.doJSON] marshal body")
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return errors.Wrap(err, "[Client.doJSON] build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Token "+c.apiToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.Wrapf(errs.ErrBackendUnavailable, "%s %s: %v", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errs.ErrBackendRejected
	case resp.StatusCode == http.StatusNotFound:
		return errs.ErrBackendNotFound
	case resp.StatusCode >= 400:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.Errorf("[Client.doJSON] %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "[Client.doJSON] decode response")
	}
	return nil
}
