// Package remote is the boundary to the hosted backend: a row-oriented
// store over named collections plus its authentication sub-API. The
// service layer depends on the interfaces here; the REST types implement
// them against the hosted service's HTTP API.
package remote

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Row is one record of a collection, as decoded JSON.
type Row map[string]any

// Filter is an equality match on a named column.
type Filter struct {
	Column string
	Value  any
}

func Eq(column string, value any) Filter {
	return Filter{Column: column, Value: value}
}

// Store is the CRUD surface of the hosted backend. Absence of an error
// never implies non-empty data; callers check both.
type Store interface {
	Select(ctx context.Context, collection string, filters ...Filter) ([]Row, error)
	Insert(ctx context.Context, collection string, rows []Row) error
	Update(ctx context.Context, collection string, patch Row, filters ...Filter) error
	Upsert(ctx context.Context, collection string, row Row) error
	Delete(ctx context.Context, collection string, filters ...Filter) error
}

// Session is what the auth sub-API returns on success.
type Session struct {
	UserID      uuid.UUID
	Email       string
	AccessToken string
}

// Auth is the hosted backend's authentication sub-API.
type Auth interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

// Error is a non-2xx response from the hosted backend.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("remote: %s (status %d)", e.Message, e.Status)
}

// DecodeRows re-marshals rows into dst, a pointer to a slice of structs
// with json tags matching the collection's columns.
func DecodeRows(rows []Row, dst any) error {
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode rows: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode rows: %w", err)
	}
	return nil
}
