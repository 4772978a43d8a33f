package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base carries the shared GORM handle that domain repositories build on.
type Base struct {
	conn *gorm.DB
}

// NewBase wraps the provided GORM connection.
func NewBase(conn *gorm.DB) Base {
	return Base{conn: conn}
}

// Session returns a request-scoped GORM session so queries observe the
// caller's deadline and cancellation.
func (b Base) Session(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.conn
	}
	return b.conn.WithContext(ctx)
}
