package services

import (
	"context"
	"errors"
	"strings"

	"github.com/localnerve/shelter-intake/internal/types"
	"gorm.io/gorm"
)

// Page limits shared by list operations
const (
	DefaultPageSize = 25
	MaxPageSize     = 200
)

// Page is a 1-based page request
type Page struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// normalize clamps the page to sane bounds
func (p Page) normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func (p Page) offset() int {
	return (p.Page - 1) * p.PageSize
}

// bounds returns the slice bounds of the page within total items
func (p Page) bounds(total int) (int, int) {
	start := min(p.offset(), total)
	end := min(start+p.PageSize, total)
	return start, end
}

// isDuplicateKey reports a unique constraint violation from any supported driver
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique index")
}

// notFound maps gorm.ErrRecordNotFound to a kinded not found error and
// tags anything else as a database error.
func notFound(err error, op, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.NewNotFoundError(format, args...)
	}
	return types.WrapDatabaseError(err, op)
}

// exists reports whether any row of model matches the condition
func exists(ctx context.Context, db *gorm.DB, model any, query string, args ...any) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).Model(model).Where(query, args...).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
