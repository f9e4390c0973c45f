package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// Page is a limit/offset window over a list query.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

func (p Page) apply(db *gorm.DB) *gorm.DB {
	p = p.Normalize()
	return db.Limit(p.Limit).Offset(p.Offset)
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

// likePattern builds a case-insensitive substring pattern for LOWER(col) LIKE ?.
func likePattern(search string) string {
	search = strings.ToLower(strings.TrimSpace(search))
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(search) + "%"
}

// countWhere counts rows of model matching a single condition.
func countWhere(tx *gorm.DB, model any, query string, args ...any) (int64, error) {
	var n int64
	err := tx.Model(model).Where(query, args...).Count(&n).Error
	return n, err
}
