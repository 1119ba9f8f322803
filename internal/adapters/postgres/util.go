package postgres

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// isUniqueViolation matches gorm's translated duplicate-key error plus
// the raw driver message, since TranslateError does not cover every
// constraint shape pgx reports.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
