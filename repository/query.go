package repository

import (
	"strings"

	"gorm.io/gorm"
)

// Query narrows or shapes a read.
type Query func(*gorm.DB) *gorm.DB

func Where(query any, args ...any) Query {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(query, args...)
	}
}

// Between keeps rows whose column lies within [from, to] inclusive. A nil
// bound is open.
func Between(column string, from, to any) Query {
	return func(db *gorm.DB) *gorm.DB {
		if from != nil {
			db = db.Where(column+" >= ?", from)
		}
		if to != nil {
			db = db.Where(column+" <= ?", to)
		}
		return db
	}
}

func OrderBy(expr string) Query {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(expr)
	}
}

func Preload(assoc string, args ...any) Query {
	return func(db *gorm.DB) *gorm.DB {
		return db.Preload(assoc, args...)
	}
}

func Select(columns ...string) Query {
	return func(db *gorm.DB) *gorm.DB {
		return db.Select(columns)
	}
}

func Limit(n int) Query {
	return func(db *gorm.DB) *gorm.DB {
		return db.Limit(n)
	}
}

// likeEscaper makes the LIKE wildcards in a search term match literally. '!'
// is the escape character because backslash handling differs per dialect.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// Contains keeps rows where any of the column expressions contains term as a
// literal substring.
func Contains(term string, columns ...string) Query {
	like := "%" + likeEscaper.Replace(term) + "%"
	conds := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		conds[i] = col + " LIKE ? ESCAPE '!'"
		args[i] = like
	}
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("("+strings.Join(conds, " OR ")+")", args...)
	}
}
