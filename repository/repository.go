// Package repository is the data access layer: one generic CRUD capability
// per entity, backed by gorm.
package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Hook runs after every successful mutation of an entity.
type Hook func(ctx context.Context, entity string)

type Repository[T any] struct {
	db     *gorm.DB
	entity string
	hooks  []Hook
}

func New[T any](db *gorm.DB, entity string) *Repository[T] {
	return &Repository[T]{db: db, entity: entity}
}

func (r *Repository[T]) Entity() string { return r.entity }

// OnMutate registers an invalidation hook.
func (r *Repository[T]) OnMutate(h Hook) {
	r.hooks = append(r.hooks, h)
}

func (r *Repository[T]) List(ctx context.Context, qs ...Query) ([]T, error) {
	var out []T
	if err := r.query(ctx, qs).Find(&out).Error; err != nil {
		return nil, wrap("list", r.entity, err)
	}
	return out, nil
}

func (r *Repository[T]) Get(ctx context.Context, id uuid.UUID, qs ...Query) (*T, error) {
	var out T
	if err := r.query(ctx, qs).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, wrap("get", r.entity, err)
	}
	return &out, nil
}

// First returns the first row matching qs.
func (r *Repository[T]) First(ctx context.Context, qs ...Query) (*T, error) {
	var out T
	if err := r.query(ctx, qs).First(&out).Error; err != nil {
		return nil, wrap("get", r.entity, err)
	}
	return &out, nil
}

func (r *Repository[T]) Count(ctx context.Context, qs ...Query) (int64, error) {
	var n int64
	if err := r.query(ctx, qs).Count(&n).Error; err != nil {
		return 0, wrap("count", r.entity, err)
	}
	return n, nil
}

func (r *Repository[T]) Create(ctx context.Context, v *T) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(v).Error; err != nil {
		return wrap("create", r.entity, err)
	}
	r.mutated(ctx)
	return nil
}

// Update overwrites every column of the row identified by id with v,
// including zero values. id and created_at are never touched.
func (r *Repository[T]) Update(ctx context.Context, id uuid.UUID, v *T) error {
	res := r.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).
		Select("*").Omit("id", "created_at", clause.Associations).
		Updates(v)
	if res.Error != nil {
		return wrap("update", r.entity, res.Error)
	}
	if res.RowsAffected == 0 {
		return wrap("update", r.entity, gorm.ErrRecordNotFound)
	}
	r.mutated(ctx)
	return nil
}

// Patch updates only the given columns.
func (r *Repository[T]) Patch(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return wrap("update", r.entity, res.Error)
	}
	if res.RowsAffected == 0 {
		return wrap("update", r.entity, gorm.ErrRecordNotFound)
	}
	r.mutated(ctx)
	return nil
}

func (r *Repository[T]) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return wrap("delete", r.entity, res.Error)
	}
	if res.RowsAffected == 0 {
		return wrap("delete", r.entity, gorm.ErrRecordNotFound)
	}
	r.mutated(ctx)
	return nil
}

func (r *Repository[T]) query(ctx context.Context, qs []Query) *gorm.DB {
	db := r.db.WithContext(ctx).Model(new(T))
	for _, q := range qs {
		db = q(db)
	}
	return db
}

func (r *Repository[T]) mutated(ctx context.Context) {
	for _, h := range r.hooks {
		h(ctx, r.entity)
	}
}
