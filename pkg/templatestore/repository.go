package templatestore

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pitabwire/frame/data"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/voicetyped/composer/pkg/lg"
)

// DefaultCacheSize is the number of containers the repository keeps cached.
const DefaultCacheSize = 1024

// Template is the persisted form of an LG template.
type Template struct {
	data.BaseModel

	ContainerID string `gorm:"type:varchar(255);not null;uniqueIndex:idx_lg_container_name" json:"container_id"`
	Name        string `gorm:"type:varchar(255);not null;uniqueIndex:idx_lg_container_name" json:"name"`
	Body        string `gorm:"type:text"                                                    json:"body"`
}

func (Template) TableName() string { return "lg_templates" }

// DBProvider hands out gorm handles. frame's datastore pool satisfies it.
type DBProvider interface {
	DB(ctx context.Context, readOnly bool) *gorm.DB
}

// Repository stores templates in the service datastore. Reads of whole
// containers go through an LRU cache that every write invalidates.
type Repository struct {
	pool  DBProvider
	cache *lru.Cache[string, []lg.Template]
}

// NewRepository creates a template repository. A non-positive cacheSize
// selects DefaultCacheSize.
func NewRepository(p DBProvider, cacheSize int) (*Repository, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, []lg.Template](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create template cache: %w", err)
	}
	return &Repository{pool: p, cache: cache}, nil
}

func (r *Repository) db(ctx context.Context, readOnly bool) *gorm.DB {
	return r.pool.DB(ctx, readOnly)
}

// Migrate creates or updates the templates table.
func (r *Repository) Migrate(ctx context.Context) error {
	return r.db(ctx, false).AutoMigrate(&Template{})
}

// GetTemplates returns the template named by a bracketed reference, or every
// template of the container for any other filter.
func (r *Repository) GetTemplates(ctx context.Context, containerID, refOrFilter string) ([]lg.Template, error) {
	all, err := r.load(ctx, containerID)
	if err != nil {
		return nil, err
	}
	ref, ok := lg.ParseTemplateRef(refOrFilter)
	if !ok {
		return all, nil
	}
	for _, t := range all {
		if t.Name == ref.Name {
			return []lg.Template{t}, nil
		}
	}
	return nil, nil
}

// UpdateTemplate upserts a template. Writing a soft-deleted name revives its
// row.
func (r *Repository) UpdateTemplate(ctx context.Context, containerID, name, body string) error {
	row := &Template{ContainerID: containerID, Name: name, Body: body}
	updates := append(
		clause.AssignmentColumns([]string{"body", "modified_at"}),
		clause.Assignment{Column: clause.Column{Name: "deleted_at"}, Value: nil},
	)
	err := r.db(ctx, false).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "container_id"}, {Name: "name"}},
			DoUpdates: updates,
		}).
		Create(row).Error
	r.cache.Remove(containerID)
	if err != nil {
		return fmt.Errorf("upsert template %q: %w", name, err)
	}
	return nil
}

// ListTemplates returns the container's templates sorted by name.
func (r *Repository) ListTemplates(ctx context.Context, containerID string) ([]lg.Template, error) {
	all, err := r.load(ctx, containerID)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, ErrNotFound
	}
	return all, nil
}

// DeleteTemplates soft-deletes the named templates.
func (r *Repository) DeleteTemplates(ctx context.Context, containerID string, names []string) error {
	if len(names) == 0 {
		return nil
	}
	err := r.db(ctx, false).
		Where("container_id = ? AND name IN ?", containerID, names).
		Delete(&Template{}).Error
	r.cache.Remove(containerID)
	if err != nil {
		return fmt.Errorf("delete templates: %w", err)
	}
	return nil
}

// Invalidate drops the cached copy of a container, for writes made by other
// instances.
func (r *Repository) Invalidate(containerID string) {
	r.cache.Remove(containerID)
}

func (r *Repository) load(ctx context.Context, containerID string) ([]lg.Template, error) {
	if cached, ok := r.cache.Get(containerID); ok {
		return cached, nil
	}
	var rows []Template
	err := r.db(ctx, true).
		Where("container_id = ?", containerID).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	out := make([]lg.Template, 0, len(rows))
	for _, row := range rows {
		out = append(out, lg.Template{Name: row.Name, Body: row.Body})
	}
	r.cache.Add(containerID, out)
	return out, nil
}
