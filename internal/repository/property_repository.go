package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"yariga/internal/model"
)

// PropertyFilter narrows a property listing. Zero values mean no constraint.
type PropertyFilter struct {
	PropertyType string
	TitleLike    string
}

// Page selects a window of an ordered listing.
type Page struct {
	Offset  int
	Limit   int
	OrderBy string
	Desc    bool
}

// PropertyRepository defines property persistence operations.
type PropertyRepository interface {
	Create(ctx context.Context, property *model.Property) error
	Updates(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	Delete(ctx context.Context, property *model.Property) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Property, error)
	FindByIDWithCreator(ctx context.Context, id uuid.UUID) (*model.Property, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Property, error)
	List(ctx context.Context, filter PropertyFilter, page Page) ([]model.Property, int64, error)
}

type propertyRepository struct {
	db *gorm.DB
}

// NewPropertyRepository creates a new property repository.
func NewPropertyRepository(db *gorm.DB) PropertyRepository {
	return &propertyRepository{db: db}
}

// Create creates a new property.
func (r *propertyRepository) Create(ctx context.Context, property *model.Property) error {
	return r.db.WithContext(ctx).Create(property).Error
}

// Updates applies a column-level update to one property.
func (r *propertyRepository) Updates(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.Property{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the given property by primary key.
func (r *propertyRepository) Delete(ctx context.Context, property *model.Property) error {
	res := r.db.WithContext(ctx).Delete(property)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindByID finds a property by ID.
func (r *propertyRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Property, error) {
	var property model.Property
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&property).Error; err != nil {
		return nil, err
	}
	return &property, nil
}

// FindByIDWithCreator finds a property by ID and joins its owning user.
func (r *propertyRepository) FindByIDWithCreator(ctx context.Context, id uuid.UUID) (*model.Property, error) {
	var property model.Property
	if err := r.db.WithContext(ctx).Preload("Creator").Where("id = ?", id).First(&property).Error; err != nil {
		return nil, err
	}
	return &property, nil
}

// FindByIDs returns the properties whose ids are listed, in creation order.
func (r *propertyRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Property, error) {
	properties := []model.Property{}
	if len(ids) == 0 {
		return properties, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("created_at").Find(&properties).Error; err != nil {
		return nil, err
	}
	return properties, nil
}

// List counts every property matching filter, then fetches the requested page.
func (r *propertyRepository) List(ctx context.Context, filter PropertyFilter, page Page) ([]model.Property, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Property{}).Scopes(filtered(filter)).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	properties := []model.Property{}
	if page.Limit <= 0 {
		return properties, total, nil
	}

	q := r.db.WithContext(ctx).Scopes(filtered(filter)).Offset(page.Offset).Limit(page.Limit)
	if page.OrderBy != "" {
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: page.OrderBy}, Desc: page.Desc})
	}
	if err := q.Find(&properties).Error; err != nil {
		return nil, 0, err
	}
	return properties, total, nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func filtered(f PropertyFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.PropertyType != "" {
			db = db.Where("property_type = ?", f.PropertyType)
		}
		if f.TitleLike != "" {
			pattern := "%" + likeEscaper.Replace(strings.ToLower(f.TitleLike)) + "%"
			db = db.Where("LOWER(title) LIKE ? ESCAPE '!'", pattern)
		}
		return db
	}
}
