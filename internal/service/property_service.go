package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"yariga/internal/cache"
	apperrors "yariga/internal/errors"
	"yariga/internal/events"
	"yariga/internal/model"
	"yariga/internal/photo"
	"yariga/internal/repository"
)

// DefaultPageSize is the window used when a listing request has no end offset.
const DefaultPageSize = 10

// sortColumns maps the JSON field names the admin client sorts by to columns.
var sortColumns = map[string]string{
	"_id":          "id",
	"id":           "id",
	"title":        "title",
	"price":        "price",
	"propertyType": "property_type",
	"location":     "location",
	"createdAt":    "created_at",
}

// ListQuery selects a filtered, sorted window of properties.
type ListQuery struct {
	Start        int
	End          int
	Sort         string
	Order        string
	TitleLike    string
	PropertyType string
}

// CreatePropertyInput carries a new listing and the email of the agent creating it.
type CreatePropertyInput struct {
	Title        string
	Description  string
	PropertyType string
	Location     string
	Price        decimal.Decimal
	Photo        string
	Email        string
}

// UpdatePropertyInput is a partial update; nil fields are left untouched.
type UpdatePropertyInput struct {
	Title        *string
	Description  *string
	PropertyType *string
	Location     *string
	Price        *decimal.Decimal
	Photo        *string
}

// TransactionObserver is notified of every create/delete transaction outcome.
type TransactionObserver interface {
	ObserveTransaction(operation string, err error)
}

// PropertyService handles property listing operations.
type PropertyService interface {
	List(ctx context.Context, q ListQuery) ([]model.Property, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Property, error)
	Create(ctx context.Context, in CreatePropertyInput) (*model.Property, error)
	Update(ctx context.Context, id uuid.UUID, in UpdatePropertyInput) (*model.Property, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type propertyService struct {
	store     repository.Store
	photos    photo.Store
	cache     *cache.Client
	publisher events.Publisher
	observer  TransactionObserver
}

// NewPropertyService creates a new property service. cache, publisher and
// observer may be nil.
func NewPropertyService(
	store repository.Store,
	photos photo.Store,
	cache *cache.Client,
	publisher events.Publisher,
	observer TransactionObserver,
) PropertyService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &propertyService{
		store:     store,
		photos:    photos,
		cache:     cache,
		publisher: publisher,
		observer:  observer,
	}
}

// List counts the properties matching q's filters and returns the requested window.
func (s *propertyService) List(ctx context.Context, q ListQuery) ([]model.Property, int64, error) {
	if q.Start < 0 {
		return nil, 0, fmt.Errorf("%w: _start must not be negative", apperrors.ErrInvalidQuery)
	}

	page := repository.Page{Offset: q.Start, Limit: q.End - q.Start}
	if q.Sort != "" && q.Order != "" {
		column, ok := sortColumns[q.Sort]
		if !ok {
			return nil, 0, fmt.Errorf("%w: cannot sort by %q", apperrors.ErrInvalidQuery, q.Sort)
		}
		switch strings.ToLower(q.Order) {
		case "asc":
		case "desc":
			page.Desc = true
		default:
			return nil, 0, fmt.Errorf("%w: order must be asc or desc", apperrors.ErrInvalidQuery)
		}
		page.OrderBy = column
	}

	filter := repository.PropertyFilter{
		PropertyType: q.PropertyType,
		TitleLike:    q.TitleLike,
	}
	properties, total, err := s.store.Properties().List(ctx, filter, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list properties: %w", err)
	}
	return properties, total, nil
}

// Get returns one property with its creator joined.
func (s *propertyService) Get(ctx context.Context, id uuid.UUID) (*model.Property, error) {
	var cached model.Property
	if s.cache.GetJSON(ctx, cache.PropertyKey(id), &cached) {
		return &cached, nil
	}

	property, err := s.store.Properties().FindByIDWithCreator(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPropertyNotFound
		}
		return nil, fmt.Errorf("get property: %w", err)
	}

	s.cache.SetJSON(ctx, cache.PropertyKey(id), property, cache.DetailTTL)
	return property, nil
}

// Create resolves the creator by email, uploads the photo, then inserts the
// property and appends it to the creator's list in one transaction. The
// creator row is locked while its list is rewritten.
//
// The upload happens before the transaction and is not undone if the
// transaction aborts, so a failed create can leave an orphaned image.
func (s *propertyService) Create(ctx context.Context, in CreatePropertyInput) (*model.Property, error) {
	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", apperrors.ErrInvalidInput)
	}
	if in.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", apperrors.ErrInvalidInput)
	}

	user, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	photoURL, err := s.photos.Upload(ctx, in.Photo)
	if err != nil {
		return nil, err
	}

	property := &model.Property{
		Title:        in.Title,
		Description:  in.Description,
		PropertyType: in.PropertyType,
		Location:     in.Location,
		Price:        in.Price,
		Photo:        photoURL,
		CreatorID:    user.ID,
	}

	var owner *model.User
	err = s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		u, err := tx.Users().FindByIDForUpdate(ctx, user.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrUserNotFound
			}
			return fmt.Errorf("reload user: %w", err)
		}
		if err := tx.Properties().Create(ctx, property); err != nil {
			return fmt.Errorf("insert property: %w", err)
		}
		u.AddProperty(property.ID)
		if err := tx.Users().Save(ctx, u); err != nil {
			return fmt.Errorf("save user: %w", err)
		}
		owner = u
		return nil
	})
	s.observer.ObserveTransaction("create", err)
	if err != nil {
		if photoURL != "" {
			slog.Warn("property create aborted after photo upload", "photo", photoURL, "email", email, "error", err)
		}
		return nil, err
	}

	// cached siblings embed the creator's property list
	s.cache.Delete(ctx, cache.PropertyKeys(owner.AllProperties)...)
	s.publish(ctx, events.New(events.PropertyCreated, property.ID, user.ID))
	return property, nil
}

// Update re-uploads the photo when one is supplied and applies a field-level
// update to the single property row.
func (s *propertyService) Update(ctx context.Context, id uuid.UUID, in UpdatePropertyInput) (*model.Property, error) {
	existing, err := s.store.Properties().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPropertyNotFound
		}
		return nil, fmt.Errorf("get property: %w", err)
	}

	fields := map[string]interface{}{}
	setString := func(column string, v *string) {
		if v != nil {
			fields[column] = *v
		}
	}
	setString("title", in.Title)
	setString("description", in.Description)
	setString("property_type", in.PropertyType)
	setString("location", in.Location)
	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, fmt.Errorf("%w: price must not be negative", apperrors.ErrInvalidInput)
		}
		fields["price"] = *in.Price
	}
	if in.Photo != nil {
		url, err := s.photos.Upload(ctx, *in.Photo)
		if err != nil {
			return nil, err
		}
		if url == "" {
			url = existing.Photo
		}
		fields["photo"] = url
	}

	if len(fields) == 0 {
		return existing, nil
	}

	if err := s.store.Properties().Updates(ctx, id, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPropertyNotFound
		}
		return nil, fmt.Errorf("update property: %w", err)
	}

	s.cache.Delete(ctx, cache.PropertyKey(id))
	s.publish(ctx, events.New(events.PropertyUpdated, id, existing.CreatorID))

	updated, err := s.store.Properties().FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload property: %w", err)
	}
	return updated, nil
}

// Delete removes the property and drops it from its creator's list in one
// transaction. A property whose creator no longer exists is still removed.
func (s *propertyService) Delete(ctx context.Context, id uuid.UUID) error {
	property, err := s.store.Properties().FindByIDWithCreator(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrPropertyNotFound
		}
		return fmt.Errorf("get property: %w", err)
	}

	var siblings []uuid.UUID
	err = s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		if err := tx.Properties().Delete(ctx, property); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrPropertyNotFound
			}
			return fmt.Errorf("delete property: %w", err)
		}
		if property.Creator == nil {
			return nil
		}
		owner, err := tx.Users().FindByIDForUpdate(ctx, property.CreatorID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reload user: %w", err)
		}
		owner.RemoveProperty(property.ID)
		if err := tx.Users().Save(ctx, owner); err != nil {
			return fmt.Errorf("save user: %w", err)
		}
		siblings = owner.AllProperties
		return nil
	})
	s.observer.ObserveTransaction("delete", err)
	if err != nil {
		return err
	}

	s.cache.Delete(ctx, append(cache.PropertyKeys(siblings), cache.PropertyKey(id))...)
	s.publish(ctx, events.New(events.PropertyDeleted, id, property.CreatorID))
	return nil
}

func (s *propertyService) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		slog.Warn("publish event failed", "type", event.Type, "property_id", event.PropertyID, "error", err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type nopObserver struct{}

func (nopObserver) ObserveTransaction(string, error) {}
