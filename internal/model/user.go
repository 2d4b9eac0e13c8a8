package model

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User is an agent that signed in through the identity provider and may own properties.
type User struct {
	ID            uuid.UUID                      `json:"_id" gorm:"type:char(36);primaryKey"`
	Name          string                         `json:"name" gorm:"size:255;not null"`
	Email         string                         `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Avatar        string                         `json:"avatar" gorm:"size:1024"`
	AllProperties datatypes.JSONSlice[uuid.UUID] `json:"allProperties"`
	CreatedAt     time.Time                      `json:"createdAt"`
	UpdatedAt     time.Time                      `json:"updatedAt"`

	// Properties holds the joined property records when the user is loaded
	// with them; it is never persisted.
	Properties []Property `json:"-" gorm:"-"`
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.AllProperties == nil {
		u.AllProperties = datatypes.JSONSlice[uuid.UUID]{}
	}
	return nil
}

// AddProperty appends id to AllProperties unless it is already present.
func (u *User) AddProperty(id uuid.UUID) {
	if u.OwnsProperty(id) {
		return
	}
	u.AllProperties = append(u.AllProperties, id)
}

// RemoveProperty drops every occurrence of id and reports whether any was removed.
func (u *User) RemoveProperty(id uuid.UUID) bool {
	before := len(u.AllProperties)
	u.AllProperties = slices.DeleteFunc(u.AllProperties, func(p uuid.UUID) bool { return p == id })
	if u.AllProperties == nil {
		u.AllProperties = datatypes.JSONSlice[uuid.UUID]{}
	}
	return len(u.AllProperties) != before
}

// OwnsProperty reports whether id is in AllProperties.
func (u *User) OwnsProperty(id uuid.UUID) bool {
	return slices.Contains(u.AllProperties, id)
}

// MarshalJSON renders allProperties as the joined records when they were
// loaded, and as the list of ids otherwise.
func (u User) MarshalJSON() ([]byte, error) {
	type alias User
	var all any = u.AllProperties
	switch {
	case u.Properties != nil:
		all = u.Properties
	case u.AllProperties == nil:
		all = []uuid.UUID{}
	}
	return json.Marshal(struct {
		alias
		AllProperties any `json:"allProperties"`
	}{alias: alias(u), AllProperties: all})
}
