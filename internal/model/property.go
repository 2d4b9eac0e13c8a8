package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// The admin client sorts and formats price as a number.
	decimal.MarshalJSONWithoutQuotes = true
}

// Property is a real-estate listing owned by the user that created it.
type Property struct {
	ID           uuid.UUID       `json:"_id" gorm:"type:char(36);primaryKey"`
	Title        string          `json:"title" gorm:"size:255;not null;index"`
	Description  string          `json:"description" gorm:"type:text;not null"`
	PropertyType string          `json:"propertyType" gorm:"size:64;not null;index"`
	Location     string          `json:"location" gorm:"size:255;not null"`
	Price        decimal.Decimal `json:"price" gorm:"type:decimal(20,2);not null"`
	Photo        string          `json:"photo" gorm:"size:1024"`
	CreatorID    uuid.UUID       `json:"-" gorm:"type:char(36);not null;index"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`

	// Relations
	Creator *User `json:"-" gorm:"foreignKey:CreatorID"`
}

// BeforeCreate sets UUID before creating the record.
func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// MarshalJSON renders creator as the joined user when it was loaded and as
// the bare user id otherwise.
func (p Property) MarshalJSON() ([]byte, error) {
	type alias Property
	var creator any = p.CreatorID
	if p.Creator != nil {
		creator = p.Creator
	}
	return json.Marshal(struct {
		alias
		Creator any `json:"creator"`
	}{alias: alias(p), Creator: creator})
}

// UnmarshalJSON accepts creator either as an id or as a joined user object,
// so cached records round-trip.
func (p *Property) UnmarshalJSON(data []byte) error {
	type alias Property
	aux := struct {
		*alias
		Creator json.RawMessage `json:"creator"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.Creator) == 0 || string(aux.Creator) == "null" {
		return nil
	}
	if aux.Creator[0] == '{' {
		var u User
		if err := json.Unmarshal(aux.Creator, &u); err != nil {
			return err
		}
		p.Creator = &u
		p.CreatorID = u.ID
		return nil
	}
	return json.Unmarshal(aux.Creator, &p.CreatorID)
}
