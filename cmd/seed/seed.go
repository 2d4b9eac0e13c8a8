package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"yariga/internal/service"
)

type fixture struct {
	Users []fixtureUser `json:"users"`
}

type fixtureUser struct {
	Name       string            `json:"name"`
	Email      string            `json:"email"`
	Avatar     string            `json:"avatar"`
	Properties []fixtureProperty `json:"properties"`
}

type fixtureProperty struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	PropertyType string          `json:"propertyType"`
	Location     string          `json:"location"`
	Price        decimal.Decimal `json:"price"`
	Photo        string          `json:"photo"`
}

type seedResult struct {
	users   int
	created int
	skipped int
}

func parseFixture(raw []byte) (*fixture, error) {
	var f fixture
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return &f, nil
}

// seeder replays a fixture through the services so seeded data goes through
// the same sign-in and create transactions as API traffic.
type seeder struct {
	users      service.UserService
	properties service.PropertyService
}

// run signs in every fixture user and creates the properties they do not
// already own, matched by title. Running it twice creates nothing new.
func (s *seeder) run(ctx context.Context, f *fixture) (seedResult, error) {
	var res seedResult
	for _, fu := range f.Users {
		user, _, err := s.users.Login(ctx, service.Profile{Name: fu.Name, Email: fu.Email, Avatar: fu.Avatar})
		if err != nil {
			return res, fmt.Errorf("error signing in %s: %w", fu.Email, err)
		}
		res.users++

		joined, err := s.users.Get(ctx, user.ID)
		if err != nil {
			return res, fmt.Errorf("error loading %s: %w", fu.Email, err)
		}
		owned := make(map[string]bool, len(joined.Properties))
		for _, p := range joined.Properties {
			owned[p.Title] = true
		}

		for _, fp := range fu.Properties {
			if owned[fp.Title] {
				res.skipped++
				continue
			}
			_, err := s.properties.Create(ctx, service.CreatePropertyInput{
				Title:        fp.Title,
				Description:  fp.Description,
				PropertyType: fp.PropertyType,
				Location:     fp.Location,
				Price:        fp.Price,
				Photo:        fp.Photo,
				Email:        user.Email,
			})
			if err != nil {
				return res, fmt.Errorf("error creating %q for %s: %w", fp.Title, fu.Email, err)
			}
			slog.Debug("seeded property", "title", fp.Title, "email", user.Email)
			res.created++
		}
	}
	return res, nil
}
