//go:build integration

package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"yariga/internal/auth"
	"yariga/internal/config"
	"yariga/internal/db"
	apperrors "yariga/internal/errors"
	"yariga/internal/model"
	"yariga/internal/repository"
)

func startMySQL(t *testing.T) *config.Config {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mysql:8.4",
			ExposedPorts: []string{"3306/tcp"},
			Env: map[string]string{
				"MYSQL_ROOT_PASSWORD": "secret",
				"MYSQL_DATABASE":      "yariga",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("3306/tcp"),
				wait.ForLog("port: 3306  MySQL Community Server"),
			).WithDeadline(3 * time.Minute),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "3306/tcp")
	require.NoError(t, err)

	return &config.Config{
		DBDriver:   "mysql",
		DBDSN:      fmt.Sprintf("root:secret@tcp(%s:%s)/yariga?charset=utf8mb4&parseTime=True&loc=UTC", host, port.Port()),
		DBMaxConns: 5,
	}
}

func TestMySQL_CreateAndDelete(t *testing.T) {
	cfg := startMySQL(t)
	gdb, err := db.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	require.NoError(t, db.Migrate(gdb))

	ctx := context.Background()
	store := repository.NewStore(gdb)
	photos := new(MockPhotoStore)
	photos.On("Upload", mock.Anything, mock.Anything).Return("https://cdn/p.png", nil)
	svc := NewPropertyService(store, photos, nil, nil, nil)
	users := NewUserService(store, auth.NewJWTService("it"))

	owner, _, err := users.Login(ctx, Profile{Name: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)
	again, _, err := users.Login(ctx, Profile{Name: "Ana", Email: "ANA@example.com"})
	require.NoError(t, err)
	assert.Equal(t, owner.ID, again.ID)

	p, err := svc.Create(ctx, createInput("ana@example.com", "100% Loft_space", "Office", 990))
	require.NoError(t, err)
	_, err = svc.Create(ctx, createInput("ana@example.com", "Loft annex", "Apartment", 100))
	require.NoError(t, err)

	items, total, err := svc.List(ctx, ListQuery{Start: 0, End: 10, TitleLike: "% loft_", Sort: "price", Order: "desc"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total, "wildcards in title_like are literal")
	require.Len(t, items, 1)
	assert.Equal(t, p.ID, items[0].ID)

	_, err = svc.Create(ctx, createInput("ghost@example.com", "Nope", "House", 1))
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	require.NoError(t, svc.Delete(ctx, p.ID))
	joined, err := users.Get(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, joined.Properties, 1)
	assert.False(t, joined.OwnsProperty(p.ID))

	chateau, err := svc.Create(ctx, createInput("ana@example.com", "Château ÉTÉ", "House", 1200))
	require.NoError(t, err)
	items, total, err = svc.List(ctx, ListQuery{Start: 0, End: 10, TitleLike: "été"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, chateau.ID, items[0].ID)
}

func TestMySQL_ConcurrentCreatesKeepEveryProperty(t *testing.T) {
	cfg := startMySQL(t)
	cfg.DBMaxConns = 10
	gdb, err := db.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	require.NoError(t, db.Migrate(gdb))

	ctx := context.Background()
	store := repository.NewStore(gdb)
	photos := new(MockPhotoStore)
	photos.On("Upload", mock.Anything, mock.Anything).Return("https://cdn/p.png", nil)
	svc := NewPropertyService(store, photos, nil, nil, nil)
	users := NewUserService(store, auth.NewJWTService("it"))

	owner, _, err := users.Login(ctx, Profile{Name: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(ctx, createInput("ana@example.com", fmt.Sprintf("Unit %d", i), "Apartment", int64(100+i)))
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		require.NoError(t, err, "create %d", i)
	}

	var rows int64
	require.NoError(t, gdb.Model(&model.Property{}).Where("creator_id = ?", owner.ID).Count(&rows).Error)
	assert.Equal(t, int64(n), rows)

	joined, err := users.Get(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, joined.AllProperties, int(rows))
	assert.Len(t, joined.Properties, int(rows))
}
