package validation

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timevault/timevault/internal/cache"
	"github.com/timevault/timevault/internal/models"
	"github.com/timevault/timevault/internal/repository"
	"github.com/timevault/timevault/internal/storage"
	"github.com/timevault/timevault/internal/storage/memory"
)

type nopEnqueuer struct{}

func (nopEnqueuer) Enqueue(ctx context.Context, opType models.OperationType, kind, id string, payload []byte) error {
	return nil
}

func newWrappedRepo(t *testing.T) (*Middleware[*models.Activity], *memory.Storage) {
	t.Helper()

	local := memory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	inner := repository.New(
		models.KindActivity,
		local, memory.New(),
		cache.NewManager(64, time.Minute, nil, nil),
		nopEnqueuer{},
		func() *models.Activity { return &models.Activity{} },
		logger,
		repository.Options[*models.Activity]{},
	)
	return Wrap[*models.Activity](inner, ActivityRules(), logger), local
}

func TestMiddleware_Create_BlocksInvalid(t *testing.T) {
	ctx := context.Background()
	repo, local := newWrappedRepo(t)

	_, err := repo.Create(ctx, models.NewActivity("", 1000))
	require.ErrorIs(t, err, ErrValidation)

	// Fail closed: nothing was written and nothing will sync.
	assert.Equal(t, 0, local.Len())
}

func TestMiddleware_Create_PassesValid(t *testing.T) {
	ctx := context.Background()
	repo, local := newWrappedRepo(t)

	created, err := repo.Create(ctx, models.NewActivity("Deep Work", 5000))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 1, local.Len())
}

func TestMiddleware_Create_WarningsDoNotBlock(t *testing.T) {
	ctx := context.Background()
	repo, _ := newWrappedRepo(t)

	a := models.NewActivity("Colored", 1000)
	a.Color = "not-a-color"

	_, err := repo.Create(ctx, a)
	assert.NoError(t, err)
}

func TestMiddleware_Update_ValidatesMergedEntity(t *testing.T) {
	ctx := context.Background()
	repo, _ := newWrappedRepo(t)

	created, err := repo.Create(ctx, models.NewActivity("Valid", 1000))
	require.NoError(t, err)

	// A mutation that breaks the block value invariant is rejected.
	_, err = repo.Update(ctx, created.ID, func(a *models.Activity) error {
		a.HourlyValue = 20000
		return nil
	})
	require.ErrorIs(t, err, ErrValidation)

	// The stored entity is untouched.
	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), found.HourlyValue)

	// Keeping the invariant makes the same change pass.
	updated, err := repo.Update(ctx, created.ID, func(a *models.Activity) error {
		a.HourlyValue = 20000
		a.BlockValue = 10000
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10000), updated.BlockValue)
}

func TestMiddleware_FindByID_ReturnsInvalidStoredEntity(t *testing.T) {
	ctx := context.Background()
	repo, local := newWrappedRepo(t)

	// Simulate a record written before the rule existed.
	bad := &models.Activity{ID: "a1", Name: "", HourlyValue: 1000, BlockValue: 500}
	bad.Touch(time.Now())
	data, err := json.Marshal(bad)
	require.NoError(t, err)
	require.NoError(t, local.Set(ctx, storage.EntityKey(models.KindActivity, "a1"), data))

	// Reads fail open: the record comes back despite failing validation.
	found, err := repo.FindByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "a1", found.ID)
}

func TestMiddleware_FindAll_ExcludesInvalid(t *testing.T) {
	ctx := context.Background()
	repo, local := newWrappedRepo(t)

	good := models.NewActivity("Good", 1000)
	good.ID = "good"
	good.Touch(time.Now())
	data, err := json.Marshal(good)
	require.NoError(t, err)
	require.NoError(t, local.Set(ctx, storage.EntityKey(models.KindActivity, "good"), data))

	bad := &models.Activity{ID: "bad", Name: "", HourlyValue: 1000, BlockValue: 500}
	bad.Touch(time.Now())
	data, err = json.Marshal(bad)
	require.NoError(t, err)
	require.NoError(t, local.Set(ctx, storage.EntityKey(models.KindActivity, "bad"), data))

	results, err := repo.FindAll(ctx, Query[*models.Activity]{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "good", results[0].ID)
}

func TestMiddleware_FindAll_CombinesFilterWithValidation(t *testing.T) {
	ctx := context.Background()
	repo, _ := newWrappedRepo(t)

	_, err := repo.Create(ctx, models.NewActivity("Kept", 1000))
	require.NoError(t, err)

	archived := models.NewActivity("Archived", 1000)
	archived.Archived = true
	_, err = repo.Create(ctx, archived)
	require.NoError(t, err)

	results, err := repo.FindAll(ctx, Query[*models.Activity]{
		Match: func(a *models.Activity) bool { return !a.Archived },
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Kept", results[0].Name)
}

func TestMiddleware_Count_MatchesFindAll(t *testing.T) {
	ctx := context.Background()
	repo, local := newWrappedRepo(t)

	_, err := repo.Create(ctx, models.NewActivity("Valid", 1000))
	require.NoError(t, err)

	bad := &models.Activity{ID: "bad", Name: "", HourlyValue: 1000, BlockValue: 500}
	bad.Touch(time.Now())
	data, err := json.Marshal(bad)
	require.NoError(t, err)
	require.NoError(t, local.Set(ctx, storage.EntityKey(models.KindActivity, "bad"), data))

	n, err := repo.Count(ctx, Query[*models.Activity]{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMiddleware_ValidateBatch(t *testing.T) {
	repo, _ := newWrappedRepo(t)

	outcomes, err := repo.ValidateBatch([]*models.Activity{
		models.NewActivity("ok", 1000),
		models.NewActivity("", 1000),
	})
	require.Len(t, outcomes, 2)
	assert.ErrorIs(t, err, ErrValidation)
}
