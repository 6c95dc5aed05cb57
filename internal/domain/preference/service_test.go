package preference

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenboard/lumenboard/internal/utils"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	db := utils.SetupTestDB(t, &Document{})
	return NewService(NewRepository(db))
}

func intPtr(v int) *int { return &v }

func TestGet_AbsentUser(t *testing.T) {
	svc := newTestService(t)

	snapshot, err := svc.Get(uuid.NewString())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, snapshot.Preferences)
	assert.Equal(t, 0, snapshot.Version)
	assert.Nil(t, snapshot.UpdatedAt)
}

func TestSet_VersionsIncrementByOne(t *testing.T) {
	svc := newTestService(t)
	userID := uuid.NewString()

	first, err := svc.Set(userID, map[string]any{"theme": "dark"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)

	second, err := svc.Set(userID, map[string]any{"theme": "light"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)

	got, err := svc.Get(userID)
	require.NoError(t, err)
	assert.Equal(t, "light", got.Preferences["theme"])
	assert.NotNil(t, got.UpdatedAt)
}

func TestSet_StaleVersionConflicts(t *testing.T) {
	svc := newTestService(t)
	userID := uuid.NewString()

	_, err := svc.Set(userID, map[string]any{"theme": "dark"}, nil)
	require.NoError(t, err)

	// Two writers both read version 1; only the first may win
	_, err = svc.Set(userID, map[string]any{"theme": "light"}, intPtr(1))
	require.NoError(t, err)

	_, err = svc.Set(userID, map[string]any{"theme": "blue"}, intPtr(1))
	assert.ErrorIs(t, err, ErrVersionConflict)

	// The losing write changed nothing
	got, err := svc.Get(userID)
	require.NoError(t, err)
	assert.Equal(t, "light", got.Preferences["theme"])
	assert.Equal(t, 2, got.Version)
}

func TestSet_FirstWriteExpectations(t *testing.T) {
	svc := newTestService(t)
	userID := uuid.NewString()

	// Expecting a version on a row that does not exist is a conflict
	_, err := svc.Set(userID, map[string]any{"a": 1}, intPtr(3))
	assert.ErrorIs(t, err, ErrVersionConflict)

	// Expecting 0 on first write is fine
	snapshot, err := svc.Set(userID, map[string]any{"a": 1}, intPtr(0))
	require.NoError(t, err)
	assert.Equal(t, 1, snapshot.Version)
}

func TestUpdate_DeepMerges(t *testing.T) {
	svc := newTestService(t)
	userID := uuid.NewString()

	_, err := svc.Set(userID, map[string]any{
		"layout": map[string]any{"columns": float64(3)},
		"theme":  "dark",
	}, nil)
	require.NoError(t, err)

	snapshot, err := svc.Update(userID, map[string]any{
		"layout": map[string]any{"rows": float64(2)},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, snapshot.Version)
	assert.Equal(t, "dark", snapshot.Preferences["theme"])
	layout := snapshot.Preferences["layout"].(map[string]any)
	assert.Equal(t, float64(3), layout["columns"])
	assert.Equal(t, float64(2), layout["rows"])
}

func TestUpdate_StaleVersionConflicts(t *testing.T) {
	svc := newTestService(t)
	userID := uuid.NewString()

	_, err := svc.Set(userID, map[string]any{"theme": "dark"}, nil)
	require.NoError(t, err)
	_, err = svc.Set(userID, map[string]any{"theme": "light"}, nil)
	require.NoError(t, err)

	_, err = svc.Update(userID, map[string]any{"theme": "blue"}, intPtr(1))
	assert.ErrorIs(t, err, ErrVersionConflict)
}

func TestDelete_DotPaths(t *testing.T) {
	svc := newTestService(t)
	userID := uuid.NewString()

	_, err := svc.Set(userID, map[string]any{
		"layout": map[string]any{"columns": float64(3), "rows": float64(2)},
		"theme":  "dark",
	}, nil)
	require.NoError(t, err)

	snapshot, err := svc.Delete(userID, []string{"layout.columns", "theme"}, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, snapshot.Version)
	assert.NotContains(t, snapshot.Preferences, "theme")
	layout := snapshot.Preferences["layout"].(map[string]any)
	assert.NotContains(t, layout, "columns")
	assert.Equal(t, float64(2), layout["rows"])
}

func TestDelete_MissingPathStillBumpsVersion(t *testing.T) {
	svc := newTestService(t)
	userID := uuid.NewString()

	_, err := svc.Set(userID, map[string]any{"a": float64(1)}, nil)
	require.NoError(t, err)

	// The path does not exist; the delete is a no-op on content but the
	// mutation still succeeds
	snapshot, err := svc.Delete(userID, []string{"x.y.z"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, snapshot.Version)
	assert.Equal(t, float64(1), snapshot.Preferences["a"])
}
