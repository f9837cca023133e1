package account

import (
	"context"
	"testing"
	"time"

	"ulam-ai/internal/infrastructure/config"
	"ulam-ai/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) (*Service, *Verifier) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	store, err := NewStore(db)
	require.NoError(t, err)
	verifier := NewVerifier(&config.AuthConfig{JWTSecret: "test-secret", Audience: "authenticated"})
	return NewService(store, verifier), verifier
}

func adobo() (common.DishSuggestion, *common.RecipeDetail) {
	dish := common.DishSuggestion{
		ID:                  "1",
		Name:                "Chicken Adobo",
		RequiredIngredients: []string{"chicken thigh", "garlic"},
	}
	detail := &common.RecipeDetail{
		ChefNote:     "Braise low and slow.",
		Ingredients:  []common.DetailIngredient{{Item: "chicken thigh", Status: common.StatusHave}},
		Instructions: []common.InstructionStep{{StepNumber: 1, Text: "Brown the chicken."}},
	}
	return dish, detail
}

var confirmed = &Identity{UserID: "user-1", Email: "cook@example.com", EmailConfirmed: true}

func TestToggleSaveRequiresConfirmedIdentity(t *testing.T) {
	svc, _ := newTestService(t)
	dish, detail := adobo()

	tests := []struct {
		name     string
		identity *Identity
	}{
		{"anonymous", nil},
		{"unconfirmed", &Identity{UserID: "user-2", EmailConfirmed: false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ToggleSave(context.Background(), tt.identity, dish, detail, "")
			assert.ErrorIs(t, err, common.ErrSaveRejectedNoIdentity)
		})
	}
}

func TestToggleSaveRequiresDetail(t *testing.T) {
	svc, _ := newTestService(t)
	dish, _ := adobo()

	_, err := svc.ToggleSave(context.Background(), confirmed, dish, nil, "")
	assert.ErrorIs(t, err, common.ErrNoRecipeSelected)
}

func TestToggleSaveRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	dish, detail := adobo()

	result, err := svc.ToggleSave(ctx, confirmed, dish, detail, "https://img.example/adobo.jpg")
	require.NoError(t, err)
	assert.True(t, result.Saved)
	require.NotNil(t, result.Recipe)
	assert.NotEmpty(t, result.Recipe.SavedID)

	saved, err := svc.List(ctx, confirmed)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "Chicken Adobo", saved[0].Name)
	assert.Equal(t, "https://img.example/adobo.jpg", saved[0].Image)
	assert.Equal(t, "user-1", saved[0].OwnerID)

	opened, err := svc.OpenSaved(ctx, confirmed, saved[0].SavedID)
	require.NoError(t, err)
	require.NotNil(t, opened.FullDetails)
	assert.Equal(t, "Braise low and slow.", opened.FullDetails.ChefNote)

	// 名稱大小寫不同仍視為同一道菜
	dish.Name = "  chicken ADOBO "
	result, err = svc.ToggleSave(ctx, confirmed, dish, detail, "")
	require.NoError(t, err)
	assert.False(t, result.Saved)

	saved, err = svc.List(ctx, confirmed)
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestSavedRecipesAreScopedToOwner(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	dish, detail := adobo()

	result, err := svc.ToggleSave(ctx, confirmed, dish, detail, "")
	require.NoError(t, err)

	other := &Identity{UserID: "user-9", EmailConfirmed: true}
	saved, err := svc.List(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, saved)

	_, err = svc.OpenSaved(ctx, other, result.Recipe.SavedID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, other, result.Recipe.SavedID), common.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, confirmed, result.Recipe.SavedID))
	assert.ErrorIs(t, svc.Delete(ctx, confirmed, result.Recipe.SavedID), common.ErrNotFound)
}

func TestRecordViewCounts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	dish, _ := adobo()

	svc.RecordView(ctx, dish)
	dish.Name = "chicken adobo"
	svc.RecordView(ctx, dish)

	views, err := svc.store.Views(ctx, "chicken adobo")
	require.NoError(t, err)
	assert.Equal(t, int64(2), views)
}

func TestVerifier(t *testing.T) {
	svc, verifier := newTestService(t)

	token, err := verifier.Issue(Identity{UserID: "user-1", Email: "cook@example.com", EmailConfirmed: true}, time.Hour)
	require.NoError(t, err)

	identity, err := svc.Authenticate("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", identity.UserID)
	assert.True(t, identity.CanSave())

	unconfirmed, err := verifier.Issue(Identity{UserID: "user-2"}, time.Hour)
	require.NoError(t, err)
	identity, err = verifier.Verify(unconfirmed)
	require.NoError(t, err)
	assert.False(t, identity.CanSave())

	anonymous, err := svc.Authenticate("")
	require.NoError(t, err)
	assert.Nil(t, anonymous)

	expired, err := verifier.Issue(Identity{UserID: "user-1"}, -time.Minute)
	require.NoError(t, err)
	_, err = verifier.Verify(expired)
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	foreign := NewVerifier(&config.AuthConfig{JWTSecret: "other-secret", Audience: "authenticated"})
	forged, err := foreign.Issue(Identity{UserID: "user-1", EmailConfirmed: true}, time.Hour)
	require.NoError(t, err)
	_, err = verifier.Verify(forged)
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	_, err = verifier.Verify("not-a-token")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestNilVerifierRejects(t *testing.T) {
	var v *Verifier
	assert.Nil(t, NewVerifier(&config.AuthConfig{}))
	_, err := v.Verify("anything")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}
