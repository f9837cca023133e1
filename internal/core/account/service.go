package account

import (
	"context"
	"errors"
	"time"

	"ulam-ai/internal/pkg/common"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service 收藏食譜服務
type Service struct {
	store    *Store
	verifier *Verifier
}

// NewService 創建收藏服務
func NewService(store *Store, verifier *Verifier) *Service {
	return &Service{store: store, verifier: verifier}
}

// Authenticate 驗證權杖；空字串代表未登入，回傳 nil 身分
func (s *Service) Authenticate(token string) (*Identity, error) {
	if token == "" {
		return nil, nil
	}
	return s.verifier.Verify(token)
}

// Ping 檢查收藏資料庫
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ToggleResult 收藏切換結果
type ToggleResult struct {
	Saved  bool                `json:"saved"`
	Recipe *common.SavedRecipe `json:"recipe,omitempty"`
}

// ToggleSave 收藏或取消收藏目前的食譜，以菜名標準形式判斷是否已收藏
func (s *Service) ToggleSave(ctx context.Context, identity *Identity, dish common.DishSuggestion, detail *common.RecipeDetail, imageURL string) (*ToggleResult, error) {
	if !identity.CanSave() {
		return nil, common.ErrSaveRejectedNoIdentity
	}
	if detail == nil {
		return nil, common.ErrNoRecipeSelected
	}

	key := common.Normalize(dish.Name)
	existing, err := s.store.FindByRecipe(ctx, identity.UserID, key)
	if err != nil {
		return nil, s.storeError("查詢收藏失敗", err)
	}

	if existing != nil {
		if err := s.store.Delete(ctx, identity.UserID, existing.ID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, s.storeError("取消收藏失敗", err)
		}
		common.LogInfo("已取消收藏", zap.String("user", identity.UserID), zap.String("dish", dish.Name))
		return &ToggleResult{Saved: false}, nil
	}

	if err := s.store.UpsertProfile(ctx, identity.UserID, identity.Email); err != nil {
		return nil, s.storeError("更新使用者資料失敗", err)
	}

	payload := dish.Clone()
	payload.FullDetails = detail.Clone()
	if imageURL != "" {
		payload.Image = imageURL
	}
	model := &SavedRecipeModel{
		ID:        common.GenerateUUID(),
		UserID:    identity.UserID,
		RecipeKey: key,
		Name:      dish.Name,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Create(ctx, model); err != nil {
		return nil, s.storeError("新增收藏失敗", err)
	}

	common.LogInfo("已收藏食譜", zap.String("user", identity.UserID), zap.String("dish", dish.Name))
	recipe := toSavedRecipe(model)
	return &ToggleResult{Saved: true, Recipe: &recipe}, nil
}

// List 列出收藏
func (s *Service) List(ctx context.Context, identity *Identity) ([]common.SavedRecipe, error) {
	if !identity.CanSave() {
		return nil, common.ErrSaveRejectedNoIdentity
	}
	models, err := s.store.List(ctx, identity.UserID)
	if err != nil {
		return nil, s.storeError("讀取收藏失敗", err)
	}
	out := make([]common.SavedRecipe, 0, len(models))
	for i := range models {
		out = append(out, toSavedRecipe(&models[i]))
	}
	return out, nil
}

// Delete 刪除收藏
func (s *Service) Delete(ctx context.Context, identity *Identity, id string) error {
	if !identity.CanSave() {
		return common.ErrSaveRejectedNoIdentity
	}
	err := s.store.Delete(ctx, identity.UserID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return common.ErrNotFound.Wrap(err)
	}
	if err != nil {
		return s.storeError("刪除收藏失敗", err)
	}
	return nil
}

// OpenSaved 取出收藏的菜色，FullDetails 已帶完整食譜
func (s *Service) OpenSaved(ctx context.Context, identity *Identity, id string) (common.DishSuggestion, error) {
	if !identity.CanSave() {
		return common.DishSuggestion{}, common.ErrSaveRejectedNoIdentity
	}
	model, err := s.store.Get(ctx, identity.UserID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return common.DishSuggestion{}, common.ErrNotFound.Wrap(err)
	}
	if err != nil {
		return common.DishSuggestion{}, s.storeError("讀取收藏失敗", err)
	}
	return model.Payload.Clone(), nil
}

// RecordView 記錄瀏覽次數，失敗只記錄日誌
func (s *Service) RecordView(ctx context.Context, dish common.DishSuggestion) {
	if err := s.store.IncrementView(ctx, common.Normalize(dish.Name), dish.Name); err != nil {
		common.LogWarn("瀏覽次數記錄失敗", zap.String("dish", dish.Name), zap.Error(err))
	}
}

func (s *Service) storeError(msg string, err error) error {
	common.LogError(msg, zap.Error(err))
	return common.ErrStoreFailure.Wrap(err)
}

func toSavedRecipe(m *SavedRecipeModel) common.SavedRecipe {
	return common.SavedRecipe{
		DishSuggestion: m.Payload.Clone(),
		SavedID:        m.ID,
		OwnerID:        m.UserID,
		SavedAt:        m.CreatedAt,
	}
}
