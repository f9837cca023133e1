package account

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ulam-ai/internal/infrastructure/config"
	"ulam-ai/internal/pkg/common"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SavedRecipeModel 收藏食譜
type SavedRecipeModel struct {
	ID        string                `gorm:"primaryKey;size:36"`
	UserID    string                `gorm:"size:64;not null;uniqueIndex:idx_saved_user_recipe"`
	RecipeKey string                `gorm:"size:255;not null;uniqueIndex:idx_saved_user_recipe"`
	Name      string                `gorm:"size:255;not null"`
	Payload   common.DishSuggestion `gorm:"serializer:json;type:text;not null"`
	CreatedAt time.Time             `gorm:"index"`
}

// TableName 資料表名稱
func (SavedRecipeModel) TableName() string { return "saved_recipes" }

// UserProfileModel 使用者資料
type UserProfileModel struct {
	UserID    string `gorm:"primaryKey;size:64"`
	Email     string `gorm:"size:255"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName 資料表名稱
func (UserProfileModel) TableName() string { return "user_profiles" }

// RecipeViewModel 菜色瀏覽次數
type RecipeViewModel struct {
	RecipeKey string `gorm:"primaryKey;size:255"`
	Name      string `gorm:"size:255"`
	Views     int64  `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

// TableName 資料表名稱
func (RecipeViewModel) TableName() string { return "recipe_views" }

// OpenDatabase 依設定開啟 sqlite 或 postgres
func OpenDatabase(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		if dir := filepath.Dir(cfg.DSN); cfg.DSN != ":memory:" && !strings.HasPrefix(cfg.DSN, "file:") && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		dialector = sqlite.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Store 收藏資料存取
type Store struct {
	db *gorm.DB
}

// NewStore 建立資料存取並遷移資料表
func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&SavedRecipeModel{}, &UserProfileModel{}, &RecipeViewModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

// Ping 檢查資料庫連線
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 關閉資料庫連線
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// FindByRecipe 依菜色鍵查詢收藏，不存在時回傳 nil
func (s *Store) FindByRecipe(ctx context.Context, userID, recipeKey string) (*SavedRecipeModel, error) {
	var m SavedRecipeModel
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_key = ?", userID, recipeKey).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Get 依收藏 id 查詢
func (s *Store) Get(ctx context.Context, userID, id string) (*SavedRecipeModel, error) {
	var m SavedRecipeModel
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// List 列出使用者的收藏，新的在前
func (s *Store) List(ctx context.Context, userID string) ([]SavedRecipeModel, error) {
	var models []SavedRecipeModel
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&models).Error
	return models, err
}

// Create 新增收藏
func (s *Store) Create(ctx context.Context, m *SavedRecipeModel) error {
	return s.db.WithContext(ctx).Create(m).Error
}

// Delete 刪除收藏，找不到時回傳 gorm.ErrRecordNotFound
func (s *Store) Delete(ctx context.Context, userID, id string) error {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		Delete(&SavedRecipeModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpsertProfile 建立或更新使用者資料
func (s *Store) UpsertProfile(ctx context.Context, userID, email string) error {
	return s.db.WithContext(ctx).
		Where(UserProfileModel{UserID: userID}).
		Assign(UserProfileModel{Email: email}).
		FirstOrCreate(&UserProfileModel{}).Error
}

// IncrementView 瀏覽次數加一
func (s *Store) IncrementView(ctx context.Context, recipeKey, name string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		view := RecipeViewModel{RecipeKey: recipeKey}
		if err := tx.Where(RecipeViewModel{RecipeKey: recipeKey}).
			Attrs(RecipeViewModel{Name: name}).
			FirstOrCreate(&view).Error; err != nil {
			return err
		}
		return tx.Model(&view).Updates(map[string]interface{}{
			"views":      gorm.Expr("views + ?", 1),
			"updated_at": time.Now(),
		}).Error
	})
}

// Views 查詢瀏覽次數
func (s *Store) Views(ctx context.Context, recipeKey string) (int64, error) {
	var view RecipeViewModel
	err := s.db.WithContext(ctx).Where("recipe_key = ?", recipeKey).First(&view).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	return view.Views, err
}
