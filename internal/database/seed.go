package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// SeedForumCategories 写入缺失的默认论坛分类，幂等。
func SeedForumCategories(db *gorm.DB) error {
	categories := []ForumCategory{
		{Name: "Crops", Description: "Discussion about various crops"},
		{Name: "Livestock", Description: "Animal farming discussions"},
		{Name: "Irrigation", Description: "Water management topics"},
		{Name: "Soil Health", Description: "Soil management and fertility"},
		{Name: "Market Prices", Description: "Discuss current market rates"},
	}

	for _, category := range categories {
		var existing ForumCategory
		switch err := db.Where("name = ?", category.Name).First(&existing).Error; {
		case err == nil:
			continue
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := db.Create(&category).Error; err != nil {
				return fmt.Errorf("seed category %q: %w", category.Name, err)
			}
		default:
			return fmt.Errorf("query category %q: %w", category.Name, err)
		}
	}

	return nil
}
