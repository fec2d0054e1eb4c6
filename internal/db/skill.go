package db

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Skill 是所有账户共享的技能目录条目
type Skill struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"type:varchar(100);uniqueIndex;not null"`
	Category  string `gorm:"type:varchar(100);not null"`
	CreatedAt time.Time
}

// AccountSkill 记录账户对某个技能的熟练度（0-100）
type AccountSkill struct {
	ID        uint   `gorm:"primaryKey"`
	AccountID string `gorm:"type:varchar(36);not null;uniqueIndex:idx_account_skill"`
	SkillID   uint   `gorm:"not null;uniqueIndex:idx_account_skill"`
	Skill     Skill  `gorm:"constraint:OnDelete:CASCADE"`
	Level     int    `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SkillSeed 描述默认目录中的一项
type SkillSeed struct {
	Name     string
	Category string
}

// DefaultSkills 为新账户展示的默认技能，同时作为目录初始数据
var DefaultSkills = []SkillSeed{
	{Name: "React", Category: "Frontend"},
	{Name: "TypeScript", Category: "Language"},
	{Name: "Node.js", Category: "Backend"},
	{Name: "CSS", Category: "Frontend"},
	{Name: "Database Design", Category: "Backend"},
	{Name: "DevOps", Category: "Tools"},
}

// DefaultSkillCategory 在默认目录中查找技能分类，名称不区分大小写
func DefaultSkillCategory(name string) (SkillSeed, bool) {
	for _, seed := range DefaultSkills {
		if strings.EqualFold(seed.Name, strings.TrimSpace(name)) {
			return seed, true
		}
	}
	return SkillSeed{}, false
}

// SeedSkillCatalog 幂等写入默认技能目录
func SeedSkillCatalog(gdb *gorm.DB) error {
	for _, seed := range DefaultSkills {
		skill := Skill{Name: seed.Name, Category: seed.Category}
		if err := gdb.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&skill).Error; err != nil {
			return fmt.Errorf("seed skill %s: %w", seed.Name, err)
		}
	}
	return nil
}
