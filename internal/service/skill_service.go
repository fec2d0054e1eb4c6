package service

import (
	"context"
	"unicode/utf8"

	"github.com/Kiran8658/FSD-Even-project/internal/db"
	"github.com/Kiran8658/FSD-Even-project/internal/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	MinSkillLevel = 0
	MaxSkillLevel = 100

	maxSkillNameLength = 100
)

// SkillView 描述账户的一项技能；Synthesized 表示来自默认目录，尚未持久化
type SkillView struct {
	SkillID     uint
	Name        string
	Category    string
	Level       int
	Synthesized bool
}

// SetSkillInput 定义设置熟练度的输入；Category 仅在技能首次出现时使用
type SetSkillInput struct {
	Name     string
	Category string
	Level    int
}

// SkillService 维护账户技能熟练度与共享目录
type SkillService struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewSkillService 构造 SkillService
func NewSkillService(gdb *gorm.DB, log *logger.Logger) *SkillService {
	if log == nil {
		log = logger.Nop()
	}
	return &SkillService{db: gdb, log: log}
}

// List 返回账户的全部技能；尚未设置任何技能时返回等级为 0 的默认目录
func (s *SkillService) List(ctx context.Context, accountID string) ([]SkillView, error) {
	var assignments []db.AccountSkill
	err := readTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := ensureAccount(ctx, tx, accountID); err != nil {
			return err
		}
		if err := tx.Preload("Skill").
			Joins("JOIN skills ON skills.id = account_skills.skill_id").
			Where("account_skills.account_id = ?", accountID).
			Order("skills.category ASC").
			Order("skills.name ASC").
			Find(&assignments).Error; err != nil {
			return storageErr("list skills", err)
		}
		return nil
	})
	if err != nil {
		return nil, txErr(err)
	}

	if len(assignments) == 0 {
		return defaultSkillViews(), nil
	}

	views := make([]SkillView, 0, len(assignments))
	for _, a := range assignments {
		views = append(views, SkillView{
			SkillID:  a.SkillID,
			Name:     a.Skill.Name,
			Category: a.Skill.Category,
			Level:    a.Level,
		})
	}
	return views, nil
}

// SetLevel 设置熟练度，等级会被限制在 [0, 100]。
// 目录中不存在的技能会被创建，分类缺省时回退到默认目录。
func (s *SkillService) SetLevel(ctx context.Context, accountID string, input SetSkillInput) (*SkillView, error) {
	name := plainText(input.Name)
	category := plainText(input.Category)
	if name == "" {
		return nil, invalidf("skill name is required")
	}
	if utf8.RuneCountInString(name) > maxSkillNameLength || utf8.RuneCountInString(category) > maxSkillNameLength {
		return nil, invalidf("skill name or category exceeds %d characters", maxSkillNameLength)
	}
	level := clampLevel(input.Level)

	var view SkillView
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureAccount(ctx, tx, accountID); err != nil {
			return err
		}

		skill, err := findOrCreateSkill(tx, name, category)
		if err != nil {
			return err
		}

		assignment := db.AccountSkill{AccountID: accountID, SkillID: skill.ID, Level: level}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}, {Name: "skill_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"level", "updated_at"}),
		}).Create(&assignment).Error; err != nil {
			return storageErr("upsert account skill", err)
		}

		view = SkillView{SkillID: skill.ID, Name: skill.Name, Category: skill.Category, Level: level}
		return nil
	})
	if err != nil {
		return nil, txErr(err)
	}

	s.log.Info("skill level set", "account_id", accountID, "skill", view.Name, "level", view.Level)
	return &view, nil
}

// Catalog 返回共享技能目录，按分类与名称排序
func (s *SkillService) Catalog(ctx context.Context) ([]db.Skill, error) {
	var skills []db.Skill
	if err := s.db.WithContext(ctx).
		Order("category ASC").
		Order("name ASC").
		Find(&skills).Error; err != nil {
		return nil, storageErr("list skill catalog", err)
	}
	return skills, nil
}

func findOrCreateSkill(tx *gorm.DB, name, category string) (*db.Skill, error) {
	var skill db.Skill
	err := tx.Where("LOWER(name) = LOWER(?)", name).First(&skill).Error
	if err == nil {
		return &skill, nil
	}
	if !isRecordNotFound(err) {
		return nil, storageErr("find skill", err)
	}

	if category == "" {
		seed, ok := db.DefaultSkillCategory(name)
		if !ok {
			return nil, invalidf("category is required for new skill %q", name)
		}
		name, category = seed.Name, seed.Category
	}

	skill = db.Skill{Name: name, Category: category}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&skill).Error; err != nil {
		return nil, storageErr("create skill", err)
	}
	if err := tx.Where("name = ?", name).First(&skill).Error; err != nil {
		return nil, storageErr("reload skill", err)
	}
	return &skill, nil
}

func clampLevel(level int) int {
	return min(MaxSkillLevel, max(MinSkillLevel, level))
}

func defaultSkillViews() []SkillView {
	views := make([]SkillView, 0, len(db.DefaultSkills))
	for _, seed := range db.DefaultSkills {
		views = append(views, SkillView{Name: seed.Name, Category: seed.Category, Synthesized: true})
	}
	return views
}
