package database

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"gorm.io/gorm"
)

// Migrate 建表并执行一次性数据修复。
func Migrate(db *gorm.DB, logger *slog.Logger) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	fixed, err := NormalizeLegacySkills(db)
	if err != nil {
		return err
	}
	if fixed > 0 && logger != nil {
		logger.Info("normalized legacy job skills", slog.Int("rows", fixed))
	}
	return nil
}

// NormalizeLegacySkills 把历史上以字符串形式保存的 skills（JSON 字符串套数组、逗号分隔文本）
// 重写为结构化数组，返回修复的行数。读取路径因此只需处理数组一种格式。
func NormalizeLegacySkills(db *gorm.DB) (int, error) {
	type skillRow struct {
		ID     uint
		Skills string
	}

	var rows []skillRow
	if err := db.Table("jobs").Select("id, CAST(skills AS TEXT) AS skills").Scan(&rows).Error; err != nil {
		return 0, fmt.Errorf("scan job skills: %w", err)
	}

	fixed := 0
	for _, row := range rows {
		skills, changed := DecodeLegacySkills(row.Skills)
		if !changed {
			continue
		}
		encoded, err := json.Marshal(skills)
		if err != nil {
			return fixed, fmt.Errorf("encode skills for job %d: %w", row.ID, err)
		}
		if err := db.Exec("UPDATE jobs SET skills = ? WHERE id = ?", string(encoded), row.ID).Error; err != nil {
			return fixed, fmt.Errorf("rewrite skills for job %d: %w", row.ID, err)
		}
		fixed++
	}
	return fixed, nil
}

// DecodeLegacySkills 解析任意历史格式的 skills；changed 表示存储值需要被重写。
func DecodeLegacySkills(raw string) (skills []string, changed bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return []string{}, true
	}

	var list []string
	if err := json.Unmarshal([]byte(trimmed), &list); err == nil {
		normalized := NormalizeSkills(list)
		return normalized, !slices.Equal(normalized, list)
	}

	var inner string
	if err := json.Unmarshal([]byte(trimmed), &inner); err == nil {
		if err := json.Unmarshal([]byte(inner), &list); err == nil {
			return NormalizeSkills(list), true
		}
		return NormalizeSkills(strings.Split(inner, ",")), true
	}

	return NormalizeSkills(strings.Split(trimmed, ",")), true
}
