package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wasl-next/internal/cache"
	"github.com/wasl-next/internal/constants"
	"github.com/wasl-next/internal/logger"
	"github.com/wasl-next/internal/models"
	"github.com/wasl-next/internal/repository"
)

// settingCacheTTL 设置缓存有效期
const settingCacheTTL = 5 * time.Minute

// SettingService 设置业务服务
type SettingService struct {
	repo repository.SettingRepository
}

// NewSettingService 创建设置服务
func NewSettingService(repo repository.SettingRepository) *SettingService {
	return &SettingService{repo: repo}
}

// GetByKey 获取设置（带 Redis 缓存，缓存不可用时直接回源）
func (s *SettingService) GetByKey(key string) (models.JSON, error) {
	ctx := context.Background()
	var cached models.JSON
	if hit, err := cache.GetJSON(ctx, settingCacheKey(key), &cached); err != nil {
		logger.Warnw("setting_cache_get_failed", "key", key, "error", err)
	} else if hit {
		return cached, nil
	}
	setting, err := s.repo.GetByKey(key)
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return nil, nil
	}
	if err := cache.SetJSON(ctx, settingCacheKey(key), setting.ValueJSON, settingCacheTTL); err != nil {
		logger.Warnw("setting_cache_set_failed", "key", key, "error", err)
	}
	return setting.ValueJSON, nil
}

// Update 设置值并失效对应缓存
func (s *SettingService) Update(key string, value map[string]interface{}) (models.JSON, error) {
	setting, err := s.repo.Upsert(key, models.JSON(value))
	if err != nil {
		return nil, err
	}
	if err := cache.Del(context.Background(), settingCacheKey(key)); err != nil {
		logger.Warnw("setting_cache_del_failed", "key", key, "error", err)
	}
	return setting.ValueJSON, nil
}

func settingCacheKey(key string) string {
	return "setting:" + key
}

// GetDefaultShippingCompanyID 获取系统默认承运商ID（未配置返回 0）
func (s *SettingService) GetDefaultShippingCompanyID() (uint, error) {
	if s == nil {
		return 0, nil
	}
	value, err := s.GetByKey(constants.SettingKeyShippingConfig)
	if err != nil {
		return 0, err
	}
	if value == nil {
		return 0, nil
	}
	raw, ok := value[constants.SettingFieldDefaultCompanyID]
	if !ok {
		return 0, nil
	}
	id, err := parseSettingInt(raw)
	if err != nil || id <= 0 {
		return 0, nil
	}
	return uint(id), nil
}

func parseSettingInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i), nil
		}
		if f, err := v.Float64(); err == nil {
			return int(f), nil
		}
		return 0, fmt.Errorf("invalid json number")
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, fmt.Errorf("empty string")
		}
		parsed, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0, err
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("unsupported value type")
	}
}
