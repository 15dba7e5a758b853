package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/wasl-next/internal/constants"
	"github.com/wasl-next/internal/models"
	"github.com/wasl-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupSettingServiceTest(t *testing.T) *SettingService {
	t.Helper()
	dsn := fmt.Sprintf("file:setting_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Setting{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewSettingService(repository.NewSettingRepository(db))
}

func TestSettingServiceUpdateAndGet(t *testing.T) {
	svc := setupSettingServiceTest(t)

	value, err := svc.Update(constants.SettingKeyShippingConfig, map[string]interface{}{
		constants.SettingFieldDefaultCompanyID: 7,
	})
	if err != nil {
		t.Fatalf("update setting failed: %v", err)
	}
	if value == nil {
		t.Fatalf("update should return the stored value")
	}

	got, err := svc.GetByKey(constants.SettingKeyShippingConfig)
	if err != nil {
		t.Fatalf("get setting failed: %v", err)
	}
	if got == nil {
		t.Fatalf("expected stored setting")
	}

	id, err := svc.GetDefaultShippingCompanyID()
	if err != nil {
		t.Fatalf("default company lookup failed: %v", err)
	}
	if id != 7 {
		t.Fatalf("default company id want 7 got %d", id)
	}
}

func TestSettingServiceGetMissingKey(t *testing.T) {
	svc := setupSettingServiceTest(t)

	got, err := svc.GetByKey("no_such_key")
	if err != nil {
		t.Fatalf("get setting failed: %v", err)
	}
	if got != nil {
		t.Fatalf("missing key should return nil, got %v", got)
	}
}
