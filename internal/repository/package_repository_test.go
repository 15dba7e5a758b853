package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/wasl-next/internal/constants"
	"github.com/wasl-next/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupPackageRepositoryTest(t *testing.T) (*GormPackageRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:package_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Package{},
		&models.Sequence{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		// sqlite 单连接，号段分配的并发事务在连接池处串行
		sqlDB.SetMaxOpenConns(1)
	}
	return NewPackageRepository(db), db
}

func TestPackageRepositoryNextTrackingNo(t *testing.T) {
	repo, db := setupPackageRepositoryTest(t)

	first, err := repo.NextTrackingNo(100000)
	if err != nil {
		t.Fatalf("first allocation failed: %v", err)
	}
	if first != 100000 {
		t.Fatalf("first tracking no want 100000 got %d", first)
	}

	seen := map[uint64]bool{first: true}
	prev := first
	for i := 0; i < 20; i++ {
		next, err := repo.NextTrackingNo(100000)
		if err != nil {
			t.Fatalf("allocation %d failed: %v", i, err)
		}
		if next != prev+1 {
			t.Fatalf("tracking no want %d got %d", prev+1, next)
		}
		if seen[next] {
			t.Fatalf("tracking no %d allocated twice", next)
		}
		seen[next] = true
		prev = next
	}

	var seq models.Sequence
	if err := db.Where("name = ?", constants.SequenceTrackingNo).First(&seq).Error; err != nil {
		t.Fatalf("load sequence failed: %v", err)
	}
	if seq.Value != prev {
		t.Fatalf("sequence value want %d got %d", prev, seq.Value)
	}
}

func TestPackageRepositoryNextTrackingNoConcurrent(t *testing.T) {
	repo, _ := setupPackageRepositoryTest(t)

	const workers = 16
	results := make(chan uint64, workers)
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			no, err := repo.NextTrackingNo(100000)
			if err != nil {
				errs <- err
				return
			}
			results <- no
		}()
	}

	seen := map[uint64]bool{}
	for i := 0; i < workers; i++ {
		select {
		case err := <-errs:
			t.Fatalf("concurrent allocation failed: %v", err)
		case no := <-results:
			if no < 100000 || no >= 100000+workers {
				t.Fatalf("tracking no %d outside expected range", no)
			}
			if seen[no] {
				t.Fatalf("tracking no %d allocated twice", no)
			}
			seen[no] = true
		}
	}
	if len(seen) != workers {
		t.Fatalf("distinct tracking numbers want %d got %d", workers, len(seen))
	}
}

func TestPackageRepositoryListPendingBefore(t *testing.T) {
	repo, db := setupPackageRepositoryTest(t)
	now := time.Now().UTC()

	pkgs := []models.Package{
		{
			TrackingNo:        100001,
			OrderID:           1,
			ShippingCompanyID: 1,
			ToName:            "Hadi",
			VillageID:         3,
			Status:            constants.PackageStatusPending,
			CreatedAt:         now.Add(-2 * time.Hour),
			UpdatedAt:         now.Add(-2 * time.Hour),
		},
		{
			TrackingNo:        100002,
			OrderID:           2,
			ShippingCompanyID: 1,
			ToName:            "Sara",
			VillageID:         3,
			Status:            constants.PackageStatusPending,
			CreatedAt:         now.Add(-time.Minute),
			UpdatedAt:         now.Add(-time.Minute),
		},
		{
			TrackingNo:        100003,
			OrderID:           3,
			ShippingCompanyID: 1,
			ToName:            "Omar",
			VillageID:         4,
			Status:            constants.PackageStatusConfirmed,
			CreatedAt:         now.Add(-3 * time.Hour),
			UpdatedAt:         now.Add(-3 * time.Hour),
		},
	}
	for i := range pkgs {
		if err := db.Create(&pkgs[i]).Error; err != nil {
			t.Fatalf("create package %d failed: %v", i, err)
		}
	}

	rows, err := repo.ListPendingBefore(now.Add(-30*time.Minute), 50)
	if err != nil {
		t.Fatalf("list pending before failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows len want 1 got %d", len(rows))
	}
	if rows[0].OrderID != 1 {
		t.Fatalf("unexpected order_id=%d", rows[0].OrderID)
	}
}

func TestPackageRepositoryGetAndDelete(t *testing.T) {
	repo, db := setupPackageRepositoryTest(t)
	now := time.Now().UTC()

	pkg := models.Package{
		TrackingNo:        100010,
		OrderID:           42,
		ShippingCompanyID: 1,
		ToName:            "Layla",
		VillageID:         7,
		Status:            constants.PackageStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := db.Create(&pkg).Error; err != nil {
		t.Fatalf("create package failed: %v", err)
	}

	got, err := repo.GetByOrderID(42)
	if err != nil {
		t.Fatalf("get by order id failed: %v", err)
	}
	if got == nil || got.TrackingNo != 100010 {
		t.Fatalf("unexpected package: %+v", got)
	}

	got, err = repo.GetByTrackingNo(100010)
	if err != nil {
		t.Fatalf("get by tracking no failed: %v", err)
	}
	if got == nil || got.OrderID != 42 {
		t.Fatalf("unexpected package: %+v", got)
	}

	if err := repo.DeleteByID(pkg.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	got, err = repo.GetByOrderID(42)
	if err != nil {
		t.Fatalf("get after delete failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected package deleted, got %+v", got)
	}
}
