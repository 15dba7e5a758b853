package main

import (
	"os"

	"github.com/wasl-next/internal/config"
	"github.com/wasl-next/internal/constants"
	"github.com/wasl-next/internal/logger"
	"github.com/wasl-next/internal/models"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 平台账号（佣金入账方），密码从环境变量读取
	platformPassword := os.Getenv("WASL_PLATFORM_PASSWORD")
	if platformPassword == "" {
		platformPassword = "platform-dev-only"
		stdLog.Printf("WASL_PLATFORM_PASSWORD not set, using development default")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(platformPassword), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Fatalf("Failed to hash platform password: %v", err)
	}

	users := []models.User{
		{
			Email:        "platform@wasl.local",
			PasswordHash: string(hash),
			DisplayName:  "Platform",
			Role:         constants.UserRoleAdmin,
			Status:       constants.UserStatusActive,
		},
		{
			Email:        "marketer@wasl.local",
			PasswordHash: string(hash),
			DisplayName:  "Demo Marketer",
			Role:         constants.UserRoleMarketer,
			Status:       constants.UserStatusActive,
		},
		{
			Email:        "customer@wasl.local",
			PasswordHash: string(hash),
			DisplayName:  "Demo Customer",
			Role:         constants.UserRoleCustomer,
			Status:       constants.UserStatusActive,
		},
	}
	for _, user := range users {
		var existing models.User
		if err := models.DB.Where("email = ?", user.Email).First(&existing).Error; err != nil {
			if err := models.DB.Create(&user).Error; err != nil {
				stdLog.Printf("Failed to create user %s: %v", user.Email, err)
			} else {
				stdLog.Printf("Created user: %s (%s)", user.Email, user.Role)
			}
		} else {
			stdLog.Printf("User already exists: %s", user.Email)
		}
	}

	// 配送目的地
	villages := []models.Village{
		{Name: "Beit Hanoun", City: "North Gaza", IsActive: true},
		{Name: "Jabalia", City: "North Gaza", IsActive: true},
		{Name: "Rimal", City: "Gaza", IsActive: true},
		{Name: "Khan Younis Camp", City: "Khan Younis", IsActive: true},
	}
	for _, village := range villages {
		var existing models.Village
		if err := models.DB.Where("name = ?", village.Name).First(&existing).Error; err != nil {
			if err := models.DB.Create(&village).Error; err != nil {
				stdLog.Printf("Failed to create village %s: %v", village.Name, err)
			} else {
				stdLog.Printf("Created village: %s", village.Name)
			}
		} else {
			stdLog.Printf("Village already exists: %s", village.Name)
		}
	}

	// 承运商：无 API 凭证时走本地登记模式
	companies := []models.ShippingCompany{
		{
			Name:        "Local Dispatch",
			IsActive:    true,
			APIEndpoint: os.Getenv("WASL_CARRIER_ENDPOINT"),
			APIToken:    os.Getenv("WASL_CARRIER_TOKEN"),
		},
	}
	for _, company := range companies {
		var existing models.ShippingCompany
		if err := models.DB.Where("name = ?", company.Name).First(&existing).Error; err != nil {
			if err := models.DB.Create(&company).Error; err != nil {
				stdLog.Printf("Failed to create shipping company %s: %v", company.Name, err)
			} else {
				stdLog.Printf("Created shipping company: %s", company.Name)
			}
		} else {
			stdLog.Printf("Shipping company already exists: %s", company.Name)
		}
	}

	// 默认承运商设置
	var defaultCompany models.ShippingCompany
	if err := models.DB.Where("name = ?", "Local Dispatch").First(&defaultCompany).Error; err == nil {
		setting := models.Setting{
			Key: constants.SettingKeyShippingConfig,
			ValueJSON: models.JSON(map[string]interface{}{
				constants.SettingFieldDefaultCompanyID: defaultCompany.ID,
			}),
		}
		if err := models.DB.Save(&setting).Error; err != nil {
			stdLog.Printf("Failed to save shipping setting: %v", err)
		} else {
			stdLog.Printf("Default shipping company set to: %s (id=%d)", defaultCompany.Name, defaultCompany.ID)
		}
	}

	stdLog.Printf("Seed completed")
}
