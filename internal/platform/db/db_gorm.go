package db

import (
	"log"
	"time"

	gmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"portal_backend/internal/config"
	auditentity "portal_backend/internal/feature/audit/domain/entity"
	"portal_backend/internal/feature/auth/domain/entity"
)

// OpenDB は MySQL への接続を確立します。起動直後は DB 側の準備が
// 整っていない場合があるため、ConnectTimeout まで接続をリトライします。
func OpenDB(cfg *config.Config) *gorm.DB {
	dsn := cfg.DSN()

	var (
		db  *gorm.DB
		err error
	)

	deadline := time.Now().Add(cfg.Database.ConnectTimeout)
	for {
		db, err = gorm.Open(gmysql.Open(dsn), &gorm.Config{})
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			log.Fatalf("DB connect failed after %s: %v", cfg.Database.ConnectTimeout, err)
		}
		log.Printf("DB connect failed, retrying...: %v", err)
		time.Sleep(3 * time.Second)
	}

	if cfg.Database.RunMigrations {
		// マイグレーション（User, OperationLog）
		if err := db.AutoMigrate(
			&entity.User{},
			&auditentity.OperationLog{},
		); err != nil {
			log.Fatalf("failed to migrate: %v", err)
		}
	}

	return db
}
