package database

import (
	"os"
	"path/filepath"

	"neurosync-go/internal/model"
	"neurosync-go/pkg/log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

// InitSQLite 初始化本地 SQLite 数据库文件并迁移表结构。
// 数据库文件是进程唯一的共享资源，并发写入依赖 SQLite 自身的锁。
func InitSQLite(path string) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal("failed to create database directory", err)
		}
	}

	var err error
	DB, err = gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to open sqlite database", err)
	}

	// 打开外键约束，保证对话删除时消息级联一致
	if err := DB.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		log.Fatal("failed to enable foreign keys", err)
	}

	if err := DB.AutoMigrate(
		&model.User{},
		&model.Conversation{},
		&model.Message{},
		&model.UserPreference{},
	); err != nil {
		log.Fatal("failed to migrate database schema", err)
	}

	log.Info("SQLite database connected successfully")
}
