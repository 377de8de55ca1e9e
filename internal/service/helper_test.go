package service

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"thinkbot-go/internal/model"
	"thinkbot-go/pkg/log"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	log.Init("error", "console", "")
	os.Exit(m.Run())
}

// 每个测试用独立命名的共享内存库，互不串库。
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&model.Conversation{},
		&model.Message{},
		&model.DistributionCenter{},
		&model.Product{},
		&model.User{},
		&model.InventoryItem{},
		&model.Order{},
		&model.OrderItem{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}
