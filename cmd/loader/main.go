// Package main 是 CSV 批量导入工具的入口点。
// 每次运行都会清空目录数据表后重新导入，适合初始化和刷新测试数据。
package main

import (
	"context"
	"thinkbot-go/internal/config"
	"thinkbot-go/internal/etl"
	"thinkbot-go/pkg/database"
	"thinkbot-go/pkg/log"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()

	database.InitMySQL(cfg.Database.MySQL.DSN)

	loader := etl.NewLoader(database.DB, cfg.ETL.CSVDir, cfg.ETL.RowLimit)
	summary, err := loader.Run(context.Background())
	if err != nil {
		log.Fatal("数据导入失败", err)
	}

	log.Infow("数据导入完成",
		"distributionCenters", summary.DistributionCenters,
		"products", summary.Products,
		"users", summary.Users,
		"inventoryItems", summary.InventoryItems,
		"orders", summary.Orders,
		"orderItems", summary.OrderItems,
	)
}
