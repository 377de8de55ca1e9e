package repository

import (
	"context"
	"strings"

	"thinkbot-go/internal/model"

	"gorm.io/gorm"
)

// OrderItemDetail 是订单明细连同商品名的查询结果。
// ProductName 为空表示商品引用未能解析。
type OrderItemDetail struct {
	model.OrderItem
	ProductName string
}

// InventorySummary 汇总某商品的库存情况。
type InventorySummary struct {
	TotalQuantity int
	Locations     int
}

// CatalogRepository 定义了商品目录数据的只读查询。
// 目录数据由批量导入工具写入，聊天管道从不修改它。
type CatalogRepository interface {
	// FindOrderByCSVID 按源数据中的订单号查找订单，未命中返回 gorm.ErrRecordNotFound。
	FindOrderByCSVID(ctx context.Context, csvOrderID int) (*model.Order, error)
	// FindOrderItems 返回订单的全部明细并带出商品名。
	FindOrderItems(ctx context.Context, orderID uint) ([]OrderItemDetail, error)
	// SearchProductsByName 在商品名上做大小写不敏感的子串匹配，最多返回 limit 条。
	SearchProductsByName(ctx context.Context, fragment string, limit int) ([]model.Product, error)
	// SummarizeInventory 汇总某商品在所有配送中心的库存总量和不同备货地点数。
	SummarizeInventory(ctx context.Context, productID uint) (InventorySummary, error)
}

type catalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository 创建一个新的 CatalogRepository 实例。
func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) FindOrderByCSVID(ctx context.Context, csvOrderID int) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("csv_order_id = ?", csvOrderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *catalogRepository) FindOrderItems(ctx context.Context, orderID uint) ([]OrderItemDetail, error) {
	var details []OrderItemDetail
	err := r.db.WithContext(ctx).
		Model(&model.OrderItem{}).
		Select("order_items.*, products.name AS product_name").
		Joins("LEFT JOIN products ON products.id = order_items.product_id").
		Where("order_items.order_id = ?", orderID).
		Order("order_items.id ASC").
		Find(&details).Error
	if err != nil {
		return nil, err
	}
	return details, nil
}

func (r *catalogRepository) SearchProductsByName(ctx context.Context, fragment string, limit int) ([]model.Product, error) {
	var products []model.Product
	// LOWER 两侧都做，MySQL 与 sqlite 行为才一致
	pattern := "%" + strings.ToLower(fragment) + "%"
	err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ?", pattern).
		Order("id ASC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *catalogRepository) SummarizeInventory(ctx context.Context, productID uint) (InventorySummary, error) {
	var row struct {
		TotalQuantity int
		Locations     int
	}
	err := r.db.WithContext(ctx).
		Model(&model.InventoryItem{}).
		Select("COALESCE(SUM(quantity), 0) AS total_quantity, COUNT(DISTINCT distribution_center_id) AS locations").
		Where("product_id = ?", productID).
		Scan(&row).Error
	if err != nil {
		return InventorySummary{}, err
	}
	return InventorySummary{TotalQuantity: row.TotalQuantity, Locations: row.Locations}, nil
}
