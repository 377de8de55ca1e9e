package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"thinkbot-go/internal/model"
	"thinkbot-go/internal/repository"

	"gorm.io/gorm"
)

// 库存查询最多取前几个候选商品。
const maxStockCandidates = 5

// DataService 把识别出的意图解析成一段自然语言数据摘要。
// 查不到数据时返回明确的 not-found 句子——这同样算解析成功，
// 只有存储层故障才返回 error。
type DataService interface {
	Resolve(ctx context.Context, intent Intent) (string, error)
}

type dataService struct {
	catalogRepo repository.CatalogRepository
}

// NewDataService 创建一个新的 DataService 实例。
func NewDataService(catalogRepo repository.CatalogRepository) DataService {
	return &dataService{catalogRepo: catalogRepo}
}

func (s *dataService) Resolve(ctx context.Context, intent Intent) (string, error) {
	switch intent.Kind {
	case IntentOrderStatus:
		return s.resolveOrder(ctx, intent.OrderID)
	case IntentProductStock:
		return s.resolveStock(ctx, intent.ProductName)
	default:
		return "", nil
	}
}

// resolveOrder 按源数据订单号查找订单并渲染多字段摘要。
// 注意：不按会话归属用户过滤——聊天里的 user_id 是自由字符串，
// 和目录里的顾客档案之间不存在可靠关联。
func (s *dataService) resolveOrder(ctx context.Context, orderID int) (string, error) {
	order, err := s.catalogRepo.FindOrderByCSVID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Sprintf("No order found with ID %d.", orderID), nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up order %d: %w", orderID, err)
	}

	items, err := s.catalogRepo.FindOrderItems(ctx, order.ID)
	if err != nil {
		return "", fmt.Errorf("failed to load items for order %d: %w", orderID, err)
	}

	itemParts := make([]string, 0, len(items))
	for _, item := range items {
		name := item.ProductName
		if name == "" {
			name = "Unknown Product"
		}
		qty := item.ItemType
		if qty == "" {
			qty = "N/A"
		}
		itemParts = append(itemParts, fmt.Sprintf("%s (Qty: %s)", name, qty))
	}

	summary := fmt.Sprintf(
		"Order ID %d details:\nStatus: %s\nCreated At: %s\nShipped At: %s\nDelivered At: %s\nNumber of Items: %d.\nItems: %s.",
		order.CSVOrderID,
		order.Status,
		formatTimestamp(order.OrderedAt),
		formatTimestamp(order.ShippedAt),
		formatTimestamp(order.DeliveredAt),
		order.NumOfItems,
		strings.Join(itemParts, ", "),
	)
	return summary, nil
}

// resolveStock 在商品名上做大小写不敏感的子串搜索（最多 5 个候选），
// 对每个候选汇总所有配送中心的库存总量和备货地点数。
func (s *dataService) resolveStock(ctx context.Context, productName string) (string, error) {
	products, err := s.catalogRepo.SearchProductsByName(ctx, productName, maxStockCandidates)
	if err != nil {
		return "", fmt.Errorf("failed to search products matching %q: %w", productName, err)
	}
	if len(products) == 0 {
		return fmt.Sprintf("No product found matching \"%s\".", productName), nil
	}

	lines := make([]string, 0, len(products))
	for _, prod := range products {
		inv, err := s.catalogRepo.SummarizeInventory(ctx, prod.ID)
		if err != nil {
			return "", fmt.Errorf("failed to summarize inventory for product %d: %w", prod.CSVID, err)
		}
		brand := prod.Brand
		if brand == "" {
			brand = "N/A"
		}
		lines = append(lines, fmt.Sprintf("%s (Brand: %s): Total Stock - %d units across %d locations.",
			prod.Name, brand, inv.TotalQuantity, inv.Locations))
	}

	return "Product stock details: " + strings.Join(lines, "\n"), nil
}

func formatTimestamp(t *time.Time) string {
	if t == nil {
		return "N/A"
	}
	return t.Format(model.TimeFormat)
}
