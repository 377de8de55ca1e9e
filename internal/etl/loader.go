// Package etl 实现从 CSV 文件批量导入商品目录数据的一次性工具。
package etl

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"thinkbot-go/internal/model"
	"thinkbot-go/pkg/log"

	"gorm.io/gorm"
)

// 六个 CSV 文件名固定，按依赖顺序加载：父实体先入库，
// 子实体再用内存映射表解析外部 ID 引用。
const (
	fileDistributionCenters = "distribution_centers.csv"
	fileProducts            = "products.csv"
	fileUsers               = "users.csv"
	fileInventoryItems      = "inventory_items.csv"
	fileOrders              = "orders.csv"
	fileOrderItems          = "order_items.csv"
)

const insertBatchSize = 100

// idMap 记录源数据整数 ID 到数据库主键的映射。
// 只在一次导入运行内部逐阶段传递，绝不跨运行共享。
type idMap map[int]uint

// Summary 汇报每个实体实际入库的行数。
type Summary struct {
	DistributionCenters int
	Products            int
	Users               int
	InventoryItems      int
	Orders              int
	OrderItems          int
}

// Loader 是 CSV 批量导入器。
type Loader struct {
	db       *gorm.DB
	dir      string
	rowLimit int
}

// NewLoader 创建一个新的 Loader。rowLimit 限制每个文件导入的行数上限。
func NewLoader(db *gorm.DB, dir string, rowLimit int) *Loader {
	if rowLimit <= 0 {
		rowLimit = 150
	}
	return &Loader{db: db, dir: dir, rowLimit: rowLimit}
}

// Run 执行一次完整导入：建表、清空目标表、按依赖顺序加载六个文件。
// 未解析的父引用导致该行跳过并记 warn，导入继续；
// 数据库故障则中止整个运行。对同样的输入重复运行结果一致。
func (l *Loader) Run(ctx context.Context) (*Summary, error) {
	if err := l.db.WithContext(ctx).AutoMigrate(
		&model.DistributionCenter{},
		&model.Product{},
		&model.User{},
		&model.InventoryItem{},
		&model.Order{},
		&model.OrderItem{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate catalog tables: %w", err)
	}

	if err := l.truncate(ctx); err != nil {
		return nil, err
	}
	log.Info("已清空全部目录数据表")

	sum := &Summary{}

	dcMap, err := l.loadDistributionCenters(ctx, sum)
	if err != nil {
		return nil, err
	}
	productMap, err := l.loadProducts(ctx, dcMap, sum)
	if err != nil {
		return nil, err
	}
	userMap, err := l.loadUsers(ctx, sum)
	if err != nil {
		return nil, err
	}
	if err := l.loadInventoryItems(ctx, productMap, dcMap, sum); err != nil {
		return nil, err
	}
	orderMap, err := l.loadOrders(ctx, userMap, sum)
	if err != nil {
		return nil, err
	}
	if err := l.loadOrderItems(ctx, orderMap, productMap, sum); err != nil {
		return nil, err
	}

	return sum, nil
}

// truncate 清空六张目标表，保证重复导入的幂等性。
func (l *Loader) truncate(ctx context.Context) error {
	targets := []interface{}{
		&model.OrderItem{},
		&model.Order{},
		&model.InventoryItem{},
		&model.User{},
		&model.Product{},
		&model.DistributionCenter{},
	}
	for _, target := range targets {
		err := l.db.WithContext(ctx).
			Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(target).Error
		if err != nil {
			return fmt.Errorf("failed to truncate %T: %w", target, err)
		}
	}
	return nil
}

func (l *Loader) loadDistributionCenters(ctx context.Context, sum *Summary) (idMap, error) {
	rows, err := l.readCSV(fileDistributionCenters)
	if err != nil {
		return nil, err
	}

	centers := make([]model.DistributionCenter, 0, len(rows))
	for _, row := range rows {
		csvID, ok := intField(row, "id")
		if !ok {
			log.Warnf("跳过配送中心行：id 字段无效 (%s)", row["id"])
			continue
		}
		centers = append(centers, model.DistributionCenter{
			CSVID:     csvID,
			Name:      row["name"],
			Latitude:  floatField(row, "latitude"),
			Longitude: floatField(row, "longitude"),
		})
	}

	if err := l.insert(ctx, &centers); err != nil {
		return nil, fmt.Errorf("failed to insert distribution centers: %w", err)
	}

	mapping := make(idMap, len(centers))
	for _, dc := range centers {
		mapping[dc.CSVID] = dc.ID
	}
	sum.DistributionCenters = len(centers)
	log.Infof("Inserted %d Distribution Centers.", len(centers))
	return mapping, nil
}

func (l *Loader) loadProducts(ctx context.Context, dcMap idMap, sum *Summary) (idMap, error) {
	rows, err := l.readCSV(fileProducts)
	if err != nil {
		return nil, err
	}

	products := make([]model.Product, 0, len(rows))
	for _, row := range rows {
		csvID, ok := intField(row, "id")
		if !ok {
			log.Warnf("跳过商品行：id 字段无效 (%s)", row["id"])
			continue
		}

		name := row["name"]
		if name == "" {
			name = "Unnamed Product"
		}
		brand := row["brand"]
		if brand == "" {
			brand = "Unknown Brand"
		}

		prod := model.Product{
			CSVID:       csvID,
			Cost:        floatField(row, "cost"),
			Category:    row["category"],
			Name:        name,
			Brand:       brand,
			RetailPrice: floatField(row, "retail_price"),
			Department:  row["department"],
			SKU:         row["sku"],
		}

		// 配送中心引用允许缺失：商品照常入库，只是不带引用
		if dcCSVID, ok := intField(row, "distribution_center_id"); ok {
			if dcID, found := dcMap[dcCSVID]; found {
				prod.DistributionCenterID = &dcID
			} else {
				log.Warnf("商品 %d 引用的配送中心 %d 未导入，引用置空", csvID, dcCSVID)
			}
		}
		products = append(products, prod)
	}

	if err := l.insert(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to insert products: %w", err)
	}

	mapping := make(idMap, len(products))
	for _, prod := range products {
		mapping[prod.CSVID] = prod.ID
	}
	sum.Products = len(products)
	log.Infof("Inserted %d Products.", len(products))
	return mapping, nil
}

func (l *Loader) loadUsers(ctx context.Context, sum *Summary) (idMap, error) {
	rows, err := l.readCSV(fileUsers)
	if err != nil {
		return nil, err
	}

	users := make([]model.User, 0, len(rows))
	for _, row := range rows {
		csvID, ok := intField(row, "id")
		if !ok {
			log.Warnf("跳过用户行：id 字段无效 (%s)", row["id"])
			continue
		}
		users = append(users, model.User{
			CSVID:         csvID,
			FirstName:     row["first_name"],
			LastName:      row["last_name"],
			Email:         row["email"],
			Age:           intPtrField(row, "age"),
			Gender:        row["gender"],
			StreetAddress: row["street_address"],
			PostalCode:    row["postal_code"],
			City:          row["city"],
			State:         row["state"],
			Country:       row["country"],
			Latitude:      floatPtrField(row, "latitude"),
			Longitude:     floatPtrField(row, "longitude"),
			TrafficSource: row["traffic_source"],
		})
	}

	if err := l.insert(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to insert users: %w", err)
	}

	mapping := make(idMap, len(users))
	for _, u := range users {
		mapping[u.CSVID] = u.ID
	}
	sum.Users = len(users)
	log.Infof("Inserted %d Users.", len(users))
	return mapping, nil
}

func (l *Loader) loadInventoryItems(ctx context.Context, productMap, dcMap idMap, sum *Summary) error {
	rows, err := l.readCSV(fileInventoryItems)
	if err != nil {
		return err
	}

	items := make([]model.InventoryItem, 0, len(rows))
	for _, row := range rows {
		csvID, ok := intField(row, "id")
		if !ok {
			log.Warnf("跳过库存行：id 字段无效 (%s)", row["id"])
			continue
		}
		prodCSVID, _ := intField(row, "product_id")
		dcCSVID, _ := intField(row, "distribution_center_id")

		productID, prodOK := productMap[prodCSVID]
		dcID, dcOK := dcMap[dcCSVID]
		if !prodOK || !dcOK {
			log.Warnf("跳过库存行 %d：商品 %d 或配送中心 %d 未导入", csvID, prodCSVID, dcCSVID)
			continue
		}

		items = append(items, model.InventoryItem{
			CSVID:                csvID,
			ProductID:            productID,
			DistributionCenterID: dcID,
			Quantity:             int(floatField(row, "quantity")),
		})
	}

	if err := l.insert(ctx, &items); err != nil {
		return fmt.Errorf("failed to insert inventory items: %w", err)
	}
	sum.InventoryItems = len(items)
	log.Infof("Inserted %d Inventory Items.", len(items))
	return nil
}

func (l *Loader) loadOrders(ctx context.Context, userMap idMap, sum *Summary) (idMap, error) {
	rows, err := l.readCSV(fileOrders)
	if err != nil {
		return nil, err
	}

	orders := make([]model.Order, 0, len(rows))
	for _, row := range rows {
		csvOrderID, ok := intField(row, "order_id")
		if !ok {
			log.Warnf("跳过订单行：order_id 字段无效 (%s)", row["order_id"])
			continue
		}
		userCSVID, _ := intField(row, "user_id")
		userID, userOK := userMap[userCSVID]
		if !userOK {
			log.Warnf("跳过订单 %d：用户 %d 未导入", csvOrderID, userCSVID)
			continue
		}

		orders = append(orders, model.Order{
			CSVOrderID:  csvOrderID,
			UserID:      userID,
			Status:      row["status"],
			Gender:      row["gender"],
			OrderedAt:   timePtrField(row, "created_at"),
			ReturnedAt:  timePtrField(row, "returned_at"),
			ShippedAt:   timePtrField(row, "shipped_at"),
			DeliveredAt: timePtrField(row, "delivered_at"),
			NumOfItems:  int(floatField(row, "num_of_item")),
		})
	}

	if err := l.insert(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to insert orders: %w", err)
	}

	mapping := make(idMap, len(orders))
	for _, o := range orders {
		mapping[o.CSVOrderID] = o.ID
	}
	sum.Orders = len(orders)
	log.Infof("Inserted %d Orders.", len(orders))
	return mapping, nil
}

func (l *Loader) loadOrderItems(ctx context.Context, orderMap, productMap idMap, sum *Summary) error {
	rows, err := l.readCSV(fileOrderItems)
	if err != nil {
		return err
	}

	items := make([]model.OrderItem, 0, len(rows))
	for _, row := range rows {
		csvID, ok := intField(row, "id")
		if !ok {
			log.Warnf("跳过订单明细行：id 字段无效 (%s)", row["id"])
			continue
		}
		orderCSVID, _ := intField(row, "order_id")
		prodCSVID, _ := intField(row, "product_id")

		orderID, orderOK := orderMap[orderCSVID]
		productID, prodOK := productMap[prodCSVID]
		if !orderOK || !prodOK {
			log.Warnf("跳过订单明细 %d：订单 %d 或商品 %d 未导入", csvID, orderCSVID, prodCSVID)
			continue
		}

		items = append(items, model.OrderItem{
			CSVID:     csvID,
			OrderID:   orderID,
			ProductID: productID,
			ItemType:  row["item_type"],
			SalePrice: floatField(row, "sale_price"),
		})
	}

	if err := l.insert(ctx, &items); err != nil {
		return fmt.Errorf("failed to insert order items: %w", err)
	}
	sum.OrderItems = len(items)
	log.Infof("Inserted %d Order Items.", len(items))
	return nil
}

func (l *Loader) insert(ctx context.Context, records interface{}) error {
	return l.db.WithContext(ctx).CreateInBatches(records, insertBatchSize).Error
}

// readCSV 读取一个 CSV 文件，首行作为表头，最多返回 rowLimit 行。
func (l *Loader) readCSV(name string) ([]map[string]string, error) {
	path := filepath.Join(l.dir, name)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	var rows []map[string]string
	for len(rows) < l.rowLimit {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[strings.TrimSpace(col)] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, row)
	}

	log.Infof("解析 %s 完成，本次导入 %d 行", name, len(rows))
	return rows, nil
}

// --- 宽容的字段解析：源数据里空值和格式噪音都很常见 ---

func intField(row map[string]string, key string) (int, bool) {
	v, err := strconv.Atoi(row[key])
	if err != nil {
		return 0, false
	}
	return v, true
}

func intPtrField(row map[string]string, key string) *int {
	if v, ok := intField(row, key); ok {
		return &v
	}
	return nil
}

func floatField(row map[string]string, key string) float64 {
	v, err := strconv.ParseFloat(row[key], 64)
	if err != nil {
		return 0
	}
	return v
}

func floatPtrField(row map[string]string, key string) *float64 {
	v, err := strconv.ParseFloat(row[key], 64)
	if err != nil {
		return nil
	}
	return &v
}

// 源数据中出现过的几种时间戳写法。
var csvTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05 UTC",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func timePtrField(row map[string]string, key string) *time.Time {
	raw := row[key]
	if raw == "" {
		return nil
	}
	for _, layout := range csvTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
