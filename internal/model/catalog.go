package model

import "time"

// 商品目录相关实体由批量导入工具从 CSV 一次性写入，聊天管道只读。
// 每个实体除数据库主键外还保留源数据中的整数 ID（csv_id），
// 导入时靠它解析实体间的引用关系。

// DistributionCenter 对应 'distribution_centers' 表。
type DistributionCenter struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	CSVID     int       `gorm:"column:csv_id;uniqueIndex;not null" json:"csvId"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (DistributionCenter) TableName() string {
	return "distribution_centers"
}

// Product 对应 'products' 表。
// DistributionCenterID 可能为空：源数据引用的配送中心未被导入时不强求解析。
type Product struct {
	ID                   uint      `gorm:"primaryKey" json:"-"`
	CSVID                int       `gorm:"column:csv_id;uniqueIndex;not null" json:"csvId"`
	Cost                 float64   `json:"cost"`
	Category             string    `gorm:"type:varchar(128)" json:"category"`
	Name                 string    `gorm:"type:varchar(255);index;not null" json:"name"`
	Brand                string    `gorm:"type:varchar(128)" json:"brand"`
	RetailPrice          float64   `json:"retailPrice"`
	Department           string    `gorm:"type:varchar(64)" json:"department"`
	SKU                  string    `gorm:"type:varchar(64)" json:"sku"`
	DistributionCenterID *uint     `gorm:"index" json:"-"`
	CreatedAt            time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Product) TableName() string {
	return "products"
}

// User 对应 'users' 表，来自源数据的顾客档案。
// 与聊天请求里自由格式的 user_id 没有任何关联（没有账号体系）。
type User struct {
	ID            uint      `gorm:"primaryKey" json:"-"`
	CSVID         int       `gorm:"column:csv_id;uniqueIndex;not null" json:"csvId"`
	FirstName     string    `gorm:"type:varchar(128)" json:"firstName"`
	LastName      string    `gorm:"type:varchar(128)" json:"lastName"`
	Email         string    `gorm:"type:varchar(255);index" json:"email"`
	Age           *int      `json:"age"`
	Gender        string    `gorm:"type:varchar(16)" json:"gender"`
	StreetAddress string    `gorm:"type:varchar(255)" json:"streetAddress"`
	PostalCode    string    `gorm:"type:varchar(32)" json:"postalCode"`
	City          string    `gorm:"type:varchar(128)" json:"city"`
	State         string    `gorm:"type:varchar(128)" json:"state"`
	Country       string    `gorm:"type:varchar(128)" json:"country"`
	Latitude      *float64  `json:"latitude"`
	Longitude     *float64  `json:"longitude"`
	TrafficSource string    `gorm:"type:varchar(64)" json:"trafficSource"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (User) TableName() string {
	return "users"
}

// InventoryItem 对应 'inventory_items' 表，记录某商品在某配送中心的库存。
type InventoryItem struct {
	ID                   uint      `gorm:"primaryKey" json:"-"`
	CSVID                int       `gorm:"column:csv_id;uniqueIndex;not null" json:"csvId"`
	ProductID            uint      `gorm:"index;not null" json:"-"`
	DistributionCenterID uint      `gorm:"index;not null" json:"-"`
	Quantity             int       `gorm:"not null" json:"quantity"`
	CreatedAt            time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (InventoryItem) TableName() string {
	return "inventory_items"
}

// Order 对应 'orders' 表。CSVOrderID 是源数据中的订单号，
// 也是用户在聊天里询问订单状态时给出的那个数字。
type Order struct {
	ID          uint       `gorm:"primaryKey" json:"-"`
	CSVOrderID  int        `gorm:"column:csv_order_id;uniqueIndex;not null" json:"csvOrderId"`
	UserID      uint       `gorm:"index;not null" json:"-"`
	Status      string     `gorm:"type:varchar(32);not null" json:"status"`
	Gender      string     `gorm:"type:varchar(16)" json:"gender"`
	OrderedAt   *time.Time `gorm:"column:ordered_at" json:"orderedAt"`
	ReturnedAt  *time.Time `json:"returnedAt"`
	ShippedAt   *time.Time `json:"shippedAt"`
	DeliveredAt *time.Time `json:"deliveredAt"`
	NumOfItems  int        `json:"numOfItems"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"createdAt"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem 对应 'order_items' 表，订单与商品的关联明细。
type OrderItem struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	CSVID     int       `gorm:"column:csv_id;uniqueIndex;not null" json:"csvId"`
	OrderID   uint      `gorm:"index;not null" json:"-"`
	ProductID uint      `gorm:"index;not null" json:"-"`
	ItemType  string    `gorm:"type:varchar(64)" json:"itemType"`
	SalePrice float64   `json:"salePrice"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
