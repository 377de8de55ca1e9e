package service

import (
	"regexp"
	"strconv"
	"strings"
)

// IntentKind 是意图识别的结果类别。
type IntentKind int

const (
	// IntentNone 表示没有识别出任何意图，prompt 只由原始提问组成。
	IntentNone IntentKind = iota
	// IntentOrderStatus 表示用户在询问订单状态。
	IntentOrderStatus
	// IntentProductStock 表示用户在询问商品库存。
	IntentProductStock
)

// Intent 是意图匹配的结果：类别加上从文本中抽取出的参数。
type Intent struct {
	Kind        IntentKind
	OrderID     int    // IntentOrderStatus 时有效
	ProductName string // IntentProductStock 时有效，已去除首尾空白
}

// intentRule 是一条 (模式, 抽取器) 规则。
type intentRule struct {
	kind    IntentKind
	pattern *regexp.Regexp
	extract func(groups []string) (Intent, bool)
}

// 按优先级排列的识别规则，命中第一条即停止。
// 订单状态优先于库存查询：即使文本同时包含 "how many"，
// 只要出现 "order"/"id" + 数字就按订单处理。
// 匹配刻意保持脆弱：任何不符合模式的问法都落到 IntentNone，
// 扩大意图覆盖面是产品决策，不在这里做。
var intentRules = []intentRule{
	{
		kind:    IntentOrderStatus,
		pattern: regexp.MustCompile(`(?i)(?:order|id)\s*#?(\d+)`),
		extract: func(groups []string) (Intent, bool) {
			id, err := strconv.Atoi(groups[1])
			if err != nil {
				return Intent{}, false
			}
			return Intent{Kind: IntentOrderStatus, OrderID: id}, true
		},
	},
	{
		kind:    IntentProductStock,
		pattern: regexp.MustCompile(`(?i)(?:stock|quantity|how many)\s+(.+?)(?:\s+in\s+stock)?\s*[?.!]*$`),
		extract: func(groups []string) (Intent, bool) {
			name := strings.TrimSpace(groups[1])
			if name == "" {
				return Intent{}, false
			}
			return Intent{Kind: IntentProductStock, ProductName: name}, true
		},
	},
}

// MatchIntent 把原始用户文本映射到零或一个意图。纯函数，无副作用。
func MatchIntent(text string) Intent {
	for _, rule := range intentRules {
		groups := rule.pattern.FindStringSubmatch(text)
		if groups == nil {
			continue
		}
		if intent, ok := rule.extract(groups); ok {
			return intent
		}
	}
	return Intent{Kind: IntentNone}
}
