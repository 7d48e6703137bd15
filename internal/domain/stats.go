package domain

import "strings"

// StatCategory is the closed set of dashboard stat cards.
type StatCategory int

const (
	StatTotalRevenue StatCategory = iota
	StatTotalExpenses
	StatNetProfit
	StatNewCustomers
)

// StatIcon names the icon a stat card is drawn with.
type StatIcon string

const (
	IconTrendingUp StatIcon = "trending_up"
	IconArrowDown  StatIcon = "arrow_down"
	IconArrowUp    StatIcon = "arrow_up"
	IconUser       StatIcon = "user"
	IconZap        StatIcon = "zap"
	IconSparkles   StatIcon = "sparkles"
)

// StatCard is the fixed rendering metadata of one category.
type StatCard struct {
	Category  StatCategory `json:"-"`
	Key       string       `json:"key"`
	Title     string       `json:"title"`
	Value     int64        `json:"value"`
	Icon      StatIcon     `json:"icon"`
	IconColor string       `json:"icon_color"`
	Change    string       `json:"change"`
}

// Positive reports whether the change is an increase.
func (c StatCard) Positive() bool {
	return strings.HasPrefix(c.Change, "+")
}

var statCards = [...]StatCard{
	StatTotalRevenue:  {StatTotalRevenue, "total_revenue", "Total Revenue", 660000, IconTrendingUp, "text-green-400", "+5.2%"},
	StatTotalExpenses: {StatTotalExpenses, "total_expenses", "Total Expenses", 150000, IconArrowDown, "text-red-400", "+2.1%"},
	StatNetProfit:     {StatNetProfit, "net_profit", "Net Profit", 510000, IconArrowUp, "text-emerald-400", "+6.8%"},
	StatNewCustomers:  {StatNewCustomers, "new_customers", "New Customers", 3461, IconUser, "text-blue-400", "+0.5%"},
}

// Card returns the card of a category.
func (c StatCategory) Card() StatCard {
	return statCards[c]
}

// StatCategoryByKey resolves a card key such as "net_profit".
func StatCategoryByKey(key string) (StatCategory, bool) {
	for i := range statCards {
		if statCards[i].Key == key {
			return StatCategory(i), true
		}
	}
	return 0, false
}

// StatCards returns every dashboard card in display order.
func StatCards() []StatCard {
	out := make([]StatCard, len(statCards))
	copy(out, statCards[:])
	return out
}

// SuggestedPrompt is a one-click starter question on the dashboard.
type SuggestedPrompt struct {
	Title       string   `json:"title"`
	Text        string   `json:"text"`
	Description string   `json:"description"`
	Icon        StatIcon `json:"icon"`
}

// SuggestedPrompts returns the dashboard starter questions.
func SuggestedPrompts() []SuggestedPrompt {
	return []SuggestedPrompt{
		{"Revenue Analysis", "Show the revenue for the last quarter", "Get detailed revenue breakdown", IconTrendingUp},
		{"Expense Report", "List all top expenses in the last month", "Track spending patterns", IconArrowDown},
		{"Quarter Comparison", "Compare revenue in Q1 and Q2 over the last 5 years.", "Historical trend analysis", IconZap},
		{"AI Recommendations", "What can we do to reduce expenses in marketing?", "Get actionable insights", IconSparkles},
	}
}
