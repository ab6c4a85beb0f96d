package models

const (
	// LowStockThreshold flags products holding this many units or fewer.
	LowStockThreshold = 25
	// LowStockLimit caps the low-stock list on the dashboard.
	LowStockLimit = 5
)

// DashboardMetrics is the read-only summary behind the dashboard page.
type DashboardMetrics struct {
	TotalOrders      int64       `json:"totalOrders"`
	TotalRevenue     float64     `json:"totalRevenue"`
	TotalCustomers   int64       `json:"totalCustomers"`
	TotalProducts    int64       `json:"totalProducts"`
	RecentActivity   []OrderView `json:"recentActivity"`
	LowStockProducts []Product   `json:"lowStockProducts"`
}
