package models

// ProductStats summarises one published class for its creator.
type ProductStats struct {
	ProductID   uint   `json:"productId"`
	Name        string `json:"name"`
	Likes       int64  `json:"likes"`
	Orders      int64  `json:"orders"`
	Students    int64  `json:"students"`
	Posts       int64  `json:"communityPosts"`
	Revenue     int64  `json:"revenue"`
	Completions int64  `json:"completedLectures"`
}

// CreatorStats aggregates ProductStats over a period.
type CreatorStats struct {
	Products     []ProductStats `json:"products"`
	TotalOrders  int64          `json:"totalOrders"`
	TotalRevenue int64          `json:"totalRevenue"`
	Period       StatsPeriod    `json:"period"`
}

type StatsPeriod struct {
	Start string `json:"start"`
	End   string `json:"end"`
}
