package models

// DashboardStats агрегаты по регистрациям события.
type DashboardStats struct {
	TotalRegistrations int     `json:"totalRegistrations"`
	CheckedInCount     int     `json:"checkedInCount"`
	PendingCount       int     `json:"pendingCount"`
	CheckInRate        int     `json:"checkInRate"`
	Capacity           int     `json:"capacity"`
	Revenue            float64 `json:"totalRevenue"`
	HoursUntilEvent    int     `json:"hoursUntilEvent"`
	IsEventToday       bool    `json:"isEventToday"`
	IsEventPast        bool    `json:"isEventPast"`
}

// Dashboard событие вместе с его статистикой.
type Dashboard struct {
	Event *Event         `json:"event"`
	Stats DashboardStats `json:"stats"`
}
