package entities

// ImpactEquivalents translates raw totals into relatable figures.
type ImpactEquivalents struct {
	TreesPlanted float64 `json:"trees_planted"`
	EnergySaved  float64 `json:"energy_saved_kwh"`
	WaterSaved   float64 `json:"water_saved_liters"`
}

// DashboardStats is the per-user dashboard summary.
type DashboardStats struct {
	ProfileTotals
	TotalEntries int               `json:"total_entries"`
	Equivalents  ImpactEquivalents `json:"impact_equivalents"`
}

// GlobalStats summarises activity across all users.
type GlobalStats struct {
	TotalUsers         int     `json:"total_users"`
	TotalEntries       int     `json:"total_entries"`
	TotalWasteRecycled float64 `json:"total_waste_recycled"`
	TotalCO2Saved      float64 `json:"total_co2_saved"`
	TotalPointsAwarded int64   `json:"total_points_awarded"`
	RecyclingCenters   int     `json:"recycling_centers"`
}

// LeaderboardEntry is one ranked row of the community leaderboard.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	ProfileTotals
}
