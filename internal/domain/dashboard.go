package domain

import "time"

// Booking is one appointment slot as reported by the upstream API.
type Booking struct {
	ID           int64     `json:"id"`
	CustomerName string    `json:"customer_name"`
	ServiceName  string    `json:"service_name"`
	SlotTime     time.Time `json:"slot_time"`
	Status       string    `json:"status"`
}

// OverviewReport aggregates bookings and revenue for one reporting window.
type OverviewReport struct {
	TotalBookings  int     `json:"total_bookings"`
	TotalRevenue   float64 `json:"total_revenue"`
	NewCustomers   int     `json:"new_customers"`
	CancellationPc float64 `json:"cancellation_rate"`
}

// RevenuePoint is one bucket of the revenue series.
type RevenuePoint struct {
	Period  string  `json:"period"`
	Revenue float64 `json:"revenue"`
}

// DashboardSnapshot is the aggregated result of one dashboard load cycle.
// Each slot is independently nil when its request has not resolved or
// failed; a failure in one slot never blocks the others.
type DashboardSnapshot struct {
	OverviewDaily   *OverviewReport `json:"overview_daily"`
	OverviewMonthly *OverviewReport `json:"overview_monthly"`
	RevenueSeries   []RevenuePoint  `json:"revenue_series"`
	Bookings        []Booking       `json:"bookings"`
	Customers       *int            `json:"customers"`
}
