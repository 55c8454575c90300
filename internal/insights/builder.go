// Package insights computes the derived dashboard views. Every view is a pure
// function of a registry snapshot; nothing here touches the store.
package insights

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/stockroom-hq/stockroom/internal/ledger"
	"github.com/stockroom-hq/stockroom/internal/registry"
)

// ItemStat is one row of the low-stock or out-of-stock sets.
type ItemStat struct {
	ItemID       string          `json:"item_id"`
	Name         string          `json:"name"`
	StockQty     decimal.Decimal `json:"stock_qty"`
	ReorderLevel decimal.Decimal `json:"reorder_level"`
	UnitLabel    string          `json:"unit_label"`
}

// ExpiryAlert flags an item approaching or past its expiry date. Expired items
// carry negative day counts and sort first.
type ExpiryAlert struct {
	ItemID        string    `json:"item_id"`
	Name          string    `json:"name"`
	ExpiryDate    time.Time `json:"expiry_date"`
	DaysRemaining int       `json:"days_remaining"`
}

// Activity is one entry of the recent-activity feed.
type Activity struct {
	Kind  ledger.MovementKind `json:"kind"`
	Label string              `json:"label"`
	At    time.Time           `json:"at"`
}

// Dashboard is the full projection served to clients.
type Dashboard struct {
	TotalItems     int             `json:"total_items"`
	LowStock       []ItemStat      `json:"low_stock"`
	OutOfStock     []ItemStat      `json:"out_of_stock"`
	ExpiryAlerts   []ExpiryAlert   `json:"expiry_alerts"`
	RecentActivity []Activity      `json:"recent_activity"`
	TotalSpend     decimal.Decimal `json:"total_spend"`
	TotalSpendUSD  string          `json:"total_spend_usd"`
	GeneratedAt    time.Time       `json:"generated_at"`
}

const activityFeedSize = 10

var usd = message.NewPrinter(language.AmericanEnglish)

// Build recomputes every view from the snapshot. expiryWindowDays bounds the
// expiry alerts, counting in ceil days from now.
func Build(snap *registry.Snapshot, now time.Time, expiryWindowDays int) Dashboard {
	spend := TotalSpend(snap)
	return Dashboard{
		TotalItems:     len(snap.Items),
		LowStock:       LowStock(snap),
		OutOfStock:     OutOfStock(snap),
		ExpiryAlerts:   ExpiryAlerts(snap, now, expiryWindowDays),
		RecentActivity: RecentActivity(snap),
		TotalSpend:     spend,
		TotalSpendUSD:  formatUSD(spend),
		GeneratedAt:    now,
	}
}

// LowStock returns items with 0 < stockQty <= reorderLevel.
func LowStock(snap *registry.Snapshot) []ItemStat {
	stats := []ItemStat{}
	for _, item := range snap.Items {
		if item.StockQty.IsPositive() && item.StockQty.LessThanOrEqual(item.ReorderLevel) {
			stats = append(stats, itemStat(snap, item))
		}
	}
	return stats
}

// OutOfStock returns items with stockQty <= 0.
func OutOfStock(snap *registry.Snapshot) []ItemStat {
	stats := []ItemStat{}
	for _, item := range snap.Items {
		if !item.StockQty.IsPositive() {
			stats = append(stats, itemStat(snap, item))
		}
	}
	return stats
}

func itemStat(snap *registry.Snapshot, item ledger.Item) ItemStat {
	return ItemStat{
		ItemID:       item.ID,
		Name:         item.Name,
		StockQty:     item.StockQty,
		ReorderLevel: item.ReorderLevel,
		UnitLabel:    snap.UnitLabel(item.UnitID),
	}
}

// ExpiryAlerts returns items whose expiry date falls within windowDays of now,
// sorted ascending by days remaining. Day counts round up, so an item expiring
// later today counts as 1 day and one expiring yesterday as a negative count.
func ExpiryAlerts(snap *registry.Snapshot, now time.Time, windowDays int) []ExpiryAlert {
	alerts := []ExpiryAlert{}
	for _, item := range snap.Items {
		if !item.HasExpiry || item.ExpiryDate == nil {
			continue
		}
		days := int(math.Ceil(item.ExpiryDate.Sub(now).Hours() / 24))
		if days > windowDays {
			continue
		}
		alerts = append(alerts, ExpiryAlert{
			ItemID:        item.ID,
			Name:          item.Name,
			ExpiryDate:    *item.ExpiryDate,
			DaysRemaining: days,
		})
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].DaysRemaining < alerts[j].DaysRemaining
	})
	return alerts
}

// RecentActivity unions all four movement kinds into a single feed, newest
// first, truncated to the ten most recent. Ties keep input order.
func RecentActivity(snap *registry.Snapshot) []Activity {
	feed := []Activity{}
	for _, m := range snap.Purchases {
		feed = append(feed, Activity{
			Kind:  m.Kind,
			Label: fmt.Sprintf("%s · Qty %v", itemName(snap, m.ItemID), m.Quantity),
			At:    m.CreatedAt,
		})
	}
	for _, m := range snap.Consumptions {
		verb := "Consumed"
		if m.Quantity.IsNegative() {
			verb = "Undo"
		}
		feed = append(feed, Activity{
			Kind:  m.Kind,
			Label: fmt.Sprintf("%s · %s %v", itemName(snap, m.ItemID), verb, m.Quantity.Abs()),
			At:    m.CreatedAt,
		})
	}
	for _, m := range snap.Returns {
		feed = append(feed, Activity{
			Kind:  m.Kind,
			Label: fmt.Sprintf("%s · Qty %v", itemName(snap, m.ItemID), m.Quantity),
			At:    m.CreatedAt,
		})
	}
	for _, m := range snap.Adjustments {
		verb := "Decrease"
		if m.Direction == ledger.DirectionIncrease {
			verb = "Increase"
		}
		feed = append(feed, Activity{
			Kind:  m.Kind,
			Label: fmt.Sprintf("%s · %s %v", itemName(snap, m.ItemID), verb, m.Quantity),
			At:    m.CreatedAt,
		})
	}

	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].At.After(feed[j].At)
	})
	if len(feed) > activityFeedSize {
		feed = feed[:activityFeedSize]
	}
	return feed
}

// TotalSpend sums totalAmount across all purchase movements, unbounded in time.
func TotalSpend(snap *registry.Snapshot) decimal.Decimal {
	total := decimal.Zero
	for _, m := range snap.Purchases {
		total = total.Add(m.TotalAmount)
	}
	return total
}

func itemName(snap *registry.Snapshot, id string) string {
	if item := snap.Item(id); item != nil {
		return item.Name
	}
	return "Item"
}

func formatUSD(d decimal.Decimal) string {
	f, _ := d.Float64()
	return usd.Sprintf("$%.2f", f)
}
