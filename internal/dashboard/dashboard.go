// Package dashboard считает статистику события для организатора.
package dashboard

import (
	"math"
	"time"

	"github.com/magabrotheeeer/eventhub/internal/models"
)

// Compute возвращает статистику события по его регистрациям на момент now.
// Отменённые регистрации не учитываются.
func Compute(event *models.Event, regs []*models.Registration, now time.Time) models.DashboardStats {
	stats := models.DashboardStats{Capacity: event.Capacity}

	for _, r := range regs {
		if !r.Confirmed() {
			continue
		}
		stats.TotalRegistrations++
		if r.CheckedIn {
			stats.CheckedInCount++
		}
	}
	stats.PendingCount = stats.TotalRegistrations - stats.CheckedInCount

	if stats.TotalRegistrations > 0 {
		stats.CheckInRate = int(math.Round(float64(stats.CheckedInCount) / float64(stats.TotalRegistrations) * 100))
	}
	if event.TicketType == models.TicketPaid && event.TicketPrice != nil {
		stats.Revenue = float64(stats.CheckedInCount) * *event.TicketPrice
	}

	if until := event.StartDate.Sub(now); until > 0 {
		stats.HoursUntilEvent = int(math.Floor(until.Hours()))
	}
	stats.IsEventToday = isToday(event, now)
	stats.IsEventPast = event.EndDate.Before(now)

	return stats
}

// isToday сравнивает календарные дни в часовом поясе события.
func isToday(event *models.Event, now time.Time) bool {
	loc, err := time.LoadLocation(event.Timezone)
	if err != nil || event.Timezone == "" {
		loc = time.UTC
	}
	today := day(now, loc)
	return !today.Before(day(event.StartDate, loc)) && !today.After(day(event.EndDate, loc))
}

func day(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
