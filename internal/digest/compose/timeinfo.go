package compose

import (
	"time"

	"github.com/aussiebroadwan/dailydigest/internal/digest/domain"
	"github.com/aussiebroadwan/dailydigest/internal/digest/sources"
)

// NewTimeInfo renders now in loc.
func NewTimeInfo(now time.Time, loc *time.Location) domain.TimeInfo {
	if loc != nil {
		now = now.In(loc)
	}
	weekday := sources.Weekday(now)

	return domain.TimeInfo{
		Now:        now,
		DateTime:   now.Format("2006/01/02 ") + weekday + now.Format(" 15:04:05"),
		Date:       now.Format("01月02日"),
		Weekday:    weekday,
		IsThursday: now.Weekday() == time.Thursday,
	}
}
