package stats

import (
	"time"
)

// Bucket is one calendar window of an athlete's activities.
// Start is inclusive and End exclusive, both on the athlete's wall clock.
type Bucket struct {
	Label      string            `json:"label"`
	Start      time.Time         `json:"-"`
	End        time.Time         `json:"-"`
	StartDate  string            `json:"start_date"`
	EndDate    string            `json:"end_date"`
	WeekNumber int               `json:"week_number,omitempty"`
	MonthName  string            `json:"month_name,omitempty"`
	Year       int               `json:"year"`
	Stats      Aggregate         `json:"stats"`
	Activities []ActivitySummary `json:"activities"`

	members []Activity
}

// Contains reports whether a wall-clock time falls inside the bucket.
func (b Bucket) Contains(t time.Time) bool {
	local := wallClock(t)
	return !local.Before(b.Start) && local.Before(b.End)
}

// WeekStart returns local midnight of the Sunday on or before now.
func WeekStart(now time.Time) time.Time {
	today := startOfDay(wallClock(now))
	return today.AddDate(0, 0, -int(today.Weekday()))
}

// MonthStart returns local midnight of the first day of now's month.
func MonthStart(now time.Time) time.Time {
	local := wallClock(now)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// BucketByWeek splits activities into weeks Sunday to Saturday, most recent
// first, starting with the week containing now. Activities outside the
// covered weeks are dropped.
func BucketByWeek(activities []Activity, now time.Time, weeks int) []Bucket {
	if weeks <= 0 {
		return []Bucket{}
	}

	current := WeekStart(now)
	buckets := make([]Bucket, weeks)
	for i := range buckets {
		start := current.AddDate(0, 0, -7*i)
		end := start.AddDate(0, 0, 7)
		_, week := start.ISOWeek()
		buckets[i] = Bucket{
			Label:      start.Format(time.DateOnly),
			Start:      start,
			End:        end,
			StartDate:  start.Format(time.DateOnly),
			EndDate:    end.AddDate(0, 0, -1).Format(time.DateOnly),
			WeekNumber: week,
			Year:       start.Year(),
		}
	}

	return fill(buckets, activities)
}

// BucketByMonth splits activities into calendar months, most recent first,
// starting with now's month. Activities outside the covered months are dropped.
func BucketByMonth(activities []Activity, now time.Time, months int) []Bucket {
	if months <= 0 {
		return []Bucket{}
	}

	current := MonthStart(now)
	buckets := make([]Bucket, months)
	for i := range buckets {
		start := time.Date(current.Year(), current.Month()-time.Month(i), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, 0)
		buckets[i] = Bucket{
			Label:     start.Format("2006-01"),
			Start:     start,
			End:       end,
			StartDate: start.Format(time.DateOnly),
			EndDate:   end.AddDate(0, 0, -1).Format(time.DateOnly),
			MonthName: start.Month().String(),
			Year:      start.Year(),
		}
	}

	return fill(buckets, activities)
}

// fill routes each activity into the single bucket containing its local start
// and computes each bucket's stats.
func fill(buckets []Bucket, activities []Activity) []Bucket {
	for _, a := range activities {
		for i := range buckets {
			if buckets[i].Contains(a.StartTimeLocal) {
				buckets[i].members = append(buckets[i].members, a)
				break
			}
		}
	}

	for i := range buckets {
		buckets[i].Stats = Compute(buckets[i].members)
		buckets[i].Activities = Summaries(buckets[i].members)
	}
	return buckets
}

// Members returns the raw activities routed into the bucket.
func (b Bucket) Members() []Activity {
	out := make([]Activity, len(b.members))
	copy(out, b.members)
	return out
}
