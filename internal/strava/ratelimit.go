package strava

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RateLimitInfo is the application-wide quota reported by the last response.
// Quotas are shared by every athlete token the club uses.
type RateLimitInfo struct {
	Limit15Min    int
	Usage15Min    int
	LimitDaily    int
	UsageDaily    int
	IsRateLimited bool

	TimeUntil15MinReset time.Duration
	TimeUntilDailyReset time.Duration
	RecommendedWait     time.Duration
}

// headroom kept below each limit for interactive requests
const rateLimitBuffer = 5

// timeUntilNext15MinWindow returns the time until the next :00/:15/:30/:45
// boundary, plus two seconds of slack.
func timeUntilNext15MinWindow(now time.Time) time.Duration {
	next := now.Truncate(15 * time.Minute).Add(15 * time.Minute)
	return next.Sub(now) + 2*time.Second
}

// timeUntilMidnightUTC returns the time until the daily quota resets.
func timeUntilMidnightUTC(now time.Time) time.Duration {
	nowUTC := now.UTC()
	midnight := time.Date(nowUTC.Year(), nowUTC.Month(), nowUTC.Day()+1, 0, 0, 0, 0, time.UTC)
	return midnight.Sub(nowUTC) + 2*time.Second
}

// ShouldWaitForRateLimit returns the recommended wait, zero when requests may proceed.
func (info *RateLimitInfo) ShouldWaitForRateLimit() time.Duration {
	return info.RecommendedWait
}

// IsApproaching15MinLimit reports whether usage is within rateLimitBuffer of the 15-minute limit.
func (info *RateLimitInfo) IsApproaching15MinLimit() bool {
	if info.Limit15Min == 0 {
		return false
	}
	return info.Usage15Min >= info.Limit15Min-rateLimitBuffer
}

// IsApproachingDailyLimit reports whether usage is within rateLimitBuffer of the daily limit.
func (info *RateLimitInfo) IsApproachingDailyLimit() bool {
	if info.LimitDaily == 0 {
		return false
	}
	return info.UsageDaily >= info.LimitDaily-rateLimitBuffer
}

// recalculate refreshes the reset timers and the recommended wait for now.
func (info *RateLimitInfo) recalculate(now time.Time) {
	info.TimeUntil15MinReset = timeUntilNext15MinWindow(now)
	info.TimeUntilDailyReset = timeUntilMidnightUTC(now)
	info.RecommendedWait = 0

	switch {
	case info.Limit15Min > 0 && info.Usage15Min >= info.Limit15Min:
		info.IsRateLimited = true
		info.RecommendedWait = info.TimeUntil15MinReset
	case info.LimitDaily > 0 && info.UsageDaily >= info.LimitDaily:
		info.IsRateLimited = true
		info.RecommendedWait = info.TimeUntilDailyReset
	case info.IsApproaching15MinLimit():
		info.RecommendedWait = info.TimeUntil15MinReset
	case info.IsApproachingDailyLimit():
		info.RecommendedWait = info.TimeUntilDailyReset
	}
}

// parsePair reads a "15min,daily" header value.
func parsePair(v string) (int, int) {
	if v == "" {
		return 0, 0
	}
	parts := strings.Split(v, ",")
	first, _ := strconv.Atoi(strings.TrimSpace(parts[0]))
	var second int
	if len(parts) >= 2 {
		second, _ = strconv.Atoi(strings.TrimSpace(parts[1]))
	}
	return first, second
}

// minPositive returns the smaller of a and b, ignoring values <= 0.
func minPositive(a, b int) int {
	if a <= 0 {
		return b
	}
	if b <= 0 {
		return a
	}
	return min(a, b)
}

// parseRateLimitHeaders merges the general X-RateLimit-* and read-only
// X-ReadRateLimit-* headers, keeping the tighter limit and the higher usage.
func parseRateLimitHeaders(headers http.Header, now time.Time) RateLimitInfo {
	limit15, limitDay := parsePair(headers.Get("X-RateLimit-Limit"))
	usage15, usageDay := parsePair(headers.Get("X-RateLimit-Usage"))
	readLimit15, readLimitDay := parsePair(headers.Get("X-ReadRateLimit-Limit"))
	readUsage15, readUsageDay := parsePair(headers.Get("X-ReadRateLimit-Usage"))

	info := RateLimitInfo{
		Limit15Min: minPositive(limit15, readLimit15),
		LimitDaily: minPositive(limitDay, readLimitDay),
		Usage15Min: max(usage15, readUsage15),
		UsageDaily: max(usageDay, readUsageDay),
	}
	info.recalculate(now)
	return info
}
