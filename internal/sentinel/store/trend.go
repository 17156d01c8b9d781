package store

import (
	"fmt"
	"sort"
	"time"

	"github.com/duskwatch/sentinel/internal/sentinel/core"
)

// TrendReport buckets recorded signals into the trailing window and the
// equal-width window immediately preceding it, across three dimensions:
// signal_type, subject, dedupe_key. first_seen/last_seen are computed
// across all historical signals for that key, not just the window.
func (s *Store) TrendReport(window time.Duration) (*core.TrendReport, error) {
	now := core.NowUTC()
	windowStart := now.Add(-window)
	prevStart := now.Add(-2 * window)

	report := &core.TrendReport{
		WindowStart: windowStart,
		WindowEnd:   now,
	}

	bySignalType, err := s.bucketBy("signal_type", windowStart, now, prevStart)
	if err != nil {
		return nil, err
	}
	bySubject, err := s.bucketBy("subject", windowStart, now, prevStart)
	if err != nil {
		return nil, err
	}
	byDedupeKey, err := s.bucketBy("dedupe_key", windowStart, now, prevStart)
	if err != nil {
		return nil, err
	}

	report.BySignalType = bySignalType
	report.BySubject = bySubject
	report.ByDedupeKey = byDedupeKey
	report.Summary = summarize(bySignalType, window)

	return report, nil
}

func (s *Store) bucketBy(column string, windowStart, windowEnd, prevStart time.Time) ([]core.TrendBucket, error) {
	counts, err := s.countByKey(column, windowStart.UnixNano(), windowEnd.UnixNano())
	if err != nil {
		return nil, err
	}
	prevCounts, err := s.countByKey(column, prevStart.UnixNano(), windowStart.UnixNano())
	if err != nil {
		return nil, err
	}

	keys := make(map[string]bool)
	for k := range counts {
		keys[k] = true
	}
	for k := range prevCounts {
		keys[k] = true
	}

	buckets := make([]core.TrendBucket, 0, len(keys))
	for key := range keys {
		firstSeen, lastSeen, err := s.seenRange(column, key)
		if err != nil {
			return nil, err
		}
		count := counts[key]
		prevCount := prevCounts[key]
		bucket := core.TrendBucket{
			Key:       key,
			Count:     count,
			PrevCount: prevCount,
			Delta:     int64(count) - int64(prevCount),
		}
		if firstSeen != nil {
			bucket.FirstSeen = firstSeen
			bucket.FirstSeenInWindow = !firstSeen.Before(windowStart)
		}
		bucket.LastSeen = lastSeen
		buckets = append(buckets, bucket)
	}

	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Key < buckets[j].Key })
	return buckets, nil
}

func (s *Store) countByKey(column string, start, end int64) (map[string]uint64, error) {
	query := fmt.Sprintf(`SELECT %s, COUNT(*) FROM signals WHERE timestamp >= ? AND timestamp < ? GROUP BY %s`, column, column)
	rows, err := s.db.Query(query, start, end)
	if err != nil {
		return nil, core.NewError(core.ErrorKindIO, "querying trend counts", err)
	}
	defer rows.Close()

	out := make(map[string]uint64)
	for rows.Next() {
		var key string
		var count uint64
		if err := rows.Scan(&key, &count); err != nil {
			return nil, core.NewError(core.ErrorKindIO, "scanning trend count row", err)
		}
		out[key] = count
	}
	return out, nil
}

func (s *Store) seenRange(column, key string) (*time.Time, *time.Time, error) {
	query := fmt.Sprintf(`SELECT MIN(timestamp), MAX(timestamp) FROM signals WHERE %s = ?`, column)
	var minNano, maxNano *int64
	if err := s.db.QueryRow(query, key).Scan(&minNano, &maxNano); err != nil {
		return nil, nil, core.NewError(core.ErrorKindIO, "querying first/last seen", err)
	}
	if minNano == nil || maxNano == nil {
		return nil, nil, nil
	}
	first := time.Unix(0, *minNano).UTC()
	last := time.Unix(0, *maxNano).UTC()
	return &first, &last, nil
}

func summarize(buckets []core.TrendBucket, window time.Duration) []string {
	days := int(window.Hours() / 24)
	if len(buckets) == 0 {
		return []string{fmt.Sprintf("No activity in the last %d days.", days)}
	}
	summary := make([]string, 0, len(buckets))
	for _, b := range buckets {
		if b.PrevCount == 0 {
			summary = append(summary, fmt.Sprintf("%d new %s signals", b.Count, b.Key))
			continue
		}
		direction := "increase"
		delta := b.Delta
		if delta < 0 {
			direction = "decrease"
			delta = -delta
		}
		summary = append(summary, fmt.Sprintf("%d %s signals (%d %s)", b.Count, b.Key, delta, direction))
	}
	return summary
}
