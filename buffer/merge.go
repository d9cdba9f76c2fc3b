package buffer

import (
	"sort"
	"time"
)

// Merge folds batch into existing and returns the new record set.
//
// On the first populated fetch the sanitized batch is taken as-is. Afterwards every
// existing record drops updates older than animationTime-Retention, takes the batch's
// schedule when one is present, and gets the batch's updates appended; records left
// with nothing are pruned. Batch records not yet buffered are appended in batch order.
// Inputs are never modified.
func Merge(existing, batch []Record, animationTime time.Time, first bool) []Record {
	incoming := Sanitize(batch)
	if first {
		return incoming
	}

	cutoff := animationTime.Add(-Retention)
	byID := make(map[string]int, len(incoming))
	for i, r := range incoming {
		byID[r.EntityID] = i
	}

	seen := make(map[string]struct{}, len(existing))
	merged := make([]Record, 0, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.EntityID] = struct{}{}
		out := Record{
			EntityID: r.EntityID,
			Schedule: r.Schedule,
			Updates:  trimUpdates(r.Updates, cutoff),
		}
		if i, ok := byID[r.EntityID]; ok {
			m := incoming[i]
			if m.Schedule != nil {
				out.Schedule = m.Schedule
			}
			if len(m.Updates) > 0 {
				out.Updates = normalize(append(out.Updates, m.Updates...))
			}
		}
		if out.Empty() {
			continue
		}
		merged = append(merged, out)
	}
	for _, m := range incoming {
		if _, ok := seen[m.EntityID]; ok {
			continue
		}
		merged = append(merged, m)
	}
	return merged
}

// Sanitize drops malformed input: records without an id, updates without a time, and
// records left with neither updates nor a schedule. Records repeated within the batch
// are coalesced in first-seen order.
func Sanitize(batch []Record) []Record {
	out := make([]Record, 0, len(batch))
	pos := make(map[string]int, len(batch))
	for _, r := range batch {
		if r.EntityID == "" {
			continue
		}
		updates := make([]Update, 0, len(r.Updates))
		for _, u := range r.Updates {
			if u.Time.IsZero() {
				continue
			}
			u.EntityID = r.EntityID
			updates = append(updates, u)
		}
		sched := r.Schedule
		if sched.IsEmpty() {
			sched = nil
		}
		if i, ok := pos[r.EntityID]; ok {
			out[i].Updates = append(out[i].Updates, updates...)
			if sched != nil {
				out[i].Schedule = sched
			}
			continue
		}
		pos[r.EntityID] = len(out)
		out = append(out, Record{EntityID: r.EntityID, Schedule: sched, Updates: updates})
	}

	kept := out[:0]
	for _, r := range out {
		if r.Empty() {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

func trimUpdates(updates []Update, cutoff time.Time) []Update {
	kept := make([]Update, 0, len(updates))
	for _, u := range updates {
		if u.Time.After(cutoff) {
			kept = append(kept, u)
		}
	}
	return kept
}

// normalize sorts by time and collapses updates sharing a timestamp, keeping the later one.
// A window reset re-fetches spans that are already buffered, so the same observation
// can arrive twice.
func normalize(updates []Update) []Update {
	sort.SliceStable(updates, func(i, j int) bool {
		return updates[i].Time.Before(updates[j].Time)
	})
	out := updates[:0]
	for _, u := range updates {
		if n := len(out); n > 0 && out[n-1].Time.Equal(u.Time) {
			out[n-1] = u
			continue
		}
		out = append(out, u)
	}
	return out
}
