package sweeper

import (
	"fmt"
	"time"

	"docbin/internal/model"
	"docbin/internal/service"
)

// Stats describes one retention sweep.
type Stats struct {
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	FoldersPurged int       `json:"folders_purged"`
	FilesPurged   int       `json:"files_purged"`
	Failed        int       `json:"failed"`
}

// Total is the number of distinct entities purged.
func (s *Stats) Total() int {
	return s.FoldersPurged + s.FilesPurged
}

// Duration returns how long the sweep took, or has taken so far.
func (s *Stats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Summary returns a human-readable summary of the sweep.
func (s *Stats) Summary() string {
	return fmt.Sprintf("purged=%d folders=%d files=%d failed=%d duration=%s",
		s.Total(), s.FoldersPurged, s.FilesPurged, s.Failed, s.Duration())
}

func (s *Stats) record(res *service.CascadeResult, purged map[model.EntityRef]bool) {
	if res == nil {
		s.Failed++
		return
	}
	for _, ref := range res.Succeeded {
		if purged[ref] {
			continue
		}
		purged[ref] = true
		if ref.Kind == model.KindFolder {
			s.FoldersPurged++
		} else {
			s.FilesPurged++
		}
	}
	s.Failed += len(res.Failed)
}
