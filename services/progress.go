package services

import (
	"context"
	"errors"

	"github.com/canvaslite/backend/model"
	"gorm.io/gorm"
)

// completionThreshold is the fraction of a video that must be watched
// before the video counts as completed.
const completionThreshold = 0.95

// ProgressService records per-user video watch progress
type ProgressService struct {
	db *gorm.DB
}

// NewProgressService creates a new progress service
func NewProgressService(db *gorm.DB) *ProgressService {
	return &ProgressService{db: db}
}

// ProgressResult is what the player UI needs after reporting progress
type ProgressResult struct {
	Percent     int     `json:"percent"`
	WatchedTime float64 `json:"watched_time"`
	IsCompleted bool    `json:"is_completed"`
}

// RecordProgress applies one progress report for (userID, videoID).
//
// Reported values come from the client and may be garbage: a non-positive
// duration falls back to the video's stored duration (or 1 when that is
// also unset), and negative watched time is clamped to zero. Recorded
// watched time only ever grows, and the completed flag latches once
// watched time reaches 95% of the duration. The read-modify-write runs in
// one transaction; the unique (user_id, video_id) index is the barrier
// against concurrent duplicate inserts.
func (s *ProgressService) RecordProgress(ctx context.Context, userID, videoID uint, watchedTime, duration float64) (*ProgressResult, error) {
	var result ProgressResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var video model.Video
		if err := tx.First(&video, videoID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		duration = EffectiveDuration(duration, video.Duration)

		var progress model.VideoProgress
		err := tx.Where("user_id = ? AND video_id = ?", userID, videoID).First(&progress).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			progress = model.VideoProgress{UserID: userID, VideoID: videoID}
			if err := tx.Create(&progress).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		progress.WatchedTime, progress.IsCompleted = applyReport(
			progress.WatchedTime, progress.IsCompleted, watchedTime, duration)

		if err := tx.Save(&progress).Error; err != nil {
			return err
		}

		result = ProgressResult{
			Percent:     ProgressPercent(progress.WatchedTime, duration),
			WatchedTime: progress.WatchedTime,
			IsCompleted: progress.IsCompleted,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// GetProgress returns the stored progress for (userID, videoID), or nil
// when the user has not watched the video yet
func (s *ProgressService) GetProgress(ctx context.Context, userID, videoID uint) (*model.VideoProgress, error) {
	var progress model.VideoProgress
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND video_id = ?", userID, videoID).
		First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// applyReport merges one progress report into the stored state. Negative
// reported time is clamped to zero, watched time only ever grows, and the
// completed flag latches once watched time reaches the completion
// threshold of the duration.
func applyReport(storedWatched float64, completed bool, reported, duration float64) (float64, bool) {
	if reported < 0 {
		reported = 0
	}
	if reported > storedWatched {
		storedWatched = reported
	}
	if storedWatched >= duration*completionThreshold {
		completed = true
	}
	return storedWatched, completed
}

// EffectiveDuration picks the duration used for percent and completion
// math: the reported one when positive, else the stored one, else 1 so
// the division below can never blow up.
func EffectiveDuration(reported float64, stored uint) float64 {
	if reported > 0 {
		return reported
	}
	if stored > 0 {
		return float64(stored)
	}
	return 1
}

// ProgressPercent converts watched/duration into a whole percent clamped
// to [0, 100]. The value is floored, not rounded; 99.9% watched shows 99.
func ProgressPercent(watched, duration float64) int {
	if duration <= 0 {
		return 0
	}
	percent := int(watched / duration * 100)
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return percent
}
