package database

import (
	"log"
)

// EnsureConstraints applies CHECK constraints that GORM struct tags cannot
// declare. Each block is guarded so reruns are no-ops.
func (s *GORMStore) EnsureConstraints() error {
	log.Println("Applying database CHECK constraints...")

	query := `
		DO $$
		BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_module_items_indent') THEN
				ALTER TABLE module_items
					ADD CONSTRAINT chk_module_items_indent CHECK (indent >= 0 AND indent <= 5);
			END IF;
		END $$;

		DO $$
		BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_video_progress_watched_time') THEN
				ALTER TABLE video_progress
					ADD CONSTRAINT chk_video_progress_watched_time CHECK (watched_time >= 0);
			END IF;
		END $$;

		DO $$
		BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_quizzes_allowed_attempts') THEN
				ALTER TABLE quizzes
					ADD CONSTRAINT chk_quizzes_allowed_attempts CHECK (allowed_attempts >= -1);
			END IF;
		END $$;

		DO $$
		BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_submissions_attempt') THEN
				ALTER TABLE submissions
					ADD CONSTRAINT chk_submissions_attempt CHECK (attempt >= 1);
			END IF;
		END $$;
	`

	return s.db.Exec(query).Error
}
