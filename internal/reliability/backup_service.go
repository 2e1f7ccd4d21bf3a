package reliability

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/andrasnemes/ledgerd/internal/modules/ledger"
)

const backupPrefix = "ledgerd-snapshot-"

// BackupService uploads ledger snapshots to an S3-compatible bucket and
// rotates old copies. The payload is the persisted snapshot blob as-is, so a
// restore is a single object download.
type BackupService struct {
	s3Client  *S3Client
	snapshots *ledger.SnapshotRepository
	log       zerolog.Logger
}

// BackupInfo describes a snapshot backup stored in the bucket
type BackupInfo struct {
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
	AgeHours  int64     `json:"age_hours"`
}

// NewBackupService creates a new backup service
func NewBackupService(s3Client *S3Client, snapshots *ledger.SnapshotRepository, log zerolog.Logger) *BackupService {
	return &BackupService{
		s3Client:  s3Client,
		snapshots: snapshots,
		log:       log.With().Str("service", "backup").Logger(),
	}
}

// UploadSnapshot uploads the current persisted snapshot to the bucket
func (s *BackupService) UploadSnapshot(ctx context.Context) error {
	startTime := time.Now()

	payload, err := s.snapshots.Payload(ledger.RecordsSlot)
	if err != nil {
		return fmt.Errorf("failed to read snapshot payload: %w", err)
	}
	if len(payload) == 0 {
		s.log.Info().Msg("No snapshot to back up yet")
		return nil
	}

	key := fmt.Sprintf("%s%s.msgpack", backupPrefix, time.Now().UTC().Format("2006-01-02-150405"))
	if err := s.s3Client.Upload(ctx, key, bytes.NewReader(payload)); err != nil {
		return fmt.Errorf("failed to upload snapshot backup: %w", err)
	}

	s.log.Info().
		Str("key", key).
		Int("size_bytes", len(payload)).
		Dur("duration_ms", time.Since(startTime)).
		Msg("Snapshot backup completed")

	return nil
}

// ListBackups lists snapshot backups stored in the bucket, newest first
func (s *BackupService) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	objects, err := s.s3Client.List(ctx, backupPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	backups := make([]BackupInfo, 0, len(objects))
	now := time.Now()

	for _, obj := range objects {
		if obj.Key == nil {
			continue
		}

		key := *obj.Key
		timestampStr := strings.TrimPrefix(key, backupPrefix)
		timestampStr = strings.TrimSuffix(timestampStr, ".msgpack")

		timestamp, err := time.Parse("2006-01-02-150405", timestampStr)
		if err != nil {
			s.log.Warn().Str("key", key).Msg("Failed to parse timestamp from backup key")
			continue
		}

		var sizeBytes int64
		if obj.Size != nil {
			sizeBytes = *obj.Size
		}

		backups = append(backups, BackupInfo{
			Key:       key,
			Timestamp: timestamp,
			SizeBytes: sizeBytes,
			AgeHours:  int64(now.Sub(timestamp).Hours()),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})

	return backups, nil
}

// RotateOldBackups deletes backups older than the retention period.
// Keeps a minimum of 3 backups regardless of age; retentionDays 0 keeps all.
func (s *BackupService) RotateOldBackups(ctx context.Context, retentionDays int) error {
	backups, err := s.ListBackups(ctx)
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	const minBackupsToKeep = 3
	if len(backups) <= minBackupsToKeep || retentionDays <= 0 {
		return nil
	}

	cutoffTime := time.Now().AddDate(0, 0, -retentionDays)
	deletedCount := 0

	for i, backup := range backups {
		if i < minBackupsToKeep {
			continue
		}
		if backup.Timestamp.Before(cutoffTime) {
			if err := s.s3Client.Delete(ctx, backup.Key); err != nil {
				s.log.Error().Err(err).Str("key", backup.Key).Msg("Failed to delete old backup")
				continue
			}
			deletedCount++
		}
	}

	if deletedCount > 0 {
		s.log.Info().
			Int("deleted", deletedCount).
			Int("remaining", len(backups)-deletedCount).
			Msg("Backup rotation completed")
	}

	return nil
}
