package scheduler

import (
	"context"

	syncmod "github.com/andrasnemes/ledgerd/internal/modules/sync"
	"github.com/andrasnemes/ledgerd/internal/reliability"
)

// ReconcileJob triggers a periodic reconciliation pass while online.
// Offline or in-flight passes make the trigger a no-op, so the schedule can
// fire unconditionally.
type ReconcileJob struct {
	monitor *syncmod.Monitor
}

// NewReconcileJob creates the periodic reconciliation job
func NewReconcileJob(monitor *syncmod.Monitor) *ReconcileJob {
	return &ReconcileJob{monitor: monitor}
}

// Name returns the job name
func (j *ReconcileJob) Name() string {
	return "reconcile"
}

// Run triggers one reconciliation pass
func (j *ReconcileJob) Run() error {
	j.monitor.TriggerSync(context.Background())
	return nil
}

// BackupJob uploads the persisted snapshot to the backup bucket and rotates
// old copies.
type BackupJob struct {
	backups       *reliability.BackupService
	retentionDays int
}

// NewBackupJob creates the daily backup job
func NewBackupJob(backups *reliability.BackupService, retentionDays int) *BackupJob {
	return &BackupJob{backups: backups, retentionDays: retentionDays}
}

// Name returns the job name
func (j *BackupJob) Name() string {
	return "snapshot_backup"
}

// Run uploads the snapshot and rotates old backups
func (j *BackupJob) Run() error {
	ctx := context.Background()
	if err := j.backups.UploadSnapshot(ctx); err != nil {
		return err
	}
	return j.backups.RotateOldBackups(ctx, j.retentionDays)
}
