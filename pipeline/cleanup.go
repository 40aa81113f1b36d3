package pipeline

import (
	"github.com/anecdotario/photo-services/constants"
	"github.com/anecdotario/photo-services/models/common"
	"github.com/anecdotario/photo-services/models/service"
)

// RetentionCleanup enforces "keep at most K newest active records"
// for one (entity_type, entity_id, photo_type) tuple. It removes the
// rendition objects and the metadata record of everything beyond K.
//
// Cleanup is best-effort by design: one record's failure never stops
// the rest, and the caller gets an itemized report instead of an
// error. Cleanup failures never roll back or fail the operation that
// triggered them.
type RetentionCleanup struct {
	Worker
	EntityType string
	EntityID   string
	PhotoType  string

	// Keep overrides the configured retention count when > 0.
	Keep int
}

func NewRetentionCleanup(context *common.Context, entityType, entityID, photoType string) *RetentionCleanup {
	return &RetentionCleanup{
		Worker:     Worker{Context: context},
		EntityType: entityType,
		EntityID:   entityID,
		PhotoType:  photoType,
	}
}

func (c *RetentionCleanup) keepCount() int {
	if c.Keep > 0 {
		return c.Keep
	}
	return c.Context.Config.RetentionCount
}

// Run queries matching records newest-first, keeps the first K active
// ones, and removes the rest. Soft-deleted records are left alone;
// whoever deactivated them decided they should stay.
func (c *RetentionCleanup) Run() *service.CleanupReport {
	report := service.NewCleanupReport(c.EntityType, c.EntityID, c.PhotoType)
	records, err := c.repo().PhotoQueryByEntity(c.EntityType, c.EntityID, c.PhotoType, 0, true)
	if err != nil {
		report.AddError(service.NewProcessingError(
			"record_query",
			c.EntityType+"/"+c.EntityID+"/"+c.PhotoType,
			err.Error(),
			false,
		))
		return report
	}

	active := make([]*service.PhotoRecord, 0, len(records))
	for _, record := range records {
		if record.IsActive {
			active = append(active, record)
		}
	}
	report.Found = len(active)

	keep := c.keepCount()
	for i, record := range active {
		if i < keep {
			report.Kept = append(report.Kept, record.PhotoID)
			continue
		}
		c.removeRecord(record, report)
	}
	if len(report.Removed) > 0 || report.HasErrors() {
		c.Context.Logger.Infof("Retention cleanup %s/%s/%s: found %d, removed %d, errors %d",
			c.EntityType, c.EntityID, c.PhotoType, report.Found, len(report.Removed), len(report.Errors))
	}
	return report
}

// removeRecord deletes one superseded photo: its objects first, then
// its metadata record. Object-delete errors don't block the record
// delete; leaving a record pointing at missing objects is worse than
// leaving orphaned objects a later pass can still find by prefix.
func (c *RetentionCleanup) removeRecord(record *service.PhotoRecord, report *service.CleanupReport) {
	result := c.store().BatchDelete(background(), record.ObjectKeys())
	report.DeletedObjects = append(report.DeletedObjects, result.Deleted...)
	for _, procErr := range result.Errors {
		report.AddError(procErr)
	}
	err := c.repo().PhotoDelete(record.PhotoID)
	if err != nil {
		report.AddError(service.NewProcessingError(
			"record_delete",
			record.PhotoID,
			err.Error(),
			false,
		))
		return
	}
	report.Removed = append(report.Removed, record.PhotoID)
}

// Cleanup runs retention cleanup as a standalone public operation and
// wraps the report in the standard envelope. The report itemizes
// failures; the envelope itself only fails on a malformed request.
func Cleanup(context *common.Context, entityType, entityID, photoType string) *service.OperationResult {
	if err := validateEntity(entityType, entityID, photoType); err != nil {
		return service.Failed(constants.OpCleanup, err)
	}
	report := NewRetentionCleanup(context, entityType, entityID, photoType).Run()
	return service.Succeeded(constants.OpCleanup, report)
}
