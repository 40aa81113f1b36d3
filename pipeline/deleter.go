package pipeline

import (
	"github.com/anecdotario/photo-services/constants"
	"github.com/anecdotario/photo-services/models/common"
	"github.com/anecdotario/photo-services/models/service"
	"github.com/anecdotario/photo-services/util"
)

// DeleteRequest selects what to delete: a single photo by id, or
// every photo for an entity. In bulk mode an empty PhotoType means
// all photo types.
type DeleteRequest struct {
	PhotoID    string
	EntityType string
	EntityID   string
	PhotoType  string
}

// Deleter removes photos from both stores: rendition objects from the
// bucket, records from the repository. Bulk deletes accumulate
// per-item errors instead of aborting, so the report always says
// which objects remain.
type Deleter struct {
	Worker
	Request DeleteRequest
}

func NewDeleter(context *common.Context, request DeleteRequest) *Deleter {
	return &Deleter{
		Worker:  Worker{Context: context},
		Request: request,
	}
}

// Run performs the deletion. Zero matching photos returns a
// NotFoundError rather than an empty report, so callers can tell
// "nothing existed" from "deleted everything that existed".
func (d *Deleter) Run() (*service.DeletionReport, error) {
	if d.Request.PhotoID != "" {
		return d.deleteSingle()
	}
	if err := validateEntity(d.Request.EntityType, d.Request.EntityID, d.Request.PhotoType); err != nil {
		return nil, err
	}
	return d.deleteByEntity()
}

func (d *Deleter) deleteSingle() (*service.DeletionReport, error) {
	record, err := d.repo().PhotoGet(d.Request.PhotoID)
	if err != nil {
		if service.IsNotFound(err) {
			return nil, err
		}
		return nil, service.NewStorageError("record_get", d.Request.PhotoID,
			"Failed to look up photo", err)
	}
	report := service.NewDeletionReport()
	report.Found = 1
	d.deleteRecord(record, report)
	d.Context.Logger.Infof("Deleted photo %s (%d objects, %d errors)",
		record.PhotoID, len(report.DeletedObjects), len(report.Errors))
	return report, nil
}

// deleteByEntity enumerates matching records and removes them. If the
// metadata repository is unreachable, it falls back to listing the
// object store by key prefix so the objects can still be cleaned up,
// leaving any unreachable records for a later pass.
func (d *Deleter) deleteByEntity() (*service.DeletionReport, error) {
	req := d.Request
	records, err := d.repo().PhotoQueryByEntity(req.EntityType, req.EntityID, req.PhotoType, 0, true)
	if err != nil {
		return d.deleteByPrefix()
	}
	if len(records) == 0 {
		return nil, service.NewNotFoundError("record", "No photos found for %s/%s/%s",
			req.EntityType, req.EntityID, req.PhotoType)
	}

	report := service.NewDeletionReport()
	report.Found = len(records)

	// One batched object delete across all records, then the records
	// themselves.
	allKeys := make([]string, 0)
	for _, record := range records {
		allKeys = append(allKeys, record.ObjectKeys()...)
	}
	result := d.store().BatchDelete(background(), allKeys)
	report.DeletedObjects = append(report.DeletedObjects, result.Deleted...)
	for _, procErr := range result.Errors {
		report.AddError(procErr)
	}
	for _, record := range records {
		err = d.repo().PhotoDelete(record.PhotoID)
		if err != nil {
			report.AddError(service.NewProcessingError(
				"record_delete",
				record.PhotoID,
				err.Error(),
				false,
			))
			continue
		}
		report.Deleted++
		d.publishEvent("photo_deleted", record)
	}
	d.Context.Logger.Infof("Deleted %d of %d photos for %s/%s/%s",
		report.Deleted, report.Found, req.EntityType, req.EntityID, req.PhotoType)
	return report, nil
}

func (d *Deleter) deleteByPrefix() (*service.DeletionReport, error) {
	req := d.Request
	prefix := util.EntityPrefix(req.EntityType, req.EntityID, req.PhotoType)
	d.Context.Logger.Warningf("Metadata unavailable, deleting %s by object prefix", prefix)
	keys, err := d.store().ListByPrefix(background(), prefix)
	if err != nil {
		return nil, service.NewStorageError("list", prefix, "Failed to list objects", err)
	}
	if len(keys) == 0 {
		return nil, service.NewNotFoundError("object", "No photos found under prefix %s", prefix)
	}
	report := service.NewDeletionReport()
	report.ByPrefix = true
	report.Found = len(keys)
	result := d.store().BatchDelete(background(), keys)
	report.DeletedObjects = append(report.DeletedObjects, result.Deleted...)
	report.Deleted = len(result.Deleted)
	for _, procErr := range result.Errors {
		report.AddError(procErr)
	}
	return report, nil
}

// deleteRecord removes one photo's objects, then its record. Object
// errors are itemized but don't block the record delete.
func (d *Deleter) deleteRecord(record *service.PhotoRecord, report *service.DeletionReport) {
	result := d.store().BatchDelete(background(), record.ObjectKeys())
	report.DeletedObjects = append(report.DeletedObjects, result.Deleted...)
	for _, procErr := range result.Errors {
		report.AddError(procErr)
	}
	err := d.repo().PhotoDelete(record.PhotoID)
	if err != nil {
		report.AddError(service.NewProcessingError(
			"record_delete",
			record.PhotoID,
			err.Error(),
			false,
		))
		return
	}
	report.Deleted++
	d.publishEvent("photo_deleted", record)
}

// Delete is the public delete operation, wrapping a Deleter run in
// the standard envelope.
func Delete(context *common.Context, request DeleteRequest) *service.OperationResult {
	report, err := NewDeleter(context, request).Run()
	if err != nil {
		return service.Failed(constants.OpDelete, err)
	}
	return service.Succeeded(constants.OpDelete, report)
}
