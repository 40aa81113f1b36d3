package service_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/anecdotario/photo-services/constants"
	"github.com/anecdotario/photo-services/models/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSucceeded(t *testing.T) {
	report := &service.RefreshReport{PhotoID: "photo_1"}
	result := service.Succeeded(constants.OpRefresh, report)
	assert.True(t, result.Success)
	assert.Equal(t, report, result.Data)
	assert.Nil(t, result.Error)
	assert.Equal(t, constants.OpRefresh, result.Metadata.Operation)
	assert.False(t, result.Metadata.Timestamp.IsZero())
}

func TestFailed(t *testing.T) {
	err := service.NewValidationError("image", "No image data provided")
	result := service.Failed(constants.OpUpload, err)
	assert.False(t, result.Success)
	assert.Nil(t, result.Data)
	require.NotNil(t, result.Error)
	assert.Equal(t, constants.ErrValidation, result.Error.Code)
	assert.Equal(t, "No image data provided", result.Error.Message)
	assert.Equal(t, "No image data provided (field: image)", result.Error.Detail)
	assert.Equal(t, constants.OpUpload, result.Metadata.Operation)
}

func TestFailedWithUntypedError(t *testing.T) {
	result := service.Failed(constants.OpDelete, fmt.Errorf("boom"))
	require.NotNil(t, result.Error)
	assert.Equal(t, constants.ErrStorage, result.Error.Code)
	assert.Equal(t, "boom", result.Error.Message)
	assert.Equal(t, "", result.Error.Detail)
}

func TestOperationResultJSON(t *testing.T) {
	result := service.Failed(constants.OpUpload, service.NewNotFoundError("record", "Photo not found"))
	data, err := json.Marshal(result)
	require.Nil(t, err)
	jsonStr := string(data)
	assert.Contains(t, jsonStr, `"success":false`)
	assert.Contains(t, jsonStr, `"code":"NOT_FOUND"`)
	assert.Contains(t, jsonStr, `"operation":"photo_upload"`)
	// Success envelopes omit the error key entirely.
	ok, err := json.Marshal(service.Succeeded(constants.OpUpload, "x"))
	require.Nil(t, err)
	assert.NotContains(t, string(ok), `"error"`)
}

func TestProcessingError(t *testing.T) {
	procErr := service.NewProcessingError("object_delete", "user/alice/profile/x.jpg", "access denied", false)
	assert.Equal(t, "object_delete", procErr.Operation)
	assert.False(t, procErr.IsFatal)
	assert.Contains(t, procErr.Error(), "(operation: object_delete)")
	assert.Contains(t, procErr.Error(), "(severity: non-fatal)")
	assert.Contains(t, procErr.Source, "operation_result_test.go")

	fatal := service.NewProcessingError("record_delete", "photo_1", "corrupt record", true)
	assert.Contains(t, fatal.Error(), "(severity: fatal)")
}
