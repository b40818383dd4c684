// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/esgf/globus-transfer-service/internal/domain/model"
	"github.com/esgf/globus-transfer-service/internal/infrastructure/mock"
	pkgerrors "github.com/esgf/globus-transfer-service/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferHistoryListTransfers(t *testing.T) {
	recorder := mock.NewMockTransferRecorder()
	ctx := context.Background()
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, recorder.Record(ctx, model.TransferRecord{Principal: "user-1", TaskIDs: []string{"t1"}, CreatedAt: created}))
	require.NoError(t, recorder.Record(ctx, model.TransferRecord{Principal: "user-2", TaskIDs: []string{"t2"}, CreatedAt: created}))
	require.NoError(t, recorder.Record(ctx, model.TransferRecord{Principal: "user-1", TaskIDs: []string{"t3"}, CreatedAt: created.Add(time.Hour)}))

	history := NewTransferHistory(recorder)

	result, err := history.ListTransfers(principalContext(testPrincipal), model.HistoryCriteria{})
	require.NoError(t, err)

	require.Len(t, result.Records, 2)
	assert.Equal(t, []string{"t3"}, result.Records[0].TaskIDs)
	assert.Equal(t, []string{"t1"}, result.Records[1].TaskIDs)
}

func TestTransferHistoryErrors(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		_, err := NewTransferHistory(nil).ListTransfers(principalContext(testPrincipal), model.HistoryCriteria{})

		var unavailable pkgerrors.ServiceUnavailable
		assert.True(t, errors.As(err, &unavailable))
	})

	t.Run("missing principal", func(t *testing.T) {
		_, err := NewTransferHistory(mock.NewMockTransferRecorder()).ListTransfers(context.Background(), model.HistoryCriteria{})

		var unauthorized pkgerrors.Unauthorized
		assert.True(t, errors.As(err, &unauthorized))
	})
}
