// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"iter"
	"net/http"
	"testing"
	"time"

	"github.com/esgf/globus-transfer-service/internal/domain/model"
	"github.com/esgf/globus-transfer-service/internal/infrastructure/mock"
	pkgerrors "github.com/esgf/globus-transfer-service/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func locationsOf(locations ...model.FileLocation) iter.Seq2[model.FileLocation, error] {
	return func(yield func(model.FileLocation, error) bool) {
		for _, location := range locations {
			if !yield(location, nil) {
				return
			}
		}
	}
}

var twoEndpointLocations = []model.FileLocation{
	{SourceEndpointID: "endpoint-a", SourcePath: "/data/a/1.nc"},
	{SourceEndpointID: "endpoint-b", SourcePath: "/data/b/1.nc"},
	{SourceEndpointID: "endpoint-a", SourcePath: "/data/a/2.nc"},
	{SourceEndpointID: "endpoint-b", SourcePath: "/data/b/2.nc"},
	{SourceEndpointID: "endpoint-a", SourcePath: "/data/a/3.nc"},
}

func TestTransferSubmitterGroupsBySourceEndpoint(t *testing.T) {
	backend := mock.NewMockTransferBackend()
	submitter := NewTransferSubmitter(backend, nil)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	submitter.now = func() time.Time { return fixed }

	outcome, err := submitter.Submit(
		context.Background(),
		locationsOf(twoEndpointLocations...),
		model.TransferCredential{AccessToken: "access"},
		"ddb59aef-6d04-11e5-ba46-22000b92c6ec",
		"/~/esgf",
	)
	require.NoError(t, err)

	tasks := backend.Submitted()
	require.Len(t, tasks, 2)

	assert.Equal(t, "endpoint-a", tasks[0].SourceEndpointID)
	assert.Equal(t, []model.TransferItem{
		{SourcePath: "/data/a/1.nc", DestinationPath: "/~/esgf/1.nc"},
		{SourcePath: "/data/a/2.nc", DestinationPath: "/~/esgf/2.nc"},
		{SourcePath: "/data/a/3.nc", DestinationPath: "/~/esgf/3.nc"},
	}, tasks[0].Items)

	assert.Equal(t, "endpoint-b", tasks[1].SourceEndpointID)
	assert.Equal(t, []model.TransferItem{
		{SourcePath: "/data/b/1.nc", DestinationPath: "/~/esgf/1.nc"},
		{SourcePath: "/data/b/2.nc", DestinationPath: "/~/esgf/2.nc"},
	}, tasks[1].Items)

	for _, task := range tasks {
		assert.Equal(t, "ddb59aef-6d04-11e5-ba46-22000b92c6ec", task.DestinationEndpointID)
		assert.Equal(t, fixed.Add(10*24*time.Hour), task.Deadline)
		assert.NotEmpty(t, task.Label)
	}

	assert.Equal(t, http.StatusOK, outcome.HTTPStatus)
	assert.Len(t, outcome.Successes, 2)
	assert.Empty(t, outcome.Failures)
}

func TestTransferSubmitterPartialFailure(t *testing.T) {
	backend := mock.NewMockTransferBackend()
	backend.FailingSources["endpoint-a"] = errors.New("endpoint-a is not reachable")
	submitter := NewTransferSubmitter(backend, nil)

	outcome, err := submitter.Submit(
		context.Background(),
		locationsOf(twoEndpointLocations...),
		model.TransferCredential{AccessToken: "access"},
		"target",
		"/~/",
	)
	require.NoError(t, err)

	// the failure of the first task does not stop the second one
	assert.Len(t, backend.Submitted(), 2)
	assert.Equal(t, http.StatusMultiStatus, outcome.HTTPStatus)
	require.Len(t, outcome.Failures, 1)
	require.Len(t, outcome.Successes, 1)
	assert.Contains(t, outcome.Failures[0], "endpoint-a: ")
	assert.Contains(t, outcome.Failures[0], "endpoint-a is not reachable")
	assert.Equal(t, "endpoint-b", outcome.Successes[0].SourceEndpointID)
}

func TestTransferSubmitterTargetEndpointDecoding(t *testing.T) {
	backend := mock.NewMockTransferBackend()
	submitter := NewTransferSubmitter(backend, nil)

	_, err := submitter.Submit(
		context.Background(),
		locationsOf(model.FileLocation{SourceEndpointID: "a", SourcePath: "/x/1.nc"}),
		model.TransferCredential{AccessToken: "access"},
		"esgf%23my-laptop",
		"/data",
	)
	require.NoError(t, err)

	require.Len(t, backend.Submitted(), 1)
	assert.Equal(t, "esgf#my-laptop", backend.Submitted()[0].DestinationEndpointID)
}

func TestTransferSubmitterResolutionError(t *testing.T) {
	backend := mock.NewMockTransferBackend()
	submitter := NewTransferSubmitter(backend, nil)

	failing := func(yield func(model.FileLocation, error) bool) {
		if !yield(model.FileLocation{SourceEndpointID: "a", SourcePath: "/x/1.nc"}, nil) {
			return
		}
		yield(model.FileLocation{}, pkgerrors.NewResolution([]string{"http://x/1.nc|application/netcdf|HTTPServer"}))
	}

	outcome, err := submitter.Submit(context.Background(), failing, model.TransferCredential{AccessToken: "access"}, "target", "/data")

	assert.Nil(t, outcome)
	var resolution pkgerrors.Resolution
	assert.True(t, errors.As(err, &resolution))
	assert.Empty(t, backend.Submitted())
}

func TestTransferSubmitterNoLocations(t *testing.T) {
	backend := mock.NewMockTransferBackend()
	submitter := NewTransferSubmitter(backend, nil)

	outcome, err := submitter.Submit(context.Background(), locationsOf(), model.TransferCredential{AccessToken: "access"}, "target", "/data")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, outcome.HTTPStatus)
	assert.Empty(t, outcome.Successes)
	assert.Empty(t, backend.Submitted())
}
