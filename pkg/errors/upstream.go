// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package errors

import (
	"errors"
	"strings"
)

// SearchBackend is returned when the metadata search backend could not be
// reached or answered with something that is not a search result envelope.
type SearchBackend struct {
	base
}

// Error returns the error message for SearchBackend.
func (s SearchBackend) Error() string {
	return s.error()
}

// NewSearchBackend creates a new SearchBackend error with the provided message.
func NewSearchBackend(message string, err ...error) SearchBackend {
	return SearchBackend{
		base: base{
			message: message,
			err:     errors.Join(err...),
		},
	}
}

// Resolution is returned when a search document carries no transfer capable
// URL variant. URLs holds the raw url list of the offending document.
type Resolution struct {
	base
	URLs []string
}

// Error returns the error message for Resolution.
func (r Resolution) Error() string {
	return r.error()
}

// NewResolution creates a new Resolution error naming the raw url values.
func NewResolution(urls []string) Resolution {
	return Resolution{
		base: base{
			message: "no transfer url found in [" + strings.Join(urls, ", ") + "]",
		},
		URLs: urls,
	}
}

// TaskSubmission is returned when the transfer backend refused one
// per-endpoint transfer task.
type TaskSubmission struct {
	base
	SourceEndpointID string
}

// Error returns the error message for TaskSubmission.
func (t TaskSubmission) Error() string {
	return t.error()
}

// NewTaskSubmission creates a new TaskSubmission error for the given source endpoint.
func NewTaskSubmission(sourceEndpointID, message string, err ...error) TaskSubmission {
	return TaskSubmission{
		base: base{
			message: message,
			err:     errors.Join(err...),
		},
		SourceEndpointID: sourceEndpointID,
	}
}
