// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

const (

	// DefaultPageSize is the default number of results per page for history queries
	DefaultPageSize = 50

	// FileSearchLimit is the page size requested from the search backend when
	// resolving files for a transfer
	FileSearchLimit = 10000

	// PreviewSearchLimit is the page size used when the caller supplied no filter
	PreviewSearchLimit = 1

	// DatasetIDField is the facet whose values are sent as one comma joined value
	DatasetIDField = "dataset_id"

	// NonceSize is the secretbox nonce length used by sealed tokens
	NonceSize = 24
)
