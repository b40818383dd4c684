// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package model

import "time"

// TransferRecord is the stored summary of one orchestration call that
// reached submission.
type TransferRecord struct {
	Principal      string    `json:"principal"`
	TargetEndpoint string    `json:"target_endpoint"`
	TargetPath     string    `json:"target_path"`
	TaskIDs        []string  `json:"task_ids"`
	Failures       []string  `json:"failures"`
	Status         int       `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// HistoryCriteria selects a page of transfer records
type HistoryCriteria struct {
	// Principal owning the records
	Principal string
	// Opaque token for pagination
	PageToken *string
	// SearchAfter is the decoded page token
	SearchAfter *string
	// PageSize for pagination
	PageSize int
}

// TransferHistory is one page of transfer records, newest first
type TransferHistory struct {
	Records []TransferRecord `json:"records"`
	// Opaque token if more records are available
	PageToken *string `json:"page_token,omitempty"`
}
