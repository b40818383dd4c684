// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package esgf

import "github.com/esgf/globus-transfer-service/internal/domain/model"

// SearchResponse is the application/solr+json envelope of the search API.
// Pointers tell a missing envelope apart from an empty result.
type SearchResponse struct {
	Response *SearchResult `json:"response"`
}

// SearchResult holds the documents of one search page
type SearchResult struct {
	NumFound int                           `json:"numFound"`
	Start    int                           `json:"start"`
	Docs     *[]model.SearchResultDocument `json:"docs"`
}
