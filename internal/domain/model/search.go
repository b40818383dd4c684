// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package model

import "strings"

// SearchResultDocument is one file record returned by the metadata search API.
type SearchResultDocument struct {
	// DataNode is the hosting institution/server of the file
	DataNode string `json:"data_node"`
	// URLs are the raw pipe delimited url variants of the file
	URLs []string `json:"url"`
}

// FileLocation is a search result resolved for the transfer protocol.
// Both fields are always set.
type FileLocation struct {
	SourceEndpointID string
	SourcePath       string
}

// EndpointRemapping holds the static tables used to correct stale or renamed
// endpoint identifiers. It is loaded once at start and never mutated.
type EndpointRemapping struct {
	// DataNodes maps a data node name to an endpoint id
	DataNodes map[string]string `yaml:"data_nodes"`
	// Endpoints maps an endpoint id to its replacement
	Endpoints map[string]string `yaml:"endpoints"`
}

// Apply runs the data node table then the endpoint table on endpointID.
func (r EndpointRemapping) Apply(dataNode, endpointID string) string {
	if remapped, ok := r.DataNodes[dataNode]; ok {
		endpointID = remapped
	}
	if remapped, ok := r.Endpoints[endpointID]; ok {
		endpointID = remapped
	}
	return endpointID
}

// URLPattern describes the url variant that carries a transfer location:
// <Scheme>:<endpoint-id><path> followed by Arity pipe separated Marker values.
type URLPattern struct {
	Scheme string
	Marker string
	Arity  int
}

// DefaultURLPattern matches "globus:<endpoint-id><path>|Globus|Globus".
var DefaultURLPattern = URLPattern{Scheme: "globus", Marker: "Globus", Arity: 2}

// Match returns the location encoded in raw when it follows the pattern.
func (p URLPattern) Match(raw string) (FileLocation, bool) {
	parts := strings.Split(raw, "|")
	arity := max(p.Arity, 1)
	if len(parts) < 1+arity {
		return FileLocation{}, false
	}
	for _, marker := range parts[1 : 1+arity] {
		if marker != p.Marker {
			return FileLocation{}, false
		}
	}

	scheme, location, found := strings.Cut(parts[0], ":")
	if !found || !strings.EqualFold(scheme, p.Scheme) {
		return FileLocation{}, false
	}

	endpointID, path, found := strings.Cut(location, "/")
	if !found || endpointID == "" || path == "" {
		return FileLocation{}, false
	}

	return FileLocation{
		SourceEndpointID: endpointID,
		SourcePath:       "/" + path,
	}, true
}
