// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/esgf/globus-transfer-service/internal/domain/model"
	"github.com/esgf/globus-transfer-service/internal/domain/port"
	"github.com/esgf/globus-transfer-service/pkg/constants"
	pkgerrors "github.com/esgf/globus-transfer-service/pkg/errors"
)

const (
	paramType    = "type"
	paramFormat  = "format"
	paramLimit   = "limit"
	paramOffset  = "offset"
	paramDistrib = "distrib"

	fileRecordType = "File"
	solrJSONFormat = "application/solr+json"
)

// datasetIDPattern is <facet1>.<facet2>...<facetn>.v<version>|<data_node>
var datasetIDPattern = regexp.MustCompile(`^[-\w]+(\.[-\w]+)*\.v\d{8}\|[-\w]+(\.[-\w]+)*$`)

// singleValueParams replace the defaults instead of being repeated
var singleValueParams = map[string]bool{
	paramLimit:   true,
	paramOffset:  true,
	paramDistrib: true,
}

// FileResolver turns search filters into transfer locations
type FileResolver struct {
	searchBackend port.SearchBackend
	remapping     model.EndpointRemapping
	pattern       model.URLPattern
}

// BuildSearchParams builds the file search query for already normalized
// filters. Invalid dataset ids are reported before any request is made.
func BuildSearchParams(filters map[string][]string) (url.Values, error) {
	params := url.Values{}
	params.Set(paramType, fileRecordType)
	params.Set(paramFormat, solrJSONFormat)
	params.Set(paramLimit, strconv.Itoa(constants.FileSearchLimit))
	params.Set(paramOffset, "0")

	if len(filters) == 0 {
		// single file preview
		params.Set(paramLimit, strconv.Itoa(constants.PreviewSearchLimit))
		params.Set(paramDistrib, "false")
		return params, nil
	}

	for name, values := range filters {
		switch {
		case len(values) == 0, name == paramType, name == paramFormat:
			continue
		case singleValueParams[name]:
			params.Set(name, values[len(values)-1])
		case name == constants.DatasetIDField:
			for _, value := range values {
				if !datasetIDPattern.MatchString(value) {
					return nil, pkgerrors.NewValidation("the dataset_id, " + value +
						", does not follow the format of <facet1>.<facet2>...<facetn>.v<version>|<data_node>")
				}
			}
			params.Set(name, strings.Join(values, ","))
		default:
			// negative constraints such as "project!" pass through untouched
			for _, value := range values {
				params.Add(name, value)
			}
		}
	}

	return params, nil
}

// Resolve returns a lazy sequence of file locations. The search request is
// issued when the sequence is ranged over, and again on every new range.
// The first error ends the sequence.
func (r *FileResolver) Resolve(ctx context.Context, params url.Values) iter.Seq2[model.FileLocation, error] {
	return func(yield func(model.FileLocation, error) bool) {

		slog.DebugContext(ctx, "searching files to transfer",
			"params", params.Encode(),
		)

		docs, err := r.searchBackend.SearchFiles(ctx, params)
		if err != nil {
			var backendErr pkgerrors.SearchBackend
			if !errors.As(err, &backendErr) {
				err = pkgerrors.NewSearchBackend("file search failed", err)
			}
			yield(model.FileLocation{}, err)
			return
		}

		slog.DebugContext(ctx, "file search completed",
			"documents", len(docs),
		)

		for _, doc := range docs {
			location, ok := r.locate(doc)
			if !ok {
				slog.ErrorContext(ctx, "search document has no transfer url",
					"data_node", doc.DataNode,
					"urls", doc.URLs,
				)
				yield(model.FileLocation{}, pkgerrors.NewResolution(doc.URLs))
				return
			}
			if !yield(location, nil) {
				return
			}
		}
	}
}

// locate picks the first url matching the transfer pattern and remaps its endpoint
func (r *FileResolver) locate(doc model.SearchResultDocument) (model.FileLocation, bool) {
	for _, raw := range doc.URLs {
		location, ok := r.pattern.Match(raw)
		if !ok {
			continue
		}
		location.SourceEndpointID = r.remapping.Apply(doc.DataNode, location.SourceEndpointID)
		return location, true
	}
	return model.FileLocation{}, false
}

// IsReady checks if the search backend is ready
func (r *FileResolver) IsReady(ctx context.Context) error {
	return r.searchBackend.IsReady(ctx)
}

// NewFileResolver creates a new FileResolver instance
func NewFileResolver(searchBackend port.SearchBackend, remapping model.EndpointRemapping, pattern model.URLPattern) *FileResolver {
	return &FileResolver{
		searchBackend: searchBackend,
		remapping:     remapping,
		pattern:       pattern,
	}
}
