// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"net/http"

	"github.com/esgf/globus-transfer-service/internal/domain/model"
	"github.com/esgf/globus-transfer-service/pkg/errors"

	goahttp "goa.design/goa/v3/http"
	goa "goa.design/goa/v3/pkg"
)

// MountPoint holds information about the mounted endpoints.
type MountPoint struct {
	// Method is the name of the service method served by the mounted HTTP handler.
	Method string
	// Verb is the HTTP method used to match requests to the mounted handler.
	Verb string
	// Pattern is the HTTP request path pattern used to match requests to the
	// mounted handler.
	Pattern string
}

// Mount configures the mux to serve the transfer service endpoints and
// returns what was mounted.
func Mount(
	mux goahttp.Muxer,
	e *Endpoints,
	decoder func(*http.Request) goahttp.Decoder,
	encoder func(context.Context, http.ResponseWriter) goahttp.Encoder,
	errhandler func(context.Context, http.ResponseWriter, error),
) []MountPoint {
	mounts := []MountPoint{
		{"transfer", "POST", "/globus/transfer"},
		{"list-transfers", "GET", "/globus/transfers"},
		{"readyz", "GET", "/readyz"},
		{"livez", "GET", "/livez"},
	}

	mux.Handle("POST", "/globus/transfer", transferHandler(e.Transfer, decoder, encoder, errhandler))
	mux.Handle("GET", "/globus/transfers", listTransfersHandler(e.ListTransfers, encoder, errhandler))
	mux.Handle("GET", "/readyz", probeHandler(e.Readyz, encoder, errhandler))
	mux.Handle("GET", "/livez", probeHandler(e.Livez, encoder, errhandler))

	return mounts
}

func transferHandler(
	endpoint goa.Endpoint,
	decoder func(*http.Request) goahttp.Decoder,
	encoder func(context.Context, http.ResponseWriter) goahttp.Encoder,
	errhandler func(context.Context, http.ResponseWriter, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var body map[string]any
		if err := decoder(r).Decode(&body); err != nil || body == nil {
			encodeError(ctx, w, encoder, errhandler, wrapError(ctx, errors.NewValidation("request body must be a JSON object", err)))
			return
		}

		res, err := endpoint(ctx, &TransferPayload{
			BearerToken: bearerToken(r),
			Body:        body,
		})
		if err != nil {
			httpErr := wrapError(ctx, err)
			if httpErr.Status == http.StatusBadRequest || httpErr.Status == http.StatusUnauthorized {
				encodeError(ctx, w, encoder, errhandler, httpErr)
				return
			}
			res = errorToOutcome(httpErr)
		}

		outcome := res.(*model.SubmissionOutcome)
		enc := encoder(ctx, w)
		w.WriteHeader(outcome.HTTPStatus)
		if err := enc.Encode(outcome); err != nil {
			errhandler(ctx, w, err)
		}
	}
}

func listTransfersHandler(
	endpoint goa.Endpoint,
	encoder func(context.Context, http.ResponseWriter) goahttp.Encoder,
	errhandler func(context.Context, http.ResponseWriter, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		payload := &ListTransfersPayload{BearerToken: bearerToken(r)}
		if pageToken := r.URL.Query().Get("page_token"); pageToken != "" {
			payload.PageToken = &pageToken
		}

		res, err := endpoint(ctx, payload)
		if err != nil {
			encodeError(ctx, w, encoder, errhandler, wrapError(ctx, err))
			return
		}

		enc := encoder(ctx, w)
		w.WriteHeader(http.StatusOK)
		if err := enc.Encode(res.(*model.TransferHistory)); err != nil {
			errhandler(ctx, w, err)
		}
	}
}

func probeHandler(
	endpoint goa.Endpoint,
	encoder func(context.Context, http.ResponseWriter) goahttp.Encoder,
	errhandler func(context.Context, http.ResponseWriter, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		res, err := endpoint(ctx, nil)
		if err != nil {
			encodeError(ctx, w, encoder, errhandler, wrapError(ctx, err))
			return
		}

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(res.([]byte)); err != nil {
			errhandler(ctx, w, err)
		}
	}
}

func encodeError(
	ctx context.Context,
	w http.ResponseWriter,
	encoder func(context.Context, http.ResponseWriter) goahttp.Encoder,
	errhandler func(context.Context, http.ResponseWriter, error),
	httpErr *HTTPError,
) {
	enc := encoder(ctx, w)
	w.WriteHeader(httpErr.Status)
	if err := enc.Encode(httpErr); err != nil {
		errhandler(ctx, w, err)
	}
}
