// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"

	goa "goa.design/goa/v3/pkg"
)

// Endpoints wraps the transfer service methods
type Endpoints struct {
	Transfer      goa.Endpoint
	ListTransfers goa.Endpoint
	Readyz        goa.Endpoint
	Livez         goa.Endpoint
}

// NewEndpoints wraps the methods of s in endpoints; the authenticated ones
// run JWTAuth first.
func NewEndpoints(s Service) *Endpoints {
	return &Endpoints{
		Transfer:      NewTransferEndpoint(s),
		ListTransfers: NewListTransfersEndpoint(s),
		Readyz:        NewReadyzEndpoint(s),
		Livez:         NewLivezEndpoint(s),
	}
}

// Use applies the given middleware to all the endpoints.
func (e *Endpoints) Use(m func(goa.Endpoint) goa.Endpoint) {
	e.Transfer = m(e.Transfer)
	e.ListTransfers = m(e.ListTransfers)
	e.Readyz = m(e.Readyz)
	e.Livez = m(e.Livez)
}

// NewTransferEndpoint returns an endpoint function that calls the method
// "transfer" of service s.
func NewTransferEndpoint(s Service) goa.Endpoint {
	return func(ctx context.Context, req any) (any, error) {
		p := req.(*TransferPayload)
		ctx, err := s.JWTAuth(ctx, p.BearerToken)
		if err != nil {
			return nil, err
		}
		return s.Transfer(ctx, p)
	}
}

// NewListTransfersEndpoint returns an endpoint function that calls the method
// "list-transfers" of service s.
func NewListTransfersEndpoint(s Service) goa.Endpoint {
	return func(ctx context.Context, req any) (any, error) {
		p := req.(*ListTransfersPayload)
		ctx, err := s.JWTAuth(ctx, p.BearerToken)
		if err != nil {
			return nil, err
		}
		return s.ListTransfers(ctx, p)
	}
}

// NewReadyzEndpoint returns an endpoint function that calls the method
// "readyz" of service s.
func NewReadyzEndpoint(s Service) goa.Endpoint {
	return func(ctx context.Context, req any) (any, error) {
		return s.Readyz(ctx)
	}
}

// NewLivezEndpoint returns an endpoint function that calls the method "livez"
// of service s.
func NewLivezEndpoint(s Service) goa.Endpoint {
	return func(ctx context.Context, req any) (any, error) {
		return s.Livez(ctx)
	}
}
