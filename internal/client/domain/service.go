package domain

import (
	"context"
	"errors"
)

type CreateClientRequest struct {
	Name           string
	Address        string
	MotorVehicleNo string
	GSTIN          string
	Phone          string
}

type SearchClientRequest struct {
	Query string
}

type GetClientRequest struct {
	ID string
}

type Service interface {
	Create(context.Context, CreateClientRequest) (Client, error)
	Search(context.Context, SearchClientRequest) ([]Client, error)
	GetByID(context.Context, GetClientRequest) (Client, error)
}

var (
	ErrInvalidName = errors.New("invalid_name")
	ErrInvalidID   = errors.New("invalid_id")
	ErrNotFound    = errors.New("not_found")
)
