package domain

import (
	"context"
)

//go:generate mockgen -destination mocks/mock_directory_service.go -package mocks github.com/dalilfazara/dalil/internal/domain DirectoryService

// ListWorkersRequest carries the directory filters from the query string
type ListWorkersRequest struct {
	Name string `json:"name"`
	Job  string `json:"job"`
}

// ListWorkersResponse is the filtered view plus the job categories for the
// filter dropdown
type ListWorkersResponse struct {
	Workers []Worker `json:"workers"`
	Jobs    []string `json:"jobs"`
	Total   int      `json:"total"`
}

// DirectoryService serves the public listing and registration
type DirectoryService interface {
	ListWorkers(ctx context.Context, req ListWorkersRequest) (*ListWorkersResponse, error)
	JobCategories(ctx context.Context) ([]string, error)
	Register(ctx context.Context, req *RegisterWorkerRequest) (*Worker, error)
	// ExportCSV returns the workers CSV and its download file name
	ExportCSV(ctx context.Context) (string, string, error)
	// Reload refetches workers into the directory engine
	Reload(ctx context.Context) error
}
