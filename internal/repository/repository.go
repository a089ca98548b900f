package repository

import (
	"context"
	"time"

	"nodegraph/internal/codec"
)

// DocumentInfo summarizes a stored document without its data.
type DocumentInfo struct {
	Name       string    `json:"name"`
	FlowCharts int       `json:"flowcharts"`
	Nodes      int       `json:"nodes"`
	Connectors int       `json:"connectors"`
	Size       int64     `json:"size"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Repository defines the interface for document storage
type Repository interface {
	// Document operations
	SaveDocument(ctx context.Context, name string, doc *codec.Element) error
	// LoadDocument returns nil and no error when the document does not exist.
	LoadDocument(ctx context.Context, name string) (*codec.Element, error)
	ListDocuments(ctx context.Context) ([]DocumentInfo, error)
	DeleteDocument(ctx context.Context, name string) error

	// Key/value metadata, stored as JSON
	SetMetadata(ctx context.Context, key string, value any) error
	GetMetadata(ctx context.Context, key string, target any) (bool, error)

	// Close releases resources
	Close() error
}
