package ports

import (
	"context"

	"github.com/wadjakorntonsri/visitlog/pkg/core/domain"
)

// VisitRepository defines storage operations for the append-only visit log
type VisitRepository interface {
	Record(ctx context.Context, visit *domain.Visit) error
	List(ctx context.Context, limit int) ([]domain.Visit, error) // newest first
	ExportAll(ctx context.Context) ([]domain.Visit, error)       // oldest first
	Stats(ctx context.Context) (*domain.VisitStats, error)
}

// VisitService defines the business logic operations
type VisitService interface {
	RecordVisit(ctx context.Context, address, userAgent, referer, path string) (*domain.Visit, error)
	ListVisits(ctx context.Context, limit int) ([]domain.Visit, error)
	ExportVisits(ctx context.Context) ([]domain.Visit, error)
	GetStats(ctx context.Context) (*domain.VisitStats, error)
}
