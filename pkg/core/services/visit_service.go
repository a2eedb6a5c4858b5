package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/wadjakorntonsri/visitlog/pkg/core/domain"
	"github.com/wadjakorntonsri/visitlog/pkg/metrics"
	"github.com/wadjakorntonsri/visitlog/pkg/ports"
)

type VisitService struct {
	repo ports.VisitRepository
	log  *zap.Logger
}

func NewVisitService(repo ports.VisitRepository, log *zap.Logger) *VisitService {
	return &VisitService{repo: repo, log: log}
}

// RecordVisit appends a visit. The store assigns id and timestamp.
func (s *VisitService) RecordVisit(ctx context.Context, address, userAgent, referer, path string) (*domain.Visit, error) {
	if address == "" {
		address = domain.UnknownAddress
	}

	visit := &domain.Visit{
		Address:   address,
		UserAgent: userAgent,
		Referer:   referer,
		Path:      path,
	}

	if err := s.repo.Record(ctx, visit); err != nil {
		metrics.RecordFailures.Inc()
		s.log.Error("failed to record visit",
			zap.String("address", address),
			zap.String("path", path),
			zap.Error(err),
		)
		var writeErr *domain.StorageWriteError
		if !errors.As(err, &writeErr) {
			err = &domain.StorageWriteError{Err: err}
		}
		return nil, err
	}

	metrics.VisitsRecorded.Inc()
	s.log.Debug("visit recorded",
		zap.Int64("id", visit.ID),
		zap.String("address", visit.Address),
		zap.String("path", visit.Path),
	)
	return visit, nil
}

func (s *VisitService) ListVisits(ctx context.Context, limit int) ([]domain.Visit, error) {
	visits, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, s.readFailed("list", err)
	}
	return visits, nil
}

func (s *VisitService) ExportVisits(ctx context.Context) ([]domain.Visit, error) {
	visits, err := s.repo.ExportAll(ctx)
	if err != nil {
		return nil, s.readFailed("export", err)
	}
	return visits, nil
}

func (s *VisitService) GetStats(ctx context.Context) (*domain.VisitStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, s.readFailed("stats", err)
	}
	return stats, nil
}

func (s *VisitService) readFailed(op string, err error) error {
	metrics.ReadFailures.WithLabelValues(op).Inc()
	s.log.Error("failed to read visits", zap.String("op", op), zap.Error(err))

	var readErr *domain.StorageReadError
	if !errors.As(err, &readErr) {
		err = &domain.StorageReadError{Op: op, Err: err}
	}
	return err
}

// Ensure interface compliance
var _ ports.VisitService = (*VisitService)(nil)
