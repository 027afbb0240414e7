package application

import (
	"context"

	"github.com/Apurer/aims-commerce/internal/domains/payments/domain"
	"github.com/Apurer/aims-commerce/internal/domains/payments/ports"
)

// Service orchestrates gateway redirects and transaction bookkeeping.
type Service struct {
	registry *Registry
	repo     ports.TransactionRepository
}

func NewService(registry *Registry, repo ports.TransactionRepository) *Service {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Service{registry: registry, repo: repo}
}

func (s *Service) Gateways() []string {
	return s.registry.Names()
}

func (s *Service) CreatePaymentURL(ctx context.Context, gateway string, req ports.PaymentRequest) (string, error) {
	g, err := s.registry.Lookup(gateway)
	if err != nil {
		return "", mapError(err)
	}
	paymentURL, err := g.PaymentURL(ctx, req)
	if err != nil {
		return "", mapError(err)
	}
	return paymentURL, nil
}

// HandleCallback parses the gateway return parameters and stores the resulting transaction.
// Declined payments are returned as *domain.PaymentError and nothing is stored.
func (s *Service) HandleCallback(ctx context.Context, gateway string, params map[string]string) (*domain.Transaction, error) {
	g, err := s.registry.Lookup(gateway)
	if err != nil {
		return nil, mapError(err)
	}
	tx, err := g.ParseCallback(ctx, params)
	if err != nil {
		return nil, mapError(err)
	}
	if tx.Gateway == "" {
		tx.Gateway = g.Name()
	}
	return s.RecordTransaction(ctx, tx)
}

func (s *Service) RecordTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return nil, mapError(err)
	}
	return s.repo.Save(ctx, tx.Clone())
}

func (s *Service) GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListTransactions(ctx context.Context) ([]*domain.Transaction, error) {
	return s.repo.List(ctx)
}

func (s *Service) DeleteTransaction(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

var _ ports.Service = (*Service)(nil)
