package classifier

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"holder-sentinel/internal/domain"
	"holder-sentinel/internal/ledger"
	"holder-sentinel/internal/observability"
	"holder-sentinel/internal/storage"
)

// Service wires the classifier to the ledger gateway, the optional result
// cache, and run persistence. It is the ClassifyHolders entry point exposed
// to the API layer.
type Service struct {
	classifier  *Classifier
	gateway     ledger.Gateway
	store       storage.ClassificationStore // nil disables persistence
	cache       ResultCache                 // nil disables caching
	cacheTTL    time.Duration
	holderLimit int
	logger      zerolog.Logger
}

// ServiceOptions contains configuration for creating a Service.
type ServiceOptions struct {
	Classifier  *Classifier
	Gateway     ledger.Gateway
	Store       storage.ClassificationStore
	Cache       ResultCache
	CacheTTL    time.Duration
	HolderLimit int // how many holders to snapshot, default 100
	Logger      zerolog.Logger
}

// NewService creates a new classification service.
func NewService(opts ServiceOptions) *Service {
	holderLimit := opts.HolderLimit
	if holderLimit <= 0 {
		holderLimit = 100
	}
	cacheTTL := opts.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &Service{
		classifier:  opts.Classifier,
		gateway:     opts.Gateway,
		store:       opts.Store,
		cache:       opts.Cache,
		cacheTTL:    cacheTTL,
		holderLimit: holderLimit,
		logger:      opts.Logger.With().Str("component", "classifier_service").Logger(),
	}
}

// ClassifyHolders snapshots the token's holders and classifies them.
// Deployer lookup failures degrade to classification without a deployer
// match; only the holder snapshot and supply lookups are hard requirements.
func (s *Service) ClassifyHolders(ctx context.Context, tokenAddress string, network domain.Network) (*domain.ClassificationResult, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, tokenAddress, network); ok {
			observability.RecordCacheLookup(true)
			return cached, nil
		}
		observability.RecordCacheLookup(false)
	}

	holders, err := s.gateway.GetHolders(ctx, tokenAddress, network, s.holderLimit)
	if err != nil {
		return nil, fmt.Errorf("get holders: %w", err)
	}

	totalSupply, err := s.gateway.GetTotalSupply(ctx, tokenAddress, network)
	if err != nil {
		return nil, fmt.Errorf("get total supply: %w", err)
	}

	deployer, err := s.gateway.GetDeployer(ctx, tokenAddress, network)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("token", tokenAddress).
			Msg("deployer lookup failed, classifying without deployer match")
		deployer = ""
	}

	result := s.classifier.Classify(ctx, holders, tokenAddress, deployer, totalSupply, network)

	s.logger.Info().
		Str("token", tokenAddress).
		Str("network", network.String()).
		Int("holders", result.HolderCount).
		Int("team", result.Counts.Team).
		Int("bundle", result.Counts.Bundle).
		Int("mev", result.Counts.MEV).
		Msg("classification run complete")

	if s.store != nil {
		if err := s.store.InsertRun(ctx, result); err != nil {
			s.logger.Error().
				Err(err).
				Str("token", tokenAddress).
				Msg("failed to persist classification run")
		}
	}

	if s.cache != nil {
		s.cache.Set(ctx, result, s.cacheTTL)
	}

	return result, nil
}
