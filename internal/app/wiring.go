package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"musd-rewards-watcher/internal/conversion"
	"musd-rewards-watcher/internal/txwatch"
)

// snapshotLister wraps the transaction source and remembers the last
// successfully fetched list, so the toast machine's payment-token lookup
// reads the same snapshot the watchers are observing. The lookup misses
// once a transaction's payment-token metadata disappears; the toast
// machine's symbol cache covers that window.
type snapshotLister struct {
	inner conversion.Lister

	mu   sync.Mutex
	last []txwatch.Record
}

func newSnapshotLister(inner conversion.Lister) *snapshotLister {
	return &snapshotLister{inner: inner}
}

func (s *snapshotLister) List(ctx context.Context) ([]txwatch.Record, error) {
	list, err := s.inner.List(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.last = list
	s.mu.Unlock()
	return list, nil
}

// Lookup implements txwatch.SymbolLookup against the last snapshot.
func (s *snapshotLister) Lookup(txID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.last {
		if rec.ID == txID && rec.SourceTokenSymbol != "" {
			return rec.SourceTokenSymbol, true
		}
	}
	return "", false
}

// logNavigator is the headless stand-in for the extension's navigation
// surface.
type logNavigator struct {
	logger zerolog.Logger
}

func (n logNavigator) ToEducation() {
	n.logger.Info().Msg("navigate: conversion education screen")
}

func (n logNavigator) ToConfirmation(txID string) {
	n.logger.Info().Str("tx_id", txID).Msg("navigate: transaction confirmation")
}

// unseenPrefs is the fallback preference store when no database is
// configured: education is never acknowledged, so the flow always routes
// through the education screen first.
type unseenPrefs struct{}

func (unseenPrefs) EducationSeen(ctx context.Context, account string) (bool, error) {
	return false, nil
}

// configNetworks resolves controller network client ids from static
// configuration.
type configNetworks struct {
	clients map[string]string
}

func (c configNetworks) ClientID(chainID string) (string, error) {
	if id, ok := c.clients[chainID]; ok {
		return id, nil
	}
	return "", fmt.Errorf("no network client configured for chain %s", chainID)
}
