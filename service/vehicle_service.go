package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jacobmr/teslatracker/core"
	"github.com/jacobmr/teslatracker/ports"
)

// VehicleService serves vehicle data for linked accounts
type VehicleService struct {
	accounts  ports.AccountStore
	exchanger ports.Exchanger
	lister    ports.VehicleLister

	now func() time.Time
}

// NewVehicleService creates a new vehicle service
func NewVehicleService(accounts ports.AccountStore, exchanger ports.Exchanger, lister ports.VehicleLister) *VehicleService {
	return &VehicleService{
		accounts:  accounts,
		exchanger: exchanger,
		lister:    lister,
		now:       time.Now,
	}
}

// Vehicles lists the vehicles of a linked account. Only the refresh
// credential is persisted, so each listing obtains a short-lived access
// token via the refresh grant and stores the rotated credential.
func (s *VehicleService) Vehicles(ctx context.Context, identity string) ([]core.Vehicle, error) {
	acct, err := s.accounts.Get(ctx, identity)
	if err != nil {
		return nil, err
	}

	bundle, err := s.exchanger.ExchangeRefresh(ctx, acct.RefreshToken)
	if err != nil {
		slog.Error("token refresh failed", "identity", acct.ID, "error", err)
		return nil, core.ErrRefreshFailed
	}

	now := s.now().UTC()
	if err := s.accounts.UpdateCredential(ctx, acct.ID, bundle.RefreshToken, bundle.ExpiresAt(now), now.Unix()); err != nil {
		return nil, fmt.Errorf("failed to persist refreshed credential: %w", err)
	}

	vehicles, err := s.lister.Vehicles(ctx, bundle.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}

	return vehicles, nil
}
