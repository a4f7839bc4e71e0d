package inverter

import (
	"context"
	"fmt"

	"github.com/berfenger/froniuslights/internal/core/domain"
	"github.com/berfenger/froniuslights/internal/core/port"
	"github.com/berfenger/froniuslights/internal/core/service"
	"github.com/berfenger/froniuslights/pkg/solarapi"

	"golang.org/x/sync/errgroup"
)

// SolarAPIInverter serves snapshots and device identity from a Solar API client
type SolarAPIInverter struct {
	client *solarapi.Client
}

func NewSolarAPIInverter(client *solarapi.Client) *SolarAPIInverter {
	return &SolarAPIInverter{
		client: client,
	}
}

func (i *SolarAPIInverter) GetSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	pf, err := i.client.GetPowerFlow(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
	}
	return service.Snapshot(pf), nil
}

// GetDeviceIdentity fetches the inverter list and the device catalog
// concurrently. On any failure the returned identity is empty.
func (i *SolarAPIInverter) GetDeviceIdentity(ctx context.Context) (domain.DeviceIdentity, error) {
	var info *solarapi.InverterInfoResponse
	var catalog *solarapi.DeviceCatalog

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		info, err = i.client.GetInverterInfo(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		catalog, err = i.client.GetDeviceCatalog(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.DeviceIdentity{}, err
	}
	return service.DeviceIdentity(info, catalog), nil
}

// ensure interface compliance
var _ port.InverterService = (*SolarAPIInverter)(nil)
