package doctor

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hay-kot/marquee/internal/device"
)

// DeviceCheck reports the effect and palette the adapter would pick. It only
// runs when the link is already up; doctor never starts the forward.
type DeviceCheck struct {
	client   *http.Client
	prober   Prober
	catalogs []namedCatalog
}

type namedCatalog struct {
	label   string
	catalog *device.Catalog
}

// NewDeviceCheck creates a new device check.
func NewDeviceCheck(client *http.Client, prober Prober) *DeviceCheck {
	return &DeviceCheck{
		client: client,
		prober: prober,
		catalogs: []namedCatalog{
			{label: "Text effect", catalog: device.EffectCatalog()},
			{label: "Color 1 palette", catalog: device.PaletteCatalog()},
		},
	}
}

func (c *DeviceCheck) Name() string {
	return "Device"
}

func (c *DeviceCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	if !c.prober.Reachable(ctx) {
		result.Items = append(result.Items, CheckItem{
			Label:  "Controller",
			Status: StatusWarn,
			Detail: "link is down, skipped",
		})
		return result
	}

	for _, nc := range c.catalogs {
		idx, err := nc.catalog.Resolve(ctx, c.client, c.prober.BaseURL())
		if err != nil {
			result.Items = append(result.Items, CheckItem{
				Label:  nc.label,
				Status: StatusWarn,
				Detail: err.Error(),
			})
			continue
		}
		result.Items = append(result.Items, CheckItem{
			Label:  nc.label,
			Status: StatusPass,
			Detail: fmt.Sprintf("index %d", idx),
		})
	}

	return result
}
