package licensing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	service_types "likeness.io/application/services/types"
	"likeness.io/infrastructure/database/repository/cache"
	"likeness.io/infrastructure/logger"
	"likeness.io/infrastructure/network"
)

// MarketplaceCatalog fetches licensing options for a matched identity from
// the marketplace service. Lookups are cached briefly because the same
// identities tend to be matched repeatedly in bursts.
type MarketplaceCatalog struct {
	Network  *network.NetworkController
	CacheTTL time.Duration
}

func New(baseURL string) *MarketplaceCatalog {
	return &MarketplaceCatalog{
		Network:  &network.NetworkController{BaseUrl: baseURL},
		CacheTTL: 5 * time.Minute,
	}
}

type optionsResponse struct {
	Options []service_types.LicenseOption `json:"options"`
}

func (catalog *MarketplaceCatalog) GetLicenseOptions(ctx context.Context, identityID string) ([]service_types.LicenseOption, error) {
	cacheKey := fmt.Sprintf("license_options:%s", identityID)
	if cached := cache.Cache.FindOne(cacheKey); cached != nil {
		var options []service_types.LicenseOption
		if err := json.Unmarshal([]byte(*cached), &options); err == nil {
			return options, nil
		}
	}

	response, statusCode, err := catalog.Network.Get(ctx, fmt.Sprintf("/identities/%s/license-options", identityID), nil)
	if err != nil {
		return nil, err
	}
	if *statusCode != 200 {
		return nil, fmt.Errorf("license marketplace returned status %d", *statusCode)
	}

	var parsed optionsResponse
	if err := json.Unmarshal(*response, &parsed); err != nil {
		logger.Error("error unmarshalling license options response", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
		return nil, err
	}

	if encoded, err := json.Marshal(parsed.Options); err == nil {
		cache.Cache.CreateEntry(cacheKey, encoded, catalog.CacheTTL)
	}
	return parsed.Options, nil
}

// NoopCatalog returns no options. Used when no marketplace is configured.
type NoopCatalog struct{}

func (NoopCatalog) GetLicenseOptions(ctx context.Context, identityID string) ([]service_types.LicenseOption, error) {
	return nil, nil
}
