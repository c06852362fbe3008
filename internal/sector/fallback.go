package sector

import (
	"time"

	"github.com/wonny/aegis-signal/backend/internal/contracts"
	"github.com/wonny/aegis-signal/backend/internal/strategyconfig"
)

// Fallback returns the built-in placeholder ranking used when no sector is computable.
// Placeholder entries carry no numeric score.
func Fallback(cfg strategyconfig.Sector, asOf time.Time, reason string) *contracts.SectorRanking {
	names := cfg.Fallback
	if cfg.TopK > 0 && len(names) > cfg.TopK {
		names = names[:cfg.TopK]
	}

	sectors := make([]contracts.SectorScore, 0, len(names))
	for _, name := range names {
		sectors = append(sectors, contracts.SectorScore{SectorID: name, Name: name})
	}

	return &contracts.SectorRanking{
		AsOf:     asOf,
		Sectors:  sectors,
		Fallback: true,
		Reason:   reason,
	}
}
