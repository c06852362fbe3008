package sector

import (
	"sort"

	"github.com/wonny/aegis-signal/backend/internal/contracts"
)

// DefaultMinFlowNet is the 5-session net buying threshold of FlowLeaders (100억원)
const DefaultMinFlowNet = 10_000_000_000

// FlowLeaders returns sectors whose 5-session foreign+institutional net buying exceeds minNet,
// strongest inflow first. Empty unless the ranking applied the flow term.
func FlowLeaders(ranking *contracts.SectorRanking, minNet float64) []contracts.SectorScore {
	if ranking == nil || !ranking.FlowApplied {
		return nil
	}

	leaders := make([]contracts.SectorScore, 0, len(ranking.Sectors))
	for _, s := range ranking.Sectors {
		if s.InvestorNet5D > minNet {
			leaders = append(leaders, s)
		}
	}

	sort.SliceStable(leaders, func(i, j int) bool {
		return leaders[i].InvestorNet5D > leaders[j].InvestorNet5D
	})
	return leaders
}
