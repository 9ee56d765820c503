package cctp

// CCTP domain identifiers. Domains are protocol-level chain ids, distinct
// from EVM chain ids.
const (
	DomainEthereum  uint32 = 0
	DomainAvalanche uint32 = 1
	DomainOptimism  uint32 = 2
	DomainArbitrum  uint32 = 3
	DomainSolana    uint32 = 5
	DomainBase      uint32 = 6
	DomainPolygon   uint32 = 7
)

// DomainNames maps domain ids to their chain names.
var DomainNames = map[uint32]string{
	DomainEthereum:  "ethereum",
	DomainAvalanche: "avalanche",
	DomainOptimism:  "optimism",
	DomainArbitrum:  "arbitrum",
	DomainSolana:    "solana",
	DomainBase:      "base",
	DomainPolygon:   "polygon",
}

// DomainName returns the chain name for a domain id, or "unknown".
func DomainName(domain uint32) string {
	if name, ok := DomainNames[domain]; ok {
		return name
	}
	return "unknown"
}
