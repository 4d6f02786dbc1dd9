package types

// ChainFamily classifies a chain into a blockchain family.
type ChainFamily string

const (
	ChainEVM     ChainFamily = "evm"
	ChainSolana  ChainFamily = "solana"
	ChainUnknown ChainFamily = ""
)

// Chain identifiers used by facilitators and payment links.
const (
	ChainIDSolana    = "solana"
	ChainIDBase      = "base"
	ChainIDEthereum  = "ethereum"
	ChainIDPolygon   = "polygon"
	ChainIDAvalanche = "avalanche"
	ChainIDSei       = "sei"
	ChainIDPeaq      = "peaq"
	ChainIDIotex     = "iotex"
	ChainIDXDC       = "xdc"
	ChainIDBSC       = "bsc"
	ChainIDArbitrum  = "arbitrum"
	ChainIDOptimism  = "optimism"
)

var evmChains = map[string]bool{
	ChainIDBase:      true,
	ChainIDEthereum:  true,
	ChainIDPolygon:   true,
	ChainIDAvalanche: true,
	ChainIDSei:       true,
	ChainIDPeaq:      true,
	ChainIDIotex:     true,
	ChainIDXDC:       true,
	ChainIDBSC:       true,
	ChainIDArbitrum:  true,
	ChainIDOptimism:  true,
}

// FamilyOf returns the chain family of a chain identifier.
func FamilyOf(chain string) ChainFamily {
	switch {
	case chain == ChainIDSolana:
		return ChainSolana
	case evmChains[chain]:
		return ChainEVM
	default:
		return ChainUnknown
	}
}
