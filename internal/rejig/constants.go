// Package rejig describes the Rejig protocol deployment: the contract graph,
// its constructor wiring, the test fixture and thin clients over the hub.
package rejig

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Protocol parameters shared by the deployment and the fixture.
const (
	TreasuryFeeBPS           = 50
	BPSMax                   = 10000
	ReferralFeeBPS           = 250
	MaxProfileImageURILength = 6000
	FirstProfileID           = 1
	HardhatChainID           = 31337

	// GasPriceLink is the LINK per gas of the VRF coordinator mock.
	GasPriceLink = 1_000_000_000
	// CallbackGasLimit is the gas budget of the VRF callback.
	CallbackGasLimit = 500000

	// FixtureSubscriptionID is the VRF subscription the fixture hard-codes.
	FixtureSubscriptionID = 1
	// RejigERC20Supply is minted to the fixture user.
	RejigERC20Supply = 1000000
)

// Profile NFT collection names.
const (
	DeployNFTName    = "Rejig App Profiles"
	DeployNFTSymbol  = "RAP"
	FixtureNFTName   = "Rejig Protocol Profiles"
	FixtureNFTSymbol = "LPP"
)

// GasLane is the VRF key hash requests are made against.
var GasLane = common.HexToHash("0x79d3d8832d904592c0bf9818b621522c988bb8b0c05cdc3b15aea1b6e8db0c15")

// BaseFee is the flat LINK fee (0.25 LINK) of the VRF coordinator mock.
var BaseFee, _ = new(big.Int).SetString("250000000000000000", 10)

// Libraries linked into the hub implementation, by fully qualified name.
const (
	PublishingLogicLib      = "contracts/libraries/PublishingLogic.sol:PublishingLogic"
	InteractionLogicLib     = "contracts/libraries/InteractionLogic.sol:InteractionLogic"
	ProfileTokenURILogicLib = "contracts/libraries/ProfileTokenURILogic.sol:ProfileTokenURILogic"
	PostNFTTokenURILogicLib = "contracts/libraries/PostNFTTokenURILogic.sol:PostNFTTokenURILogic"
)

// Fixture values used by the protocol scenarios.
const (
	MockProfileHandle     = "plant1ghost.eth"
	MockProfileHandle2    = "2plant1ghost.eth"
	MockURI               = "https://ipfs.io/ipfs/QmbWqxBEKC3P8tqsKc98xmWNzrzDtRLMiMPL8wBuTGsMnR"
	MockProfileURI        = "https://ipfs.io/ipfs/Qme7ss3ARVgxv6rXqVPiikMJ8u2NLgmgszg13pYrDKEoiu"
	MockFollowNFTURI      = "https://ipfs.fleek.co/ipfs/ghostplantghostplantghostplantghostplantghostplantghostplan"
	MockTransactionNFTURI = "https://ipfs.fleek.co/ipfs/txghostplantghostplantghostplantghostplantghostplantghostplan"
	FakePrivateKey        = "4bbbf85ce3377467afe5d46f804f221813b2bb87f24d81f60f1fcdbf7cbf4356"
	RejigPeripheryName    = "RejigPeriphery"
)

// ProtocolState gates which hub actions are permitted.
type ProtocolState uint8

const (
	Unpaused ProtocolState = iota
	PublishingPaused
	Paused
)

func (s ProtocolState) String() string {
	switch s {
	case Unpaused:
		return "Unpaused"
	case PublishingPaused:
		return "PublishingPaused"
	case Paused:
		return "Paused"
	default:
		return fmt.Sprintf("ProtocolState(%d)", uint8(s))
	}
}
