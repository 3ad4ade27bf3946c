package rejig

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	deploy "github.com/rejig-app/rejig-deploy"
)

const testChainID = 1337

// The contracts below only carry the ABI surface the deployment touches.
// Their bytecode is hand assembled: an 11 byte init header copying a tiny
// runtime into memory and returning it.

const hubABI = `[
  {"type":"constructor","inputs":[
    {"name":"vrfCoordinator","type":"address"},
    {"name":"subscriptionId","type":"uint64"},
    {"name":"gasLane","type":"bytes32"},
    {"name":"callbackGasLimit","type":"uint32"},
    {"name":"followNFTImpl","type":"address"},
    {"name":"transactionNFTImpl","type":"address"}]},
  {"type":"function","name":"initialize","stateMutability":"nonpayable","inputs":[
    {"name":"name","type":"string"},{"name":"symbol","type":"string"},{"name":"newGovernance","type":"address"}],"outputs":[]},
  {"type":"function","name":"setState","stateMutability":"nonpayable","inputs":[{"name":"newState","type":"uint8"}],"outputs":[]},
  {"type":"function","name":"getState","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
  {"type":"function","name":"setGovernance","stateMutability":"nonpayable","inputs":[{"name":"newGovernance","type":"address"}],"outputs":[]},
  {"type":"function","name":"setEmergencyAdmin","stateMutability":"nonpayable","inputs":[{"name":"newEmergencyAdmin","type":"address"}],"outputs":[]},
  {"type":"function","name":"createProfile","stateMutability":"nonpayable","inputs":[{"name":"vars","type":"tuple","components":[
    {"name":"to","type":"address"},
    {"name":"handle","type":"string"},
    {"name":"imageURI","type":"string"},
    {"name":"followModule","type":"address"},
    {"name":"followModuleInitData","type":"bytes"},
    {"name":"followNFTURI","type":"string"},
    {"name":"transactionModule","type":"address"},
    {"name":"transactionNFTURI","type":"string"}]}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"follow","stateMutability":"nonpayable","inputs":[
    {"name":"profileIds","type":"uint256[]"},{"name":"datas","type":"bytes[]"}],"outputs":[{"name":"","type":"uint256[]"}]},
  {"type":"function","name":"post","stateMutability":"nonpayable","inputs":[{"name":"vars","type":"tuple","components":[
    {"name":"profileId","type":"uint256"},
    {"name":"contentURI","type":"string"},
    {"name":"referenceModule","type":"address"},
    {"name":"referenceModuleInitData","type":"bytes"}]}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"comment","stateMutability":"nonpayable","inputs":[{"name":"vars","type":"tuple","components":[
    {"name":"profileId","type":"uint256"},
    {"name":"contentURI","type":"string"},
    {"name":"profileIdPointed","type":"uint256"},
    {"name":"pubIdPointed","type":"uint256"},
    {"name":"referenceModuleData","type":"bytes"},
    {"name":"referenceModule","type":"address"},
    {"name":"referenceModuleInitData","type":"bytes"}]}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"mirror","stateMutability":"nonpayable","inputs":[{"name":"vars","type":"tuple","components":[
    {"name":"profileId","type":"uint256"},
    {"name":"profileIdPointed","type":"uint256"},
    {"name":"pubIdPointed","type":"uint256"},
    {"name":"referenceModuleData","type":"bytes"},
    {"name":"referenceModule","type":"address"},
    {"name":"referenceModuleInitData","type":"bytes"}]}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"getFollowNFT","stateMutability":"view","inputs":[{"name":"profileId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"getFollowNFTImpl","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"burn","stateMutability":"nonpayable","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"ownerOf","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"tokenOfOwnerByIndex","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"index","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"tokenURI","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
  {"type":"error","name":"NotGovernance","inputs":[]},
  {"type":"error","name":"NotGovernanceOrEmergencyAdmin","inputs":[]},
  {"type":"error","name":"Paused","inputs":[]},
  {"type":"error","name":"FollowInvalid","inputs":[]}
]`

const followNFTABI = `[
  {"type":"constructor","inputs":[{"name":"hub","type":"address"}]},
  {"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"ownerOf","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"tokenOfOwnerByIndex","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"index","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"burn","stateMutability":"nonpayable","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[]}
]`

const moduleGlobalsABI = `[
  {"type":"constructor","inputs":[
    {"name":"governance","type":"address"},{"name":"treasury","type":"address"},{"name":"treasuryFee","type":"uint16"}]},
  {"type":"function","name":"whitelistCurrency","stateMutability":"nonpayable","inputs":[
    {"name":"currency","type":"address"},{"name":"toWhitelist","type":"bool"}],"outputs":[]}
]`

const vrfABI = `[
  {"type":"constructor","inputs":[{"name":"_baseFee","type":"uint96"},{"name":"_gasPriceLink","type":"uint96"}]},
  {"type":"function","name":"createSubscription","stateMutability":"nonpayable","inputs":[],"outputs":[{"name":"","type":"uint64"}]},
  {"type":"function","name":"addConsumer","stateMutability":"nonpayable","inputs":[
    {"name":"_subId","type":"uint64"},{"name":"_consumer","type":"address"}],"outputs":[]},
  {"type":"event","name":"SubscriptionCreated","anonymous":false,"inputs":[
    {"name":"subId","type":"uint64","indexed":true},{"name":"owner","type":"address","indexed":false}]}
]`

const proxyABI = `[
  {"type":"constructor","stateMutability":"payable","inputs":[
    {"name":"_logic","type":"address"},{"name":"admin_","type":"address"},{"name":"_data","type":"bytes"}]}
]`

const (
	emptyABI      = `[]`
	hubOnlyABI    = `[{"type":"constructor","inputs":[{"name":"hub","type":"address"}]}]`
	feeModuleABI  = `[{"type":"constructor","inputs":[{"name":"hub","type":"address"},{"name":"moduleGlobals","type":"address"}]}]`
	creationABI   = `[{"type":"constructor","inputs":[{"name":"owner","type":"address"},{"name":"hub","type":"address"}]}]`
	rejigERC20ABI = `[{"type":"constructor","inputs":[{"name":"hub","type":"address"},{"name":"initialSupply","type":"uint256"}]}]`
)

var (
	stopRuntime = []byte{0x00}
	// returnZeroRuntime answers every call with one zero word.
	returnZeroRuntime = returnWordRuntime(0)
)

// initCode prefixes runtime with code that deploys it.
func initCode(runtime []byte) []byte {
	header := []byte{0x60, byte(len(runtime)), 0x80, 0x60, 0x0b, 0x60, 0x00, 0x39, 0x60, 0x00, 0xf3}
	return append(header, runtime...)
}

// returnWordRuntime answers every call with the 32 byte word v.
func returnWordRuntime(v byte) []byte {
	return []byte{0x60, v, 0x60, 0x00, 0x52, 0x60, 0x20, 0x60, 0x00, 0xf3}
}

// returnDataRuntime answers every call with data, which is appended to the
// code and copied out of it.
func returnDataRuntime(data []byte) []byte {
	const header = 13
	n := byte(len(data))
	code := []byte{0x60, n, 0x60, header, 0x60, 0x00, 0x39, 0x60, n, 0x60, 0x00, 0xf3, 0x00}
	return append(code, data...)
}

// subscriptionRuntime emits SubscriptionCreated(1, msg.sender) on every call.
func subscriptionRuntime() []byte {
	topic := crypto.Keccak256([]byte("SubscriptionCreated(uint64,address)"))
	code := []byte{0x33, 0x60, 0x00, 0x52, 0x60, 0x01, 0x7f}
	code = append(code, topic...)
	return append(code, 0x60, 0x20, 0x60, 0x00, 0xa2, 0x00)
}

// revertRuntime reverts every call with the custom error sig.
func revertRuntime(sig string) []byte {
	code := []byte{0x63}
	code = append(code, crypto.Keccak256([]byte(sig))[:4]...)
	return append(code, 0x60, 0xe0, 0x1b, 0x60, 0x00, 0x52, 0x60, 0x04, 0x60, 0x00, 0xfd)
}

// hubLibraries are the linked libraries in the order of their slots in the
// test hub bytecode.
var hubLibraries = []string{
	PublishingLogicLib,
	InteractionLogicLib,
	ProfileTokenURILogicLib,
	PostNFTTokenURILogicLib,
}

// hubCodeSize is the linked creation code size of the test hub.
const hubCodeSize = 11 + 1 + 20*4

func hexCode(code []byte) string {
	return "0x" + hex.EncodeToString(code)
}

func testArtifact(t *testing.T, name, source, abiJSON string, creation, deployed string, refs deploy.LinkReferences) *deploy.Artifact {
	t.Helper()
	doc := map[string]any{
		"contractName":     name,
		"sourceName":       source,
		"abi":              json.RawMessage(abiJSON),
		"bytecode":         creation,
		"deployedBytecode": deployed,
		"linkReferences":   refs,
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	a, err := deploy.ParseArtifact(data, "")
	require.NoError(t, err)
	return a
}

func simpleArtifact(t *testing.T, name, abiJSON string, runtime []byte) *deploy.Artifact {
	t.Helper()
	return testArtifact(t, name, "contracts/"+name+".sol", abiJSON, hexCode(initCode(runtime)), hexCode(runtime), nil)
}

// hubArtifact builds the hub with one library slot per linked library.
func hubArtifact(t *testing.T) *deploy.Artifact {
	t.Helper()
	var sb strings.Builder
	sb.WriteString(hexCode(initCode(stopRuntime)))
	refs := deploy.LinkReferences{}
	for i, fqn := range hubLibraries {
		sb.WriteString(deploy.Placeholder(fqn))
		source, lib, _ := strings.Cut(fqn, ":")
		refs[source] = map[string][]deploy.LinkReference{
			lib: {{Start: 12 + 20*i, Length: 20}},
		}
	}
	return testArtifact(t, "Rejig", "contracts/core/Rejig.sol", hubABI, sb.String(), hexCode(stopRuntime), refs)
}

// testStore returns every protocol and fixture artifact.
func testStore(t *testing.T) *deploy.ArtifactStore {
	t.Helper()
	return deploy.NewArtifactStore(
		simpleArtifact(t, "ModuleGlobals", moduleGlobalsABI, stopRuntime),
		simpleArtifact(t, "PublishingLogic", emptyABI, stopRuntime),
		simpleArtifact(t, "InteractionLogic", emptyABI, stopRuntime),
		simpleArtifact(t, "ProfileTokenURILogic", emptyABI, stopRuntime),
		simpleArtifact(t, "PostNFTTokenURILogic", emptyABI, stopRuntime),
		simpleArtifact(t, "VRFCoordinatorV2Mock", vrfABI, subscriptionRuntime()),
		hubArtifact(t),
		simpleArtifact(t, "FollowNFT", followNFTABI, stopRuntime),
		simpleArtifact(t, "TransactionNFT", hubOnlyABI, stopRuntime),
		simpleArtifact(t, "TransparentUpgradeableProxy", proxyABI, returnZeroRuntime),
		simpleArtifact(t, "RejigPeriphery", hubOnlyABI, stopRuntime),
		simpleArtifact(t, "Currency", emptyABI, stopRuntime),
		simpleArtifact(t, "FeeFollowModule", feeModuleABI, stopRuntime),
		simpleArtifact(t, "ProfileFollowModule", hubOnlyABI, stopRuntime),
		simpleArtifact(t, "ApprovalFollowModule", hubOnlyABI, stopRuntime),
		simpleArtifact(t, "RevertFollowModule", hubOnlyABI, stopRuntime),
		simpleArtifact(t, "FollowerOnlyReferenceModule", hubOnlyABI, stopRuntime),
		simpleArtifact(t, "UIDataProvider", hubOnlyABI, stopRuntime),
		simpleArtifact(t, "ProfileCreationProxy", creationABI, stopRuntime),
		simpleArtifact(t, "Helper", emptyABI, stopRuntime),
		simpleArtifact(t, "Events", emptyABI, stopRuntime),
		simpleArtifact(t, "MockFollowModule", emptyABI, stopRuntime),
		simpleArtifact(t, "MockReferenceModule", emptyABI, stopRuntime),
		simpleArtifact(t, "RejigERC20", rejigERC20ABI, stopRuntime),
	)
}

// newChain starts an in-process chain funding the development accounts.
func newChain(t *testing.T) (*deploy.SimulatedBackend, *deploy.Keyring) {
	t.Helper()
	keyring := deploy.DevelopmentKeyring(big.NewInt(testChainID))
	backend := deploy.NewSimulatedBackend(keyring.Accounts())
	t.Cleanup(func() { backend.Close() })
	return backend, keyring
}

// deployRuntime deploys bare runtime code from the keyring's first account.
func deployRuntime(t *testing.T, backend *deploy.SimulatedBackend, keyring *deploy.Keyring, runtime []byte) common.Address {
	t.Helper()
	opts, err := keyring.TransactOpts(keyring.Account(0))
	require.NoError(t, err)
	addr, tx, _, err := bind.DeployContract(opts, deploy.MustParseABI(emptyABI), initCode(runtime), backend)
	require.NoError(t, err)
	_, err = bind.WaitDeployed(context.Background(), backend, tx)
	require.NoError(t, err)
	return addr
}
