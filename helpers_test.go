package deploy

import (
	"encoding/hex"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
)

const testChainID = 1337

// Bytecode used by the tests is hand assembled. initCode prefixes a runtime
// with an 11 byte header that copies it to memory and returns it.

var stopRuntime = []byte{0x00}

func initCode(runtime []byte) []byte {
	header := []byte{0x60, byte(len(runtime)), 0x80, 0x60, 0x0b, 0x60, 0x00, 0x39, 0x60, 0x00, 0xf3}
	return append(header, runtime...)
}

// returnWordRuntime answers every call with the 32 byte word v.
func returnWordRuntime(v byte) []byte {
	return []byte{0x60, v, 0x60, 0x00, 0x52, 0x60, 0x20, 0x60, 0x00, 0xf3}
}

// emitRuntime logs LOG2(topic0, topic1) with msg.sender as data on every call.
func emitRuntime(sig string, topic1 byte) []byte {
	code := []byte{0x33, 0x60, 0x00, 0x52, 0x60, topic1, 0x7f}
	code = append(code, crypto.Keccak256([]byte(sig))...)
	return append(code, 0x60, 0x20, 0x60, 0x00, 0xa2, 0x00)
}

// revertRuntime reverts every call with the custom error sig.
func revertRuntime(sig string) []byte {
	code := []byte{0x63}
	code = append(code, crypto.Keccak256([]byte(sig))[:4]...)
	return append(code, 0x60, 0xe0, 0x1b, 0x60, 0x00, 0x52, 0x60, 0x04, 0x60, 0x00, 0xfd)
}

// revertStringRuntime reverts every call with Error("no").
func revertStringRuntime() []byte {
	payload := make([]byte, 0, 100)
	payload = append(payload, errorStringSelector...)
	payload = append(payload, make([]byte, 31)...)
	payload = append(payload, 0x20)
	payload = append(payload, make([]byte, 31)...)
	payload = append(payload, 0x02)
	word := make([]byte, 32)
	copy(word, "no")
	payload = append(payload, word...)

	// CODECOPY the payload appended after this 13 byte prefix, then REVERT.
	code := []byte{0x60, byte(len(payload)), 0x60, 0x0d, 0x60, 0x00, 0x39, 0x60, byte(len(payload)), 0x60, 0x00, 0xfd, 0x00}
	return append(code, payload...)
}

func hexCode(code []byte) string {
	return "0x" + hex.EncodeToString(code)
}

// newArtifact builds an artifact deploying runtime behind initCode.
func newArtifact(t *testing.T, name, abiJSON string, runtime []byte) *Artifact {
	t.Helper()
	return &Artifact{
		ContractName:     name,
		SourceName:       "contracts/" + name + ".sol",
		ABI:              MustParseABI(abiJSON),
		RawABI:           []byte(abiJSON),
		Bytecode:         Bytecode{Object: hexCode(initCode(runtime))},
		DeployedBytecode: Bytecode{Object: hexCode(runtime)},
	}
}

// linkedArtifact builds an artifact whose creation code carries one slot per
// library right after its init code.
func linkedArtifact(t *testing.T, name string, libraries ...string) *Artifact {
	t.Helper()
	a := newArtifact(t, name, `[]`, stopRuntime)
	var sb strings.Builder
	sb.WriteString(a.Bytecode.Object)
	refs := LinkReferences{}
	base := len(initCode(stopRuntime))
	for i, fqn := range libraries {
		sb.WriteString(Placeholder(fqn))
		source, lib, _ := strings.Cut(fqn, ":")
		if refs[source] == nil {
			refs[source] = map[string][]LinkReference{}
		}
		refs[source][lib] = append(refs[source][lib], LinkReference{Start: base + 20*i, Length: 20})
	}
	a.Bytecode = Bytecode{Object: sb.String(), LinkReferences: refs}
	return a
}

// newTestChain starts an in-process chain funding the development accounts.
func newTestChain(t *testing.T) (*SimulatedBackend, *Keyring) {
	t.Helper()
	keyring := DevelopmentKeyring(big.NewInt(testChainID))
	backend := NewSimulatedBackend(keyring.Accounts())
	t.Cleanup(func() { backend.Close() })
	return backend, keyring
}

const vrfTestABI = `[
	{"type":"function","name":"createSubscription","stateMutability":"nonpayable","inputs":[],"outputs":[{"name":"","type":"uint64"}]},
	{"type":"function","name":"addConsumer","stateMutability":"nonpayable","inputs":[
		{"name":"_subId","type":"uint64"},{"name":"_consumer","type":"address"}],"outputs":[]},
	{"type":"event","name":"SubscriptionCreated","anonymous":false,"inputs":[
		{"name":"subId","type":"uint64","indexed":true},{"name":"owner","type":"address","indexed":false}]}
]`

const consumerTestABI = `[
	{"type":"constructor","inputs":[{"name":"coordinator","type":"address"},{"name":"subscriptionId","type":"uint64"}]}
]`
