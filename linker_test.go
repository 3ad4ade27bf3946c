package deploy

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

const (
	publishingLib  = "contracts/libraries/PublishingLogic.sol:PublishingLogic"
	interactionLib = "contracts/libraries/InteractionLogic.sol:InteractionLogic"
)

func TestPlaceholder(t *testing.T) {
	got := Placeholder(publishingLib)
	if len(got) != 40 {
		t.Fatalf("len(Placeholder()) = %d, want 40", len(got))
	}
	if !strings.HasPrefix(got, "__$") || !strings.HasSuffix(got, "$__") {
		t.Errorf("Placeholder() = %q", got)
	}
	if got == Placeholder(interactionLib) {
		t.Error("different libraries should have different placeholders")
	}
}

func TestLink(t *testing.T) {
	pub := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	inter := common.HexToAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512")
	a := linkedArtifact(t, "Rejig", publishingLib, interactionLib)
	base := len(initCode(stopRuntime))

	t.Run("fills every slot", func(t *testing.T) {
		code, err := Link(a.Bytecode, map[string]common.Address{publishingLib: pub, interactionLib: inter})
		if err != nil {
			t.Fatalf("Link() error = %v", err)
		}
		if len(code) != base+40 {
			t.Fatalf("len(code) = %d, want %d", len(code), base+40)
		}
		if !bytes.Equal(code[:base], initCode(stopRuntime)) {
			t.Error("code outside the slots changed")
		}
		if !bytes.Equal(code[base:base+20], pub.Bytes()) {
			t.Errorf("slot 0 = %x, want %x", code[base:base+20], pub)
		}
		if !bytes.Equal(code[base+20:], inter.Bytes()) {
			t.Errorf("slot 1 = %x, want %x", code[base+20:], inter)
		}
	})

	t.Run("missing library", func(t *testing.T) {
		_, err := Link(a.Bytecode, map[string]common.Address{publishingLib: pub})
		var linkErr *LinkError
		if !errors.As(err, &linkErr) || linkErr.Library != interactionLib {
			t.Errorf("Link() error = %v, want LinkError for %s", err, interactionLib)
		}
	})

	t.Run("bad slot length", func(t *testing.T) {
		bad := a.Bytecode
		bad.LinkReferences = LinkReferences{"contracts/libraries/PublishingLogic.sol": {"PublishingLogic": {{Start: base, Length: 19}}}}
		if _, err := Link(bad, map[string]common.Address{publishingLib: pub}); err == nil {
			t.Error("a 19 byte slot should fail")
		}
	})

	t.Run("slot out of range", func(t *testing.T) {
		bad := a.Bytecode
		bad.LinkReferences = LinkReferences{"contracts/libraries/PublishingLogic.sol": {"PublishingLogic": {{Start: 1000, Length: 20}}}}
		if _, err := Link(bad, map[string]common.Address{publishingLib: pub}); err == nil {
			t.Error("an out of range slot should fail")
		}
	})

	t.Run("unreferenced placeholder", func(t *testing.T) {
		bad := a.Bytecode
		bad.LinkReferences = nil
		if _, err := Link(bad, nil); !errors.Is(err, ErrUnlinked) {
			t.Errorf("Link() error = %v, want ErrUnlinked", err)
		}
	})

	t.Run("no libraries", func(t *testing.T) {
		plain := newArtifact(t, "Currency", `[]`, stopRuntime)
		code, err := Link(plain.Bytecode, nil)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(code, initCode(stopRuntime)) {
			t.Errorf("Link() = %x", code)
		}
	})
}

func TestLinkReferencesLibraries(t *testing.T) {
	a := linkedArtifact(t, "Rejig", publishingLib, interactionLib)
	got := a.Bytecode.LinkReferences.Libraries()
	want := []string{interactionLib, publishingLib}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Libraries() = %v, want %v", got, want)
	}
	if !a.NeedsLinking() {
		t.Error("NeedsLinking() should be true")
	}
}
