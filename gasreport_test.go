package deploy

import (
	"bytes"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
)

func TestFormatEther(t *testing.T) {
	tests := []struct {
		wei  *big.Int
		want string
	}{
		{nil, "0"},
		{big.NewInt(0), "0"},
		{big.NewInt(1e18), "1"},
		{big.NewInt(1_500_000_000_000_000_000), "1.5"},
		{big.NewInt(1), "0.000000000000000001"},
		{big.NewInt(21000 * 1e9), "0.000021"},
	}
	for _, tt := range tests {
		if got := formatEther(tt.wei); got != tt.want {
			t.Errorf("formatEther(%v) = %q, want %q", tt.wei, got, tt.want)
		}
	}
}

func TestGasReport(t *testing.T) {
	globals := newArtifact(t, "ModuleGlobals", globalsABI, stopRuntime)
	p := New()
	g := p.Deploy("module globals", deployer, globals, governance, deployer, 50)
	w := p.Transact("whitelist currency", governance, g, g.Contract().MustInvoke("whitelistCurrency", deployer, true))
	if _, err := p.Plan(); err != nil {
		t.Fatal(err)
	}

	report := NewGasReport("", "", filepath.Join(t.TempDir(), "gas.txt"))
	report.Record(&StepResult{Step: g.Step, Receipt: &types.Receipt{GasUsed: 100_000, EffectiveGasPrice: big.NewInt(1e9)}})
	report.Record(&StepResult{Step: w, Receipt: &types.Receipt{GasUsed: 50_000}})
	report.Record(nil)
	report.Record(&StepResult{Step: w})

	entries := report.Entries()
	if len(entries) != 2 {
		t.Fatalf("len(Entries()) = %d, want 2", len(entries))
	}
	if entries[0].Method != "" || entries[0].Contract != "ModuleGlobals" || entries[0].Kind != StepDeploy {
		t.Errorf("deploy entry = %+v", entries[0])
	}
	if entries[1].Method != "whitelistCurrency" || entries[1].Fee.Sign() != 0 {
		t.Errorf("transact entry = %+v", entries[1])
	}
	if report.TotalGas() != 150_000 {
		t.Errorf("TotalGas() = %d, want 150000", report.TotalGas())
	}

	var buf bytes.Buffer
	if _, err := report.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"currency USD", "coinmarketcap key not set", "module globals", "whitelistCurrency", "0.0001", "150000"} {
		if !strings.Contains(out, want) {
			t.Errorf("report should contain %q:\n%s", want, out)
		}
	}

	if err := report.WriteFile(""); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(report.OutputFile)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != out {
		t.Error("WriteFile() should write the rendered report")
	}
}
