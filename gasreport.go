package deploy

import (
	"bytes"
	"fmt"
	"io"
	"math/big"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/ethereum/go-ethereum/params"
)

// GasReportEntry is the gas spent by one executed step.
type GasReportEntry struct {
	Step     string
	Kind     StepKind
	Contract string
	Method   string
	GasUsed  uint64
	GasPrice *big.Int
	Fee      *big.Int
}

// GasReport collects gas usage of executed steps and renders it as plain text.
type GasReport struct {
	Currency      string
	CoinMarketCap string
	OutputFile    string

	mu      sync.Mutex
	entries []GasReportEntry
}

// NewGasReport creates an empty report. currency and coinMarketCapKey are
// informational and only appear in the header.
func NewGasReport(currency, coinMarketCapKey, outputFile string) *GasReport {
	return &GasReport{Currency: currency, CoinMarketCap: coinMarketCapKey, OutputFile: outputFile}
}

// Record adds an executed step.
func (g *GasReport) Record(sr *StepResult) {
	if sr == nil || sr.Receipt == nil {
		return
	}
	price := sr.Receipt.EffectiveGasPrice
	if price == nil && sr.Tx != nil {
		price = sr.Tx.GasPrice()
	}
	if price == nil {
		price = new(big.Int)
	}
	fee := new(big.Int).Mul(price, new(big.Int).SetUint64(sr.Receipt.GasUsed))

	entry := GasReportEntry{
		Step:     sr.Step.name,
		Kind:     sr.Step.kind,
		GasUsed:  sr.Receipt.GasUsed,
		GasPrice: new(big.Int).Set(price),
		Fee:      fee,
	}
	if sr.Step.call != nil {
		entry.Contract = sr.Step.call.contract.name
		if !sr.Step.call.IsConstructor() {
			entry.Method = sr.Step.call.method.Name
		}
	}

	g.mu.Lock()
	g.entries = append(g.entries, entry)
	g.mu.Unlock()
}

// Entries returns a copy of the recorded entries in execution order.
func (g *GasReport) Entries() []GasReportEntry {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]GasReportEntry, len(g.entries))
	copy(out, g.entries)
	return out
}

// TotalGas sums the gas of every recorded step.
func (g *GasReport) TotalGas() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	var total uint64
	for _, e := range g.entries {
		total += e.GasUsed
	}
	return total
}

// WriteTo renders the report as an aligned text table.
func (g *GasReport) WriteTo(w io.Writer) (int64, error) {
	entries := g.Entries()

	var buf bytes.Buffer
	currency := g.Currency
	if currency == "" {
		currency = "USD"
	}
	key := "not set"
	if g.CoinMarketCap != "" {
		key = "set"
	}
	fmt.Fprintf(&buf, "Gas report (currency %s, coinmarketcap key %s)\n\n", currency, key)

	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Step\tKind\tContract\tMethod\tGas\tGas price (wei)\tFee (ether)")
	var (
		total    uint64
		totalFee = new(big.Int)
	)
	for _, e := range entries {
		method := e.Method
		if method == "" {
			method = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			e.Step, e.Kind, e.Contract, method, e.GasUsed, e.GasPrice, formatEther(e.Fee))
		total += e.GasUsed
		totalFee.Add(totalFee, e.Fee)
	}
	fmt.Fprintf(tw, "Total\t\t\t\t%d\t\t%s\n", total, formatEther(totalFee))
	if err := tw.Flush(); err != nil {
		return 0, err
	}

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// WriteFile writes the report to path, or to OutputFile when path is empty.
func (g *GasReport) WriteFile(path string) error {
	if path == "" {
		path = g.OutputFile
	}
	if path == "" {
		path = "gas-report.txt"
	}
	var buf bytes.Buffer
	if _, err := g.WriteTo(&buf); err != nil {
		return fmt.Errorf("deploy: render gas report: %w", err)
	}
	return writeFile(path, buf.Bytes())
}

// formatEther renders a wei amount in ether without trailing zeros.
func formatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	ether := big.NewInt(params.Ether)
	whole, frac := new(big.Int).QuoRem(wei, ether, new(big.Int))
	if frac.Sign() == 0 {
		return whole.String()
	}
	digits := new(big.Int).Abs(frac).String()
	digits = strings.Repeat("0", 18-len(digits)) + digits
	return whole.String() + "." + strings.TrimRight(digits, "0")
}
