package deploy

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
)

// MaxContractSize is the EIP-170 limit on deployed code, in bytes.
const MaxContractSize = 24576

// SizeEntry is the deployed code size of one artifact.
type SizeEntry struct {
	Contract     string
	SourceName   string
	DeployedSize int
	InitCodeSize int
	ExceedsLimit bool
}

// SizeReport lists deployed code sizes sorted by contract name.
type SizeReport struct {
	Entries []SizeEntry
}

// ContractSizes measures every artifact of the store that has deployed code.
// Oversized contracts make it fail with ErrContractTooLarge unless
// allowUnlimited is set; the report is returned in both cases.
func ContractSizes(store *ArtifactStore, allowUnlimited bool) (*SizeReport, error) {
	report := &SizeReport{}
	var oversized []string
	for _, a := range store.All() {
		if a.DeployedBytecode.Empty() {
			continue
		}
		entry := SizeEntry{
			Contract:     a.ContractName,
			SourceName:   a.SourceName,
			DeployedSize: a.DeployedBytecode.Size(),
			InitCodeSize: a.Bytecode.Size(),
		}
		entry.ExceedsLimit = entry.DeployedSize > MaxContractSize
		if entry.ExceedsLimit {
			oversized = append(oversized, a.ContractName)
		}
		report.Entries = append(report.Entries, entry)
	}
	sort.SliceStable(report.Entries, func(i, j int) bool {
		if report.Entries[i].Contract != report.Entries[j].Contract {
			return report.Entries[i].Contract < report.Entries[j].Contract
		}
		return report.Entries[i].SourceName < report.Entries[j].SourceName
	})

	if len(oversized) > 0 && !allowUnlimited {
		sort.Strings(oversized)
		return report, fmt.Errorf("%w: %v", ErrContractTooLarge, oversized)
	}
	return report, nil
}

// WriteTo renders the report as a text table; oversized contracts are marked with "!".
func (r *SizeReport) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Contract\tSize (KiB)\tInit code (KiB)\t")
	for _, e := range r.Entries {
		mark := ""
		if e.ExceedsLimit {
			mark = " !"
		}
		fmt.Fprintf(tw, "%s%s\t%.3f\t%.3f\t\n", e.Contract, mark, kib(e.DeployedSize), kib(e.InitCodeSize))
	}
	if err := tw.Flush(); err != nil {
		return 0, err
	}
	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

func kib(n int) float64 {
	return float64(n) / 1024
}
