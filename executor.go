package deploy

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Backend is the chain connection a plan runs against. *ethclient.Client and
// *SimulatedBackend satisfy it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
}

// StepResult records the outcome of one executed step.
type StepResult struct {
	Step    *Step
	Nonce   uint64
	Tx      *types.Transaction
	Receipt *types.Receipt
	// Address is the created contract for deployments, the call target otherwise.
	Address common.Address
}

// Result is the outcome of a plan run.
type Result struct {
	// RunID tags the log lines of one run.
	RunID       string
	Steps       []*StepResult
	Predictions *Predictions

	byName map[string]*StepResult
}

// Step returns the result of the named step, or nil if it did not run.
func (r *Result) Step(name string) *StepResult {
	return r.byName[name]
}

// Address returns the address of the named deployment.
func (r *Result) Address(name string) (common.Address, bool) {
	sr, ok := r.byName[name]
	if !ok || sr.Step.kind != StepDeploy {
		return common.Address{}, false
	}
	return sr.Address, true
}

// MustAddress is like Address but panics if the deployment is unknown.
func (r *Result) MustAddress(name string) common.Address {
	addr, ok := r.Address(name)
	if !ok {
		panic(fmt.Sprintf("deploy: no deployment named %q", name))
	}
	return addr
}

// Receipt returns the receipt of the named step.
func (r *Result) Receipt(name string) *types.Receipt {
	if sr, ok := r.byName[name]; ok {
		return sr.Receipt
	}
	return nil
}

// Addresses returns every deployment, keyed by step name, in plan order.
func (r *Result) Addresses() *AddressBook {
	book := NewAddressBook()
	for _, sr := range r.Steps {
		if sr.Step.kind == StepDeploy {
			book.Set(sr.Step.name, sr.Address)
		}
	}
	return book
}

// GasUsed sums the gas of every executed step.
func (r *Result) GasUsed() uint64 {
	var total uint64
	for _, sr := range r.Steps {
		total += sr.Receipt.GasUsed
	}
	return total
}

// Executor sends the steps of a plan one after another.
type Executor struct {
	backend Backend
	keyring *Keyring
	cfg     *executorConfig
}

// NewExecutor creates an executor signing with keyring.
func NewExecutor(backend Backend, keyring *Keyring, opts ...ExecutorOption) *Executor {
	cfg := defaultExecutorConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Executor{backend: backend, keyring: keyring, cfg: cfg}
}

// Predict fetches the senders' pending nonces and predicts every address of the plan.
func (e *Executor) Predict(ctx context.Context, plan *Plan) (*Predictions, error) {
	base := make(map[common.Address]uint64, len(plan.senders))
	for _, sender := range plan.senders {
		n, err := e.backend.PendingNonceAt(ctx, sender)
		if err != nil {
			return nil, fmt.Errorf("deploy: nonce of %s: %w", sender.Hex(), err)
		}
		base[sender] = n
	}
	return plan.PredictAddresses(base)
}

// Run executes the plan. It stops at the first failing step and returns the
// partial result together with a *StepError.
func (e *Executor) Run(ctx context.Context, plan *Plan) (*Result, error) {
	pred, err := e.Predict(ctx, plan)
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:       uuid.NewString(),
		Predictions: pred,
		byName:      make(map[string]*StepResult, len(plan.steps)),
	}
	r := &predictionResolver{pred: pred, receipts: make(map[*Step]*types.Receipt, len(plan.steps))}
	log := e.cfg.logger.With(zap.String("run", res.RunID))
	log.Info("running plan", zap.Int("steps", len(plan.steps)), zap.Int("senders", len(plan.senders)))

	for _, s := range plan.steps {
		sr, err := e.runStep(ctx, s, pred, r)
		if err != nil {
			log.Error("step failed", zap.Int("index", s.index), zap.String("step", s.name), zap.Error(err))
			return res, &StepError{Index: s.index, Step: s.name, Err: err}
		}
		r.receipts[s] = sr.Receipt
		res.Steps = append(res.Steps, sr)
		res.byName[s.name] = sr

		log.Info("step mined",
			zap.Int("index", s.index),
			zap.String("step", s.name),
			zap.Stringer("kind", s.kind),
			zap.Uint64("nonce", sr.Nonce),
			zap.String("address", sr.Address.Hex()),
			zap.Uint64("gas", sr.Receipt.GasUsed),
		)
		if e.cfg.gasReport != nil {
			e.cfg.gasReport.Record(sr)
		}
	}

	if e.cfg.verifyCode {
		if err := e.verifyCode(ctx, res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (e *Executor) runStep(ctx context.Context, s *Step, pred *Predictions, r resolver) (*StepResult, error) {
	opts, err := e.keyring.TransactOpts(s.sender)
	if err != nil {
		return nil, err
	}
	nonce := pred.Nonce(s)
	opts.Context = ctx
	opts.Nonce = new(big.Int).SetUint64(nonce)
	opts.GasLimit = s.gasLimit
	opts.Value = s.value()

	var (
		tx     *types.Transaction
		target common.Address
	)
	switch s.kind {
	case StepDeploy:
		code, err := linkStep(s, r)
		if err != nil {
			return nil, err
		}
		args, err := s.call.resolveArgs(r)
		if err != nil {
			return nil, err
		}
		e.cfg.logger.Debug("deploying", zap.String("step", s.name), zap.String("contract", s.artifact.FullyQualifiedName()))
		target, tx, _, err = bind.DeployContract(opts, s.artifact.ABI, code, e.backend, args...)
		if err != nil {
			return nil, explain(err, s.artifact.ABI)
		}
		if predicted, _ := pred.Address(s); predicted != target {
			return nil, &AddressMismatchError{Step: s.name, Predicted: predicted, Actual: target}
		}
	case StepTransact:
		resolved, err := s.target.resolve(r)
		if err != nil {
			return nil, err
		}
		addr, ok := resolved.(common.Address)
		if !ok {
			return nil, &TypeMismatchError{Expected: "address", Got: fmt.Sprintf("%T", resolved)}
		}
		target = addr
		data, err := s.call.pack(r)
		if err != nil {
			return nil, err
		}
		e.cfg.logger.Debug("transacting", zap.String("step", s.name), zap.String("call", s.call.Label()), zap.String("to", target.Hex()))
		contract := bind.NewBoundContract(target, s.call.contract.abi, e.backend, e.backend, e.backend)
		tx, err = contract.RawTransact(opts, data)
		if err != nil {
			return nil, explain(err, s.call.contract.abi)
		}
	}

	receipt, err := e.wait(ctx, tx)
	if err != nil {
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		if rev := replay(ctx, e.backend, s.sender, tx, receipt, s.call.contract.abi); rev != nil {
			return nil, fmt.Errorf("%w: %w", ErrTransactionReverted, rev)
		}
		return nil, ErrTransactionReverted
	}
	if s.kind == StepDeploy && receipt.ContractAddress != target {
		return nil, &AddressMismatchError{Step: s.name, Predicted: target, Actual: receipt.ContractAddress}
	}

	return &StepResult{Step: s, Nonce: nonce, Tx: tx, Receipt: receipt, Address: target}, nil
}

// linkStep resolves the step's libraries and links its creation code.
func linkStep(s *Step, r resolver) ([]byte, error) {
	libs := make(map[string]common.Address, len(s.libraries))
	for name, v := range s.libraries {
		resolved, err := v.resolve(r)
		if err != nil {
			return nil, &LinkError{Library: name, Err: err}
		}
		addr, ok := resolved.(common.Address)
		if !ok {
			return nil, &LinkError{Library: name, Err: fmt.Errorf("resolved to %T", resolved)}
		}
		libs[name] = addr
	}
	return Link(s.artifact.Bytecode, libs)
}

// wait blocks until tx is mined and has the configured number of confirmations.
func (e *Executor) wait(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	if e.cfg.waitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.waitTimeout)
		defer cancel()
	}

	receipt, err := bind.WaitMined(ctx, e.backend, tx)
	if err != nil {
		return nil, fmt.Errorf("deploy: wait for %s: %w", tx.Hash().Hex(), err)
	}
	if e.cfg.confirmations <= 1 {
		return receipt, nil
	}

	want := new(big.Int).Add(receipt.BlockNumber, new(big.Int).SetUint64(e.cfg.confirmations-1))
	ticker := time.NewTicker(e.cfg.pollInterval)
	defer ticker.Stop()
	for {
		head, err := e.backend.HeaderByNumber(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("deploy: head block: %w", err)
		}
		if head.Number.Cmp(want) >= 0 {
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("deploy: waiting for %d confirmations: %w", e.cfg.confirmations, ctx.Err())
		case <-ticker.C:
		}
	}
}

// replay re-executes a reverted transaction as a call on the parent block to recover its reason.
func replay(ctx context.Context, backend Backend, from common.Address, tx *types.Transaction, receipt *types.Receipt, abis ...abi.ABI) *RevertError {
	msg := ethereum.CallMsg{
		From:  from,
		To:    tx.To(),
		Gas:   tx.Gas(),
		Value: tx.Value(),
		Data:  tx.Data(),
	}
	var block *big.Int
	if receipt.BlockNumber != nil && receipt.BlockNumber.Sign() > 0 {
		block = new(big.Int).Sub(receipt.BlockNumber, big.NewInt(1))
	}
	_, err := backend.CallContract(ctx, msg, block)
	if err == nil {
		return nil
	}
	rev, ok := RevertFromError(err, abis...)
	if !ok {
		return nil
	}
	return rev
}

// Transact sends a method call outside of a plan and waits for its receipt.
// A reverted call fails with ErrTransactionReverted wrapping the decoded
// *RevertError when the reason can be recovered.
func Transact(ctx context.Context, backend Backend, opts *bind.TransactOpts, to common.Address, contractABI abi.ABI, method string, args ...any) (*types.Receipt, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, &EncodingError{Value: args, Err: err}
	}
	if opts.Context == nil {
		withCtx := *opts
		withCtx.Context = ctx
		opts = &withCtx
	}
	contract := bind.NewBoundContract(to, contractABI, backend, backend, backend)
	tx, err := contract.RawTransact(opts, data)
	if err != nil {
		return nil, explain(err, contractABI)
	}
	receipt, err := bind.WaitMined(ctx, backend, tx)
	if err != nil {
		return nil, fmt.Errorf("deploy: wait for %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		if rev := replay(ctx, backend, opts.From, tx, receipt, contractABI); rev != nil {
			return receipt, fmt.Errorf("%w: %w", ErrTransactionReverted, rev)
		}
		return receipt, ErrTransactionReverted
	}
	return receipt, nil
}

// verifyCode checks concurrently that every deployment left code behind.
func (e *Executor) verifyCode(ctx context.Context, res *Result) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, sr := range res.Steps {
		if sr.Step.kind != StepDeploy {
			continue
		}
		g.Go(func() error {
			code, err := e.backend.CodeAt(ctx, sr.Address, nil)
			if err != nil {
				return fmt.Errorf("deploy: code of %s: %w", sr.Step.name, err)
			}
			if len(code) == 0 {
				return &StepError{Index: sr.Step.index, Step: sr.Step.name, Err: errors.New("no code at deployed address")}
			}
			return nil
		})
	}
	return g.Wait()
}

// explain turns an RPC error carrying revert data into a *RevertError.
func explain(err error, abis ...abi.ABI) error {
	if rev, ok := RevertFromError(err, abis...); ok {
		return rev
	}
	return err
}
