package deploy

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// StepKind specifies the type of step operation.
type StepKind uint8

const (
	// StepDeploy is a contract creation.
	StepDeploy StepKind = iota

	// StepTransact is a state-changing call against an existing address.
	StepTransact
)

func (k StepKind) String() string {
	switch k {
	case StepDeploy:
		return "deploy"
	case StepTransact:
		return "transact"
	default:
		return fmt.Sprintf("StepKind(%d)", uint8(k))
	}
}

// Step represents a single transaction in the plan.
type Step struct {
	planner  *Planner
	index    int
	name     string
	kind     StepKind
	sender   common.Address
	artifact *Artifact
	call     *Call
	target   Value // StepTransact only

	libraries map[string]Value
	gasLimit  uint64

	nonceOffset uint64 // set by Plan
}

// Name returns the step name.
func (s *Step) Name() string {
	return s.name
}

// Index returns the position of the step in its plan.
func (s *Step) Index() int {
	return s.index
}

// Kind returns the step kind.
func (s *Step) Kind() StepKind {
	return s.kind
}

// Sender returns the account that signs the step.
func (s *Step) Sender() common.Address {
	return s.sender
}

// Call returns the constructor or method call.
func (s *Step) Call() *Call {
	return s.call
}

// Artifact returns the deployed artifact (nil for transact steps).
func (s *Step) Artifact() *Artifact {
	return s.artifact
}

// NonceOffset returns how many earlier steps of the plan share the sender.
func (s *Step) NonceOffset() uint64 {
	return s.nonceOffset
}

// WithGasLimit fixes the gas limit instead of estimating it.
func (s *Step) WithGasLimit(limit uint64) *Step {
	s.gasLimit = limit
	return s
}

// Planner builds an ordered sequence of deployment steps.
type Planner struct {
	steps   []*Step
	futures map[string]*Deployment
	errs    []error
	frozen  bool
}

// New creates an empty Planner.
func New() *Planner {
	return &Planner{
		steps:   make([]*Step, 0, 16),
		futures: make(map[string]*Deployment),
	}
}

// fail records an error reported by Plan.
func (p *Planner) fail(s *Step, err error) {
	p.errs = append(p.errs, &StepError{Index: s.index, Step: s.name, Err: err})
}

func (p *Planner) add(s *Step) {
	s.planner = p
	s.index = len(p.steps)
	if p.frozen {
		p.fail(s, ErrPlanFrozen)
		return
	}
	p.steps = append(p.steps, s)
}

// Deploy adds a contract creation and returns its handle. Construction errors
// are reported by Plan.
func (p *Planner) Deploy(name string, sender common.Address, artifact *Artifact, args ...any) *Deployment {
	d, ok := p.futures[name]
	if ok {
		delete(p.futures, name)
	} else {
		d = &Deployment{Step: &Step{}}
	}
	s := d.Step
	s.name, s.kind, s.sender, s.artifact = name, StepDeploy, sender, artifact
	p.add(s)
	if artifact == nil {
		p.fail(s, errors.New("nil artifact"))
		s.call = &Call{contract: &Contract{name: name}}
		return d
	}

	call, err := artifact.Contract().Construct(args...)
	if err != nil {
		p.fail(s, err)
		call = &Call{contract: artifact.Contract(), method: artifact.ABI.Constructor}
	}
	s.call = call
	return d
}

// Future returns the handle of a deployment that a later Deploy call with the
// same name adds. It lets earlier steps take the address of a contract that
// itself needs theirs.
func (p *Planner) Future(name string) *Deployment {
	if d, ok := p.futures[name]; ok {
		return d
	}
	for _, s := range p.steps {
		if s.name == name && s.kind == StepDeploy {
			return &Deployment{Step: s}
		}
	}
	d := &Deployment{Step: &Step{planner: p, name: name, kind: StepDeploy, index: -1}}
	p.futures[name] = d
	return d
}

// Transact adds a call of a method on target, which is a *Deployment, a
// common.Address, or any address Value.
func (p *Planner) Transact(name string, sender common.Address, target any, call *Call) *Step {
	s := &Step{name: name, kind: StepTransact, sender: sender, call: call}
	p.add(s)

	v, err := toValue(target, addressType)
	if err != nil {
		p.fail(s, fmt.Errorf("target: %w", err))
	}
	s.target = v
	if call == nil {
		p.fail(s, errors.New("nil call"))
	}
	return s
}

// EventArg returns a value resolved from a field of an event emitted by step.
// The consuming step must come after step.
func (p *Planner) EventArg(step *Step, contract *Contract, event, field string) *EventValue {
	return &EventValue{step: step, contract: contract, event: event, field: field}
}

// Len returns the number of steps in the planner.
func (p *Planner) Len() int {
	return len(p.steps)
}

// StepAt returns the step at the given index.
func (p *Planner) StepAt(i int) *Step {
	if i < 0 || i >= len(p.steps) {
		return nil
	}
	return p.steps[i]
}

// Plan validates the steps and freezes the planner.
func (p *Planner) Plan() (*Plan, error) {
	if len(p.errs) > 0 {
		return nil, errors.Join(p.errs...)
	}
	if len(p.futures) > 0 {
		names := make([]string, 0, len(p.futures))
		for name := range p.futures {
			names = append(names, name)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("%w: %s", ErrUnboundDeployment, strings.Join(names, ", "))
	}

	names := make(map[string]bool, len(p.steps))
	offsets := make(map[common.Address]uint64)
	var senders []common.Address

	for i, s := range p.steps {
		if names[s.name] {
			return nil, &StepError{Index: i, Step: s.name, Err: ErrDuplicateStep}
		}
		names[s.name] = true

		if _, seen := offsets[s.sender]; !seen {
			senders = append(senders, s.sender)
		}
		s.nonceOffset = offsets[s.sender]
		offsets[s.sender]++

		if err := p.checkVisibility(s); err != nil {
			return nil, &StepError{Index: i, Step: s.name, Err: err}
		}
		if s.kind == StepDeploy {
			if s.artifact.Bytecode.Empty() {
				return nil, &StepError{Index: i, Step: s.name, Err: fmt.Errorf("%s has no bytecode", s.artifact.ContractName)}
			}
			for _, lib := range s.artifact.Bytecode.LinkReferences.Libraries() {
				if _, ok := s.libraries[lib]; !ok {
					return nil, &StepError{Index: i, Step: s.name, Err: &LinkError{Library: lib, Err: errors.New("missing library address")}}
				}
			}
		}
	}

	p.frozen = true
	steps := make([]*Step, len(p.steps))
	copy(steps, p.steps)
	return &Plan{steps: steps, senders: senders}, nil
}

// checkVisibility ensures every referenced step belongs to this plan and that
// event arguments come from earlier steps.
func (p *Planner) checkVisibility(s *Step) error {
	var values []Value
	values = append(values, s.call.args...)
	if s.target != nil {
		values = append(values, s.target)
	}
	for _, lib := range s.libraries {
		values = append(values, lib)
	}

	for _, v := range values {
		if err := p.checkValue(s, v); err != nil {
			return err
		}
	}
	return nil
}

func (p *Planner) checkValue(s *Step, v Value) error {
	for _, ref := range v.referencedSteps() {
		if ref.planner != p {
			return ErrForeignStep
		}
	}
	switch val := v.(type) {
	case *EventValue:
		if val.step.index >= s.index {
			return fmt.Errorf("%w: %s.%s from step %q", ErrEventNotVisible, val.event, val.field, val.step.name)
		}
		if !val.contract.HasEvent(val.event) {
			return &EventNotInABIError{Event: val.event}
		}
	case *EncodedValue:
		for _, arg := range val.call.args {
			if err := p.checkValue(s, arg); err != nil {
				return err
			}
		}
	}
	return nil
}

// Plan is a validated, immutable step sequence.
type Plan struct {
	steps   []*Step
	senders []common.Address
}

// Steps returns the steps in execution order.
func (p *Plan) Steps() []*Step {
	out := make([]*Step, len(p.steps))
	copy(out, p.steps)
	return out
}

// Senders returns the signing accounts in order of first use.
func (p *Plan) Senders() []common.Address {
	out := make([]common.Address, len(p.senders))
	copy(out, p.senders)
	return out
}

// Step returns the step with the given name, or nil.
func (p *Plan) Step(name string) *Step {
	for _, s := range p.steps {
		if s.name == name {
			return s
		}
	}
	return nil
}

// Predictions maps deployment steps to their future addresses.
type Predictions struct {
	nonces    map[*Step]uint64
	addresses map[*Step]common.Address
	order     []*Step
}

// Address returns the predicted address of a deployment.
func (p *Predictions) Address(s *Step) (common.Address, bool) {
	addr, ok := p.addresses[s]
	return addr, ok
}

// Nonce returns the nonce a step will be sent with.
func (p *Predictions) Nonce(s *Step) uint64 {
	return p.nonces[s]
}

// Book returns the predicted addresses keyed by step name, in plan order.
func (p *Predictions) Book() *AddressBook {
	book := NewAddressBook()
	for _, s := range p.order {
		book.Set(s.name, p.addresses[s])
	}
	return book
}

// PredictAddresses computes every step's nonce and every deployment's address
// from the senders' current nonces, without touching the chain.
func (p *Plan) PredictAddresses(base map[common.Address]uint64) (*Predictions, error) {
	for _, sender := range p.senders {
		if _, ok := base[sender]; !ok {
			return nil, fmt.Errorf("deploy: no base nonce for %s", sender.Hex())
		}
	}

	tracker := NewNonceTracker(base)
	pred := &Predictions{
		nonces:    make(map[*Step]uint64, len(p.steps)),
		addresses: make(map[*Step]common.Address),
	}
	for _, s := range p.steps {
		nonce := tracker.Next(s.sender)
		pred.nonces[s] = nonce
		if s.kind == StepDeploy {
			pred.addresses[s] = ComputeContractAddress(s.sender, nonce)
			pred.order = append(pred.order, s)
		}
	}
	return pred, nil
}

// staticResolver resolves only literals.
type staticResolver struct{}

var errNeedsExecution = errors.New("deploy: value only known during execution")

func (staticResolver) addressOf(*Step) (common.Address, error) {
	return common.Address{}, errNeedsExecution
}

func (staticResolver) receiptOf(*Step) (*types.Receipt, error) {
	return nil, errNeedsExecution
}

// predictionResolver resolves deployments to predicted addresses and event
// arguments from the receipts collected so far.
type predictionResolver struct {
	pred     *Predictions
	receipts map[*Step]*types.Receipt
}

func (r *predictionResolver) addressOf(s *Step) (common.Address, error) {
	addr, ok := r.pred.Address(s)
	if !ok {
		return common.Address{}, fmt.Errorf("deploy: step %q is not a deployment", s.name)
	}
	return addr, nil
}

func (r *predictionResolver) receiptOf(s *Step) (*types.Receipt, error) {
	receipt, ok := r.receipts[s]
	if !ok {
		return nil, fmt.Errorf("%w: step %q has not run", ErrEventNotVisible, s.name)
	}
	return receipt, nil
}

// value reports the wei sent with a step.
func (s *Step) value() *big.Int {
	if s.call == nil || s.call.value == nil {
		return nil
	}
	return s.call.value
}
