package rejig

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	deploy "github.com/rejig-app/rejig-deploy"
)

// builder collects call construction errors next to the planner's own.
type builder struct {
	p    *deploy.Planner
	errs []error
}

func newBuilder() *builder {
	return &builder{p: deploy.New()}
}

func (b *builder) invoke(c *deploy.Contract, method string, args ...any) *deploy.Call {
	call, err := c.Invoke(method, args...)
	if err != nil {
		b.errs = append(b.errs, err)
		return nil
	}
	return call
}

// contract returns the ABI wrapper of a possibly missing artifact.
func (b *builder) contract(a *deploy.Artifact, name string) *deploy.Contract {
	if a == nil {
		b.errs = append(b.errs, fmt.Errorf("rejig: no artifact for %s", name))
		return deploy.NewContract(name, deploy.MustParseABI("[]"))
	}
	return a.Contract()
}

// encode returns the calldata of call as a bytes argument.
func (b *builder) encode(call *deploy.Call) any {
	if call == nil {
		return []byte{}
	}
	return deploy.Encode(call)
}

// libraries deploys the four hub libraries from sender and returns them keyed
// by fully qualified name, ready for Link.
func (b *builder) libraries(a *Artifacts, sender common.Address) map[string]any {
	return map[string]any{
		PublishingLogicLib:      b.p.Deploy(RolePublishingLogic, sender, a.PublishingLogic),
		InteractionLogicLib:     b.p.Deploy(RoleInteractionLogic, sender, a.InteractionLogic),
		ProfileTokenURILogicLib: b.p.Deploy(RoleProfileTokenURILogic, sender, a.ProfileTokenURILogic),
		PostNFTTokenURILogicLib: b.p.Deploy(RolePostNFTTokenURILogic, sender, a.PostNFTTokenURILogic),
	}
}

func (b *builder) plan() (*deploy.Plan, error) {
	plan, err := b.p.Plan()
	if err != nil || len(b.errs) > 0 {
		return nil, errors.Join(append(b.errs, err)...)
	}
	return plan, nil
}

// DeployOption configures FullDeployPlan.
type DeployOption func(*deploySettings)

type deploySettings struct {
	unpause bool
}

// WithUnpause appends a governance setState(Unpaused) step. Without it the hub
// is left in the state initialize puts it in.
func WithUnpause() DeployOption {
	return func(s *deploySettings) {
		s.unpause = true
	}
}

// FullDeployPlan lays out the production deployment: module globals, the hub
// libraries, the VRF coordinator and its subscription, the hub implementation
// behind a transparent proxy, the periphery and every module, followed by the
// governance currency whitelist.
func FullDeployPlan(a *Artifacts, acc Accounts, opts ...DeployOption) (*deploy.Plan, error) {
	var settings deploySettings
	for _, opt := range opts {
		opt(&settings)
	}

	b := newBuilder()
	p := b.p
	deployer := acc.Deployer

	globals := p.Deploy(RoleModuleGlobals, deployer, a.ModuleGlobals, acc.Governance, acc.Treasury, TreasuryFeeBPS)
	libs := b.libraries(a, deployer)

	vrfContract := b.contract(a.VRFCoordinator, "VRFCoordinatorV2Mock")
	vrf := p.Deploy(RoleVRFCoordinator, deployer, a.VRFCoordinator, BaseFee, GasPriceLink)
	createSub := p.Transact(StepCreateSubscription, deployer, vrf, b.invoke(vrfContract, "createSubscription"))
	subID := p.EventArg(createSub, vrfContract, "SubscriptionCreated", "subId")

	followNFT := p.Future(RoleFollowNFTImpl)
	txNFT := p.Future(RoleTransactionNFTImpl)
	hubProxy := p.Future(RoleHubProxy)

	impl := p.Deploy(RoleHubImpl, deployer, a.Hub,
		vrf, subID, GasLane, CallbackGasLimit, followNFT, txNFT,
	).Link(libs)
	p.Transact(StepAddConsumer, deployer, vrf, b.invoke(vrfContract, "addConsumer", subID, impl))

	p.Deploy(RoleFollowNFTImpl, deployer, a.FollowNFT, hubProxy)
	p.Deploy(RoleTransactionNFTImpl, deployer, a.TransactionNFT, hubProxy)

	hub := b.contract(a.Hub, "Rejig")
	initData := b.invoke(hub, "initialize", DeployNFTName, DeployNFTSymbol, acc.Governance)
	p.Deploy(RoleHubProxy, deployer, a.Proxy, impl, acc.ProxyAdmin, b.encode(initData))

	p.Deploy(RolePeriphery, deployer, a.Periphery, hubProxy)
	currency := p.Deploy(RoleCurrency, deployer, a.Currency)
	p.Deploy(RoleFeeFollowModule, deployer, a.FeeFollowModule, hubProxy, globals)
	p.Deploy(RoleProfileFollowModule, deployer, a.ProfileFollowModule, hubProxy)
	p.Deploy(RoleApprovalFollowModule, deployer, a.ApprovalFollowModule, hubProxy)
	p.Deploy(RoleRevertFollowModule, deployer, a.RevertFollowModule, hubProxy)
	p.Deploy(RoleFollowerOnlyReferenceModule, deployer, a.FollowerOnlyReferenceModule, hubProxy)
	p.Deploy(RoleUIDataProvider, deployer, a.UIDataProvider, hubProxy)
	p.Deploy(RoleProfileCreationProxy, deployer, a.ProfileCreationProxy, acc.ProfileCreator, hubProxy)

	globalsContract := b.contract(a.ModuleGlobals, "ModuleGlobals")
	p.Transact(StepWhitelistCurrency, acc.Governance, globals, b.invoke(globalsContract, "whitelistCurrency", currency, true))
	if settings.unpause {
		p.Transact(StepUnpause, acc.Governance, hubProxy, b.invoke(hub, "setState", uint8(Unpaused)))
	}

	return b.plan()
}

// FullDeploy runs the production deployment against backend, signing with the
// first three keyring accounts.
func FullDeploy(ctx context.Context, backend deploy.Backend, keyring *deploy.Keyring, a *Artifacts, planOpts []DeployOption, opts ...deploy.ExecutorOption) (*deploy.Result, error) {
	acc, err := DeployAccounts(keyring)
	if err != nil {
		return nil, err
	}
	plan, err := FullDeployPlan(a, acc, planOpts...)
	if err != nil {
		return nil, fmt.Errorf("rejig: plan deployment: %w", err)
	}
	return deploy.NewExecutor(backend, keyring, opts...).Run(ctx, plan)
}

// Addresses returns the deployed protocol addresses in publication order.
func Addresses(res *deploy.Result) *deploy.AddressBook {
	book := deploy.NewAddressBook()
	for _, role := range AddressRoles {
		if addr, ok := res.Address(role); ok {
			book.Set(role, addr)
		}
	}
	return book
}
