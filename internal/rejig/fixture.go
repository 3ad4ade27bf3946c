package rejig

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	deploy "github.com/rejig-app/rejig-deploy"
)

// FixturePlan lays out the graph the protocol tests run against. It differs
// from the production deployment in its accounts, the hard-coded VRF
// subscription and the extra test-only contracts.
func FixturePlan(a *Artifacts, acc FixtureAccounts) (*deploy.Plan, error) {
	b := newBuilder()
	p := b.p
	deployer := acc.Deployer

	p.Deploy(RoleHelper, deployer, a.Helper)
	globals := p.Deploy(RoleModuleGlobals, deployer, a.ModuleGlobals, acc.Governance, acc.Treasury(), TreasuryFeeBPS)
	libs := b.libraries(a, deployer)
	vrf := p.Deploy(RoleVRFCoordinator, deployer, a.VRFCoordinator, BaseFee, GasPriceLink)

	hubProxy := p.Future(RoleHubProxy)
	followNFT := p.Deploy(RoleFollowNFTImpl, deployer, a.FollowNFT, hubProxy)
	txNFT := p.Deploy(RoleTransactionNFTImpl, deployer, a.TransactionNFT, hubProxy)
	impl := p.Deploy(RoleHubImpl, deployer, a.Hub,
		vrf, FixtureSubscriptionID, GasLane, CallbackGasLimit, followNFT, txNFT,
	).Link(libs)

	hub := b.contract(a.Hub, "Rejig")
	initData := b.invoke(hub, "initialize", FixtureNFTName, FixtureNFTSymbol, acc.Governance)
	p.Deploy(RoleHubProxy, deployer, a.Proxy, impl, deployer, b.encode(initData))

	p.Deploy(RolePeriphery, deployer, a.Periphery, hubProxy)
	p.Deploy(RoleCurrency, deployer, a.Currency)
	p.Deploy(RoleFeeFollowModule, deployer, a.FeeFollowModule, hubProxy, globals)
	p.Deploy(RoleProfileFollowModule, deployer, a.ProfileFollowModule, hubProxy)
	p.Deploy(RoleApprovalFollowModule, deployer, a.ApprovalFollowModule, hubProxy)
	p.Deploy(RoleRevertFollowModule, deployer, a.RevertFollowModule, hubProxy)
	p.Deploy(RoleFollowerOnlyReferenceModule, deployer, a.FollowerOnlyReferenceModule, hubProxy)
	p.Deploy(RoleMockFollowModule, deployer, a.MockFollowModule)
	p.Deploy(RoleMockReferenceModule, deployer, a.MockReferenceModule)

	p.Transact(StepUnpause, acc.Governance, hubProxy, b.invoke(hub, "setState", uint8(Unpaused)))

	// Only the tests need the events library.
	p.Deploy(RoleEvents, deployer, a.Events)
	p.Deploy(RoleRejigERC20, acc.User, a.RejigERC20, hubProxy, RejigERC20Supply)

	return b.plan()
}

// Fixture is a deployed test environment.
type Fixture struct {
	Accounts FixtureAccounts
	Result   *deploy.Result
	// Hub is the hub ABI bound at the proxy address.
	Hub *Hub

	artifacts *Artifacts
	backend   deploy.Backend
}

// DeployFixture deploys the test fixture, signing with the first five
// keyring accounts.
func DeployFixture(ctx context.Context, backend deploy.Backend, keyring *deploy.Keyring, a *Artifacts, opts ...deploy.ExecutorOption) (*Fixture, error) {
	acc, err := NewFixtureAccounts(keyring)
	if err != nil {
		return nil, err
	}
	plan, err := FixturePlan(a, acc)
	if err != nil {
		return nil, fmt.Errorf("rejig: plan fixture: %w", err)
	}
	res, err := deploy.NewExecutor(backend, keyring, opts...).Run(ctx, plan)
	if err != nil {
		return nil, err
	}
	return &Fixture{
		Accounts:  acc,
		Result:    res,
		Hub:       NewHub(res.MustAddress(RoleHubProxy), a.Hub.ABI, backend),
		artifacts: a,
		backend:   backend,
	}, nil
}

// Address returns the address of a fixture role.
func (f *Fixture) Address(role string) common.Address {
	return f.Result.MustAddress(role)
}

// FollowNFT binds the follow NFT ABI at addr, as returned by Hub.GetFollowNFT.
func (f *Fixture) FollowNFT(addr common.Address) *NFT {
	return NewNFT(addr, f.artifacts.FollowNFT.ABI, f.backend)
}
