package rejig

import (
	"errors"

	deploy "github.com/rejig-app/rejig-deploy"
)

// Address book roles, in the order they are written to addresses.json.
const (
	RoleHubProxy                    = "rejig proxy"
	RoleHubImpl                     = "rejig impl"
	RolePublishingLogic             = "publishing logic lib"
	RoleInteractionLogic            = "interaction logic lib"
	RoleProfileTokenURILogic        = "profile token URI logic lib"
	RolePostNFTTokenURILogic        = "post NFT token URI logic lib"
	RoleFollowNFTImpl               = "follow NFT impl"
	RoleTransactionNFTImpl          = "transaction NFT impl"
	RoleCurrency                    = "currency"
	RolePeriphery                   = "rejig periphery"
	RoleModuleGlobals               = "module globals"
	RoleFeeFollowModule             = "fee follow module"
	RoleProfileFollowModule         = "profile follow module"
	RoleApprovalFollowModule        = "approval follow module"
	RoleRevertFollowModule          = "revert follow module"
	RoleFollowerOnlyReferenceModule = "follower only reference module"
	RoleUIDataProvider              = "UI data provider"
	RoleProfileCreationProxy        = "Profile creation proxy"
	RoleVRFCoordinator              = "VRF coordinator"

	RoleHelper              = "helper"
	RoleEvents              = "events lib"
	RoleMockFollowModule    = "mock follow module"
	RoleMockReferenceModule = "mock reference module"
	RoleRejigERC20          = "rejig ERC20"
)

// Names of the transaction steps.
const (
	StepCreateSubscription = "create VRF subscription"
	StepAddConsumer        = "add VRF consumer"
	StepWhitelistCurrency  = "whitelist currency"
	StepUnpause            = "unpause protocol"
)

// AddressRoles is the order of the published address book.
var AddressRoles = []string{
	RoleHubProxy,
	RoleHubImpl,
	RolePublishingLogic,
	RoleInteractionLogic,
	RoleProfileTokenURILogic,
	RolePostNFTTokenURILogic,
	RoleFollowNFTImpl,
	RoleTransactionNFTImpl,
	RoleCurrency,
	RolePeriphery,
	RoleModuleGlobals,
	RoleFeeFollowModule,
	RoleProfileFollowModule,
	RoleApprovalFollowModule,
	RoleRevertFollowModule,
	RoleFollowerOnlyReferenceModule,
	RoleUIDataProvider,
	RoleProfileCreationProxy,
	RoleVRFCoordinator,
}

// Artifacts are the compiled contracts of the protocol.
type Artifacts struct {
	ModuleGlobals               *deploy.Artifact
	PublishingLogic             *deploy.Artifact
	InteractionLogic            *deploy.Artifact
	ProfileTokenURILogic        *deploy.Artifact
	PostNFTTokenURILogic        *deploy.Artifact
	VRFCoordinator              *deploy.Artifact
	Hub                         *deploy.Artifact
	FollowNFT                   *deploy.Artifact
	TransactionNFT              *deploy.Artifact
	Proxy                       *deploy.Artifact
	Periphery                   *deploy.Artifact
	Currency                    *deploy.Artifact
	FeeFollowModule             *deploy.Artifact
	ProfileFollowModule         *deploy.Artifact
	ApprovalFollowModule        *deploy.Artifact
	RevertFollowModule          *deploy.Artifact
	FollowerOnlyReferenceModule *deploy.Artifact
	UIDataProvider              *deploy.Artifact
	ProfileCreationProxy        *deploy.Artifact

	// Test-only contracts, loaded by LoadFixtureArtifacts.
	Helper              *deploy.Artifact
	Events              *deploy.Artifact
	MockFollowModule    *deploy.Artifact
	MockReferenceModule *deploy.Artifact
	RejigERC20          *deploy.Artifact
}

// binding pairs a compiled contract name with its slot.
type binding struct {
	name string
	slot **deploy.Artifact
}

func (a *Artifacts) protocol() []binding {
	return []binding{
		{"ModuleGlobals", &a.ModuleGlobals},
		{"PublishingLogic", &a.PublishingLogic},
		{"InteractionLogic", &a.InteractionLogic},
		{"ProfileTokenURILogic", &a.ProfileTokenURILogic},
		{"PostNFTTokenURILogic", &a.PostNFTTokenURILogic},
		{"VRFCoordinatorV2Mock", &a.VRFCoordinator},
		{"Rejig", &a.Hub},
		{"FollowNFT", &a.FollowNFT},
		{"TransactionNFT", &a.TransactionNFT},
		{"TransparentUpgradeableProxy", &a.Proxy},
		{"RejigPeriphery", &a.Periphery},
		{"Currency", &a.Currency},
		{"FeeFollowModule", &a.FeeFollowModule},
		{"ProfileFollowModule", &a.ProfileFollowModule},
		{"ApprovalFollowModule", &a.ApprovalFollowModule},
		{"RevertFollowModule", &a.RevertFollowModule},
		{"FollowerOnlyReferenceModule", &a.FollowerOnlyReferenceModule},
		{"UIDataProvider", &a.UIDataProvider},
		{"ProfileCreationProxy", &a.ProfileCreationProxy},
	}
}

func (a *Artifacts) fixture() []binding {
	return []binding{
		{"Helper", &a.Helper},
		{"Events", &a.Events},
		{"MockFollowModule", &a.MockFollowModule},
		{"MockReferenceModule", &a.MockReferenceModule},
		{"RejigERC20", &a.RejigERC20},
	}
}

// LoadArtifacts picks the protocol contracts out of store.
func LoadArtifacts(store *deploy.ArtifactStore) (*Artifacts, error) {
	a := &Artifacts{}
	if err := a.load(store, a.protocol()); err != nil {
		return nil, err
	}
	return a, nil
}

// LoadFixtureArtifacts picks the protocol and the test-only contracts out of store.
func LoadFixtureArtifacts(store *deploy.ArtifactStore) (*Artifacts, error) {
	a := &Artifacts{}
	if err := a.load(store, append(a.protocol(), a.fixture()...)); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Artifacts) load(store *deploy.ArtifactStore, bindings []binding) error {
	var errs []error
	for _, b := range bindings {
		art, err := store.Get(b.name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		*b.slot = art
	}
	return errors.Join(errs...)
}

// ABIs returns the raw ABI of every deployed role for the front-end ABI file.
func (a *Artifacts) ABIs() *deploy.ABIBook {
	book := deploy.NewABIBook()
	byRole := map[string]*deploy.Artifact{
		RoleHubProxy:                    a.Hub,
		RoleHubImpl:                     a.Hub,
		RolePublishingLogic:             a.PublishingLogic,
		RoleInteractionLogic:            a.InteractionLogic,
		RoleProfileTokenURILogic:        a.ProfileTokenURILogic,
		RolePostNFTTokenURILogic:        a.PostNFTTokenURILogic,
		RoleFollowNFTImpl:               a.FollowNFT,
		RoleTransactionNFTImpl:          a.TransactionNFT,
		RoleCurrency:                    a.Currency,
		RolePeriphery:                   a.Periphery,
		RoleModuleGlobals:               a.ModuleGlobals,
		RoleFeeFollowModule:             a.FeeFollowModule,
		RoleProfileFollowModule:         a.ProfileFollowModule,
		RoleApprovalFollowModule:        a.ApprovalFollowModule,
		RoleRevertFollowModule:          a.RevertFollowModule,
		RoleFollowerOnlyReferenceModule: a.FollowerOnlyReferenceModule,
		RoleUIDataProvider:              a.UIDataProvider,
		RoleProfileCreationProxy:        a.ProfileCreationProxy,
		RoleVRFCoordinator:              a.VRFCoordinator,
	}
	for _, role := range AddressRoles {
		if art := byRole[role]; art != nil {
			book.Set(role, art.RawABI)
		}
	}
	return book
}
