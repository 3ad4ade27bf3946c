package rejig

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	deploy "github.com/rejig-app/rejig-deploy"
)

// Accounts are the roles the deployment sends from or hands control to.
type Accounts struct {
	Deployer       common.Address
	Governance     common.Address
	Treasury       common.Address
	ProxyAdmin     common.Address
	ProfileCreator common.Address
}

// DeployAccounts assigns the deployment roles from the first three keyring
// accounts: deployer, governance and treasury. The deployer also administers
// the proxy and owns the profile creation proxy.
func DeployAccounts(k *deploy.Keyring) (Accounts, error) {
	if n := len(k.Accounts()); n < 3 {
		return Accounts{}, fmt.Errorf("rejig: deployment needs 3 accounts, keyring has %d", n)
	}
	deployer := k.Account(0)
	return Accounts{
		Deployer:       deployer,
		Governance:     k.Account(1),
		Treasury:       k.Account(2),
		ProxyAdmin:     deployer,
		ProfileCreator: deployer,
	}, nil
}

// FixtureAccounts are the signers of the test fixture.
type FixtureAccounts struct {
	Deployer   common.Address
	User       common.Address
	UserTwo    common.Address
	Governance common.Address
	// UserThree doubles as the treasury.
	UserThree common.Address
}

// Treasury returns the account receiving treasury fees.
func (a FixtureAccounts) Treasury() common.Address {
	return a.UserThree
}

// NewFixtureAccounts assigns the fixture roles from the first five keyring accounts.
func NewFixtureAccounts(k *deploy.Keyring) (FixtureAccounts, error) {
	if n := len(k.Accounts()); n < 5 {
		return FixtureAccounts{}, fmt.Errorf("rejig: fixture needs 5 accounts, keyring has %d", n)
	}
	return FixtureAccounts{
		Deployer:   k.Account(0),
		User:       k.Account(1),
		UserTwo:    k.Account(2),
		Governance: k.Account(3),
		UserThree:  k.Account(4),
	}, nil
}
