// Package deploy plans and runs ordered EVM contract deployments and provides
// the receipt, revert, and dev-chain helpers used by the Rejig test harness.
//
// A deployment is a fixed sequence of contract creations and calls. Contract
// addresses are a pure function of the sender and its nonce, so a plan can
// hand out addresses of contracts that are not deployed yet. This resolves
// constructor cycles such as a hub proxy that must know its NFT
// implementations while the implementations must know the proxy.
//
// # Basic Usage
//
//	store, err := deploy.LoadArtifacts(ctx, "artifacts")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	planner := deploy.New()
//	globals := planner.Deploy("module globals", deployer, store.MustGet("ModuleGlobals"),
//	    governance, treasury, big.NewInt(50))
//	planner.Transact("whitelist currency", governance, globals,
//	    globals.Contract().MustInvoke("whitelistCurrency", currency, true))
//
//	plan, err := planner.Plan()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := deploy.NewExecutor(backend, keyring).Run(ctx, plan)
//
// # Values
//
// Step arguments can be:
//
//   - Literals: Go values packed with the ABI type of the parameter.
//
//   - Deployments: the *Deployment returned by Planner.Deploy, resolved to
//     the predicted address. Forward references are allowed.
//
//   - Event arguments: a field of an event emitted by an earlier step,
//     resolved from that step's receipt (EventArg).
//
//   - Encoded calls: ABI calldata built from other values (Encode), for
//     proxy initializer data.
//
// A Transact target is any address value. The ABI used for the call is the
// one of the Call's Contract, so the hub ABI can be used at the proxy address.
//
// # Address Prediction
//
// A contract created by account A with nonce n lives at
// keccak256(rlp([A, n]))[12:]. Plan assigns every step a nonce offset per
// sender and PredictAddresses turns base nonces into addresses. The executor
// re-checks every prediction against the receipt.
//
// # Test Harness
//
// FindEvent and MatchEvent assert on receipt logs, DecodeRevert and
// ExpectRevert consume revert reasons, DevNode drives evm_snapshot and
// friends, and CleanRoom isolates a test between snapshot and revert.
package deploy
