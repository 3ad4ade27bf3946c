package rejig

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	deploy "github.com/rejig-app/rejig-deploy"
)

// NFT is a read-only view of an ERC721 collection: the hub's profiles or a
// profile's follow NFT.
type NFT struct {
	address  common.Address
	abi      abi.ABI
	backend  deploy.Backend
	contract *bind.BoundContract
}

// NewNFT binds contractABI at addr.
func NewNFT(addr common.Address, contractABI abi.ABI, backend deploy.Backend) *NFT {
	return &NFT{
		address:  addr,
		abi:      contractABI,
		backend:  backend,
		contract: bind.NewBoundContract(addr, contractABI, backend, backend, backend),
	}
}

// Address returns the collection address.
func (n *NFT) Address() common.Address {
	return n.address
}

// call runs a view method and returns its single result. Reverts come back
// as *deploy.RevertError.
func (n *NFT) call(ctx context.Context, method string, args ...any) (any, error) {
	var out []any
	if err := n.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		if rev, ok := deploy.RevertFromError(err, n.abi); ok {
			return nil, rev
		}
		return nil, fmt.Errorf("rejig: %s: %w", method, err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("rejig: %s returned %d values", method, len(out))
	}
	return out[0], nil
}

func (n *NFT) callString(ctx context.Context, method string, args ...any) (string, error) {
	v, err := n.call(ctx, method, args...)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("rejig: %s returned %T", method, v)
	}
	return s, nil
}

func (n *NFT) callAddress(ctx context.Context, method string, args ...any) (common.Address, error) {
	v, err := n.call(ctx, method, args...)
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := v.(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("rejig: %s returned %T", method, v)
	}
	return addr, nil
}

func (n *NFT) callUint(ctx context.Context, method string, args ...any) (*big.Int, error) {
	v, err := n.call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	i, ok := v.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("rejig: %s returned %T", method, v)
	}
	return i, nil
}

// Name returns the collection name.
func (n *NFT) Name(ctx context.Context) (string, error) {
	return n.callString(ctx, "name")
}

// Symbol returns the collection symbol.
func (n *NFT) Symbol(ctx context.Context) (string, error) {
	return n.callString(ctx, "symbol")
}

// OwnerOf returns the owner of a token.
func (n *NFT) OwnerOf(ctx context.Context, tokenID *big.Int) (common.Address, error) {
	return n.callAddress(ctx, "ownerOf", tokenID)
}

// BalanceOf returns how many tokens owner holds.
func (n *NFT) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	return n.callUint(ctx, "balanceOf", owner)
}

// TokenOfOwnerByIndex returns the index-th token of owner.
func (n *NFT) TokenOfOwnerByIndex(ctx context.Context, owner common.Address, index *big.Int) (*big.Int, error) {
	return n.callUint(ctx, "tokenOfOwnerByIndex", owner, index)
}

// TokenURI returns the raw token URI.
func (n *NFT) TokenURI(ctx context.Context, tokenID *big.Int) (string, error) {
	return n.callString(ctx, "tokenURI", tokenID)
}

// Metadata fetches and decodes the on-chain JSON metadata of a token.
func (n *NFT) Metadata(ctx context.Context, tokenID *big.Int) (*deploy.TokenURIMetadata, error) {
	uri, err := n.TokenURI(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	return deploy.DecodeTokenURIMetadata(uri)
}

// Burn burns a token held by the signer.
func (n *NFT) Burn(ctx context.Context, opts *bind.TransactOpts, tokenID *big.Int) (*types.Receipt, error) {
	return deploy.Transact(ctx, n.backend, opts, n.address, n.abi, "burn", tokenID)
}

// CreateProfileData is the createProfile argument struct. Field names follow
// the Solidity struct so the ABI packer can map them.
type CreateProfileData struct {
	To                   common.Address
	Handle               string
	ImageURI             string
	FollowModule         common.Address
	FollowModuleInitData []byte
	FollowNFTURI         string
	TransactionModule    common.Address
	TransactionNFTURI    string
}

// PostData is the post argument struct. As with CreateProfileData, the field
// names follow the Solidity struct.
type PostData struct {
	ProfileId               *big.Int
	ContentURI              string
	ReferenceModule         common.Address
	ReferenceModuleInitData []byte
}

// CommentData is the comment argument struct.
type CommentData struct {
	ProfileId               *big.Int
	ContentURI              string
	ProfileIdPointed        *big.Int
	PubIdPointed            *big.Int
	ReferenceModuleData     []byte
	ReferenceModule         common.Address
	ReferenceModuleInitData []byte
}

// MirrorData is the mirror argument struct.
type MirrorData struct {
	ProfileId               *big.Int
	ProfileIdPointed        *big.Int
	PubIdPointed            *big.Int
	ReferenceModuleData     []byte
	ReferenceModule         common.Address
	ReferenceModuleInitData []byte
}

// Hub is the Rejig hub, usually bound at the proxy address.
type Hub struct {
	*NFT
}

// NewHub binds the hub ABI at addr.
func NewHub(addr common.Address, hubABI abi.ABI, backend deploy.Backend) *Hub {
	return &Hub{NFT: NewNFT(addr, hubABI, backend)}
}

func (h *Hub) transact(ctx context.Context, opts *bind.TransactOpts, method string, args ...any) (*types.Receipt, error) {
	return deploy.Transact(ctx, h.backend, opts, h.address, h.abi, method, args...)
}

// SetState moves the protocol to state. Only governance and the emergency
// admin may call it.
func (h *Hub) SetState(ctx context.Context, opts *bind.TransactOpts, state ProtocolState) (*types.Receipt, error) {
	return h.transact(ctx, opts, "setState", uint8(state))
}

// GetState returns the current protocol state.
func (h *Hub) GetState(ctx context.Context) (ProtocolState, error) {
	v, err := h.call(ctx, "getState")
	if err != nil {
		return 0, err
	}
	s, ok := v.(uint8)
	if !ok {
		return 0, fmt.Errorf("rejig: getState returned %T", v)
	}
	return ProtocolState(s), nil
}

// SetGovernance hands governance to addr.
func (h *Hub) SetGovernance(ctx context.Context, opts *bind.TransactOpts, addr common.Address) (*types.Receipt, error) {
	return h.transact(ctx, opts, "setGovernance", addr)
}

// SetEmergencyAdmin sets the account allowed to pause the protocol.
func (h *Hub) SetEmergencyAdmin(ctx context.Context, opts *bind.TransactOpts, addr common.Address) (*types.Receipt, error) {
	return h.transact(ctx, opts, "setEmergencyAdmin", addr)
}

// CreateProfile mints a profile to data.To.
func (h *Hub) CreateProfile(ctx context.Context, opts *bind.TransactOpts, data CreateProfileData) (*types.Receipt, error) {
	return h.transact(ctx, opts, "createProfile", data)
}

// Follow follows each profile, passing the matching follow module data.
func (h *Hub) Follow(ctx context.Context, opts *bind.TransactOpts, profileIDs []*big.Int, datas [][]byte) (*types.Receipt, error) {
	return h.transact(ctx, opts, "follow", profileIDs, datas)
}

// Post publishes a post.
func (h *Hub) Post(ctx context.Context, opts *bind.TransactOpts, data PostData) (*types.Receipt, error) {
	return h.transact(ctx, opts, "post", data)
}

// Comment publishes a comment on another publication.
func (h *Hub) Comment(ctx context.Context, opts *bind.TransactOpts, data CommentData) (*types.Receipt, error) {
	return h.transact(ctx, opts, "comment", data)
}

// Mirror publishes a mirror of another publication.
func (h *Hub) Mirror(ctx context.Context, opts *bind.TransactOpts, data MirrorData) (*types.Receipt, error) {
	return h.transact(ctx, opts, "mirror", data)
}

// The Returning helpers dry-run the call as opts.From to read its return
// value, then send it. Nothing is sent when the dry run reverts.

// CreateProfileReturningTokenID creates a profile and returns its id.
func (h *Hub) CreateProfileReturningTokenID(ctx context.Context, opts *bind.TransactOpts, data CreateProfileData) (*big.Int, error) {
	return h.returningTokenID(ctx, opts, "createProfile", data)
}

// FollowReturningTokenIDs follows the profiles and returns the follow NFT
// token ids minted, one per profile.
func (h *Hub) FollowReturningTokenIDs(ctx context.Context, opts *bind.TransactOpts, profileIDs []*big.Int, datas [][]byte) ([]*big.Int, error) {
	v, err := h.callFrom(ctx, opts, "follow", profileIDs, datas)
	if err != nil {
		return nil, err
	}
	ids, ok := v.([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("rejig: follow returned %T", v)
	}
	if _, err := h.transact(ctx, opts, "follow", profileIDs, datas); err != nil {
		return nil, err
	}
	return ids, nil
}

// PostReturningTokenID posts and returns the publication id.
func (h *Hub) PostReturningTokenID(ctx context.Context, opts *bind.TransactOpts, data PostData) (*big.Int, error) {
	return h.returningTokenID(ctx, opts, "post", data)
}

// CommentReturningTokenID comments and returns the publication id.
func (h *Hub) CommentReturningTokenID(ctx context.Context, opts *bind.TransactOpts, data CommentData) (*big.Int, error) {
	return h.returningTokenID(ctx, opts, "comment", data)
}

// MirrorReturningTokenID mirrors and returns the publication id.
func (h *Hub) MirrorReturningTokenID(ctx context.Context, opts *bind.TransactOpts, data MirrorData) (*big.Int, error) {
	return h.returningTokenID(ctx, opts, "mirror", data)
}

func (h *Hub) returningTokenID(ctx context.Context, opts *bind.TransactOpts, method string, args ...any) (*big.Int, error) {
	v, err := h.callFrom(ctx, opts, method, args...)
	if err != nil {
		return nil, err
	}
	id, ok := v.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("rejig: %s returned %T", method, v)
	}
	if _, err := h.transact(ctx, opts, method, args...); err != nil {
		return nil, err
	}
	return id, nil
}

// callFrom runs a state-changing method as an eth_call from the signer and
// returns its single result.
func (h *Hub) callFrom(ctx context.Context, opts *bind.TransactOpts, method string, args ...any) (any, error) {
	var out []any
	callOpts := &bind.CallOpts{Context: ctx, From: opts.From}
	if err := h.contract.Call(callOpts, &out, method, args...); err != nil {
		if rev, ok := deploy.RevertFromError(err, h.abi); ok {
			return nil, rev
		}
		return nil, fmt.Errorf("rejig: %s: %w", method, err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("rejig: %s returned %d values", method, len(out))
	}
	return out[0], nil
}

// GetFollowNFT returns the follow NFT of a profile, zero before its first follow.
func (h *Hub) GetFollowNFT(ctx context.Context, profileID *big.Int) (common.Address, error) {
	return h.callAddress(ctx, "getFollowNFT", profileID)
}

// GetFollowNFTImpl returns the implementation follow NFTs are cloned from.
func (h *Hub) GetFollowNFTImpl(ctx context.Context) (common.Address, error) {
	return h.callAddress(ctx, "getFollowNFTImpl")
}
