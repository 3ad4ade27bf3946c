package rejig

// Revert reasons raised by the protocol contracts. Custom errors are listed
// by name, the way deploy.DecodeRevert reports them; the ERC721 entries are
// Error(string) messages.
const (
	ErrCannotInitImpl                 = "CannotInitImplementation"
	ErrInitialized                    = "Initialized"
	ErrSignatureExpired               = "SignatureExpired"
	ErrSignatureInvalid               = "SignatureInvalid"
	ErrNotOwnerOrApproved             = "NotOwnerOrApproved"
	ErrNotHub                         = "NotHub"
	ErrTokenDoesNotExist              = "TokenDoesNotExist"
	ErrNotGovernance                  = "NotGovernance"
	ErrNotGovernanceOrEmergencyAdmin  = "NotGovernanceOrEmergencyAdmin"
	ErrEmergencyAdminCannotUnpause    = "EmergencyAdminCannotUnpause"
	ErrNotProfileOwner                = "NotProfileOwner"
	ErrNotProfileOwnerOrDispatcher    = "NotProfileOwnerOrDispatcher"
	ErrPublicationDoesNotExist        = "PublicationDoesNotExist"
	ErrFollowInvalid                  = "FollowInvalid"
	ErrArrayMismatch                  = "ArrayMismatch"
	ErrHandleTaken                    = "HandleTaken"
	ErrInvalidHandleLength            = "HandleLengthInvalid"
	ErrInvalidImageURILength          = "ProfileImageURILengthInvalid"
	ErrHandleContainsInvalidCharacter = "HandleContainsInvalidCharacters"
	ErrHandleFirstCharacterInvalid    = "HandleFirstCharInvalid"
	ErrCannotCommentOnSelf            = "CannotCommentOnSelf"
	ErrNotFollowNFT                   = "CallerNotFollowNFT"
	ErrFollowNotApproved              = "FollowNotApproved"
	ErrInitParamsInvalid              = "InitParamsInvalid"
	ErrPublishingPaused               = "PublishingPaused"
	ErrPaused                         = "Paused"

	ErrERC721QueryForNonexistentToken = "ERC721: owner query for nonexistent token"
	ErrERC721TransferNotOwn           = "ERC721: transfer of token that is not own"
)
