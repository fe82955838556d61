package models

// HTTP request and response bodies for the registry endpoints. Kept separate
// from the domain types so the wire format can evolve independently.

type MintRequest struct {
	Recipient string `json:"recipient"`
}

type MintResponse struct {
	TokenID uint64 `json:"token_id"`
}

type BatchMintRequest struct {
	Recipients []string `json:"recipients"`
}

type BatchMintResponse struct {
	TokenIDs []uint64 `json:"token_ids"`
}

type TransferRequest struct {
	To string `json:"to"`
}

type TokenResponse struct {
	TokenID uint64 `json:"token_id"`
	Owner   string `json:"owner"`
	URI     string `json:"uri"`
}

type TokenURIResponse struct {
	TokenID uint64 `json:"token_id"`
	URI     string `json:"uri"`
}

type SetTokenURIRequest struct {
	URI string `json:"uri"`
}

type OwnedTokensResponse struct {
	Owner    string   `json:"owner"`
	TokenIDs []uint64 `json:"token_ids"`
}

type SupplyResponse struct {
	TotalSupply uint64 `json:"total_supply"`
}

type CollectionResponse struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

type BaseURIRequest struct {
	BaseURI string `json:"base_uri"`
}

type BaseURIResponse struct {
	BaseURI string `json:"base_uri"`
}

type PausedRequest struct {
	Paused bool `json:"paused"`
}

type PausedResponse struct {
	Paused bool `json:"paused"`
}

type RoleChangeRequest struct {
	Role      string `json:"role"`
	Principal string `json:"principal"`
}

type RolesResponse struct {
	Principal string   `json:"principal"`
	Roles     []string `json:"roles"`
}
