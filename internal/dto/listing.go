package dto

// ==================== Listing DTOs ====================

// CreateListingRequest is the seller-facing listing submission body.
// verificationId is optional; one is generated when absent.
type CreateListingRequest struct {
	Address        string `json:"address" binding:"required"` // seller wallet address
	VerificationID string `json:"verificationId"`
	AssetType      string `json:"assetType" binding:"required"`
	AssetName      string `json:"assetName" binding:"required"`
	GameTitle      string `json:"gameTitle" binding:"required"`
	Price          string `json:"price" binding:"required"` // major units, decimal string
}

// CreateListingResponse reports the terminal outcome of one submission.
type CreateListingResponse struct {
	Success        bool   `json:"success"`
	VerificationID string `json:"verificationId"`
	TransactionID  string `json:"transactionId,omitempty"`
	RiskLevel      string `json:"riskLevel,omitempty"`
	Error          string `json:"error,omitempty"`
	Code           string `json:"code,omitempty"`
}

// WalletAnalyzeRequest asks for a risk assessment of one address.
type WalletAnalyzeRequest struct {
	Address string `json:"address" binding:"required"`
}

// BulkAnalyzeRequest asks for risk assessments of up to 100 addresses.
type BulkAnalyzeRequest struct {
	Addresses []string `json:"addresses" binding:"required"`
}
