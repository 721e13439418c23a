package core

import "time"

// Proof is the durable attestation binding a wallet to a finalized
// artifact. At most one proof exists per (CampaignID, UserAddress) pair;
// the store enforces this with a uniqueness constraint. Proofs are
// immutable once created.
type Proof struct {
	ProofID           string    `json:"proofId"`
	CampaignID        string    `json:"campaignId"`
	UserAddress       string    `json:"userAddress"`
	CampaignHash      string    `json:"campaignHash"`
	IntentFingerprint string    `json:"intentFingerprint"`
	IntentCategory    string    `json:"intentCategory"`
	TargetDApps       []string  `json:"targetDApps"`
	ActionOrder       []string  `json:"actionOrder"`
	TxHash            string    `json:"txHash,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

// ProofStats is the aggregate view over recorded proofs. UserProofs is
// populated only when the query was scoped to a user address.
type ProofStats struct {
	TotalProofs int64  `json:"totalProofs"`
	UniqueUsers int64  `json:"uniqueUsers"`
	UserProofs  *int64 `json:"userProofs,omitempty"`
}
