package core

import (
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// Field separator for multi-field digests, so ("ab","c") and ("a","bc")
// never collide.
const hashSep = "\x00"

func digest(fields ...string) string {
	return crypto.Keccak256Hash([]byte(strings.Join(fields, hashSep))).Hex()
}

// CaptionHash returns the content-addressed digest of a caption.
func CaptionHash(caption string) string {
	return digest(caption)
}

// ArtifactHash returns the digest that freezes an artifact's content at
// finalization.
func ArtifactHash(caption, imageRef string) string {
	return digest(caption, imageRef)
}

// CampaignHash binds an artifact's content hash to a claiming wallet.
// Addresses are lowercased so case variants of one wallet hash identically.
func CampaignHash(campaignID, userAddress, captionHash string) string {
	return digest(campaignID, strings.ToLower(userAddress), captionHash)
}
