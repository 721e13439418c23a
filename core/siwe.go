package core

import "time"

// SiweMessage is a Sign-In With Ethereum challenge message. It is created
// by the session initiator, signed by the wallet, and never mutated.
type SiweMessage struct {
	Domain         string     `json:"domain"`
	Address        string     `json:"address"`
	Statement      string     `json:"statement"`
	URI            string     `json:"uri"`
	Version        string     `json:"version"`
	ChainID        int        `json:"chainId"`
	Nonce          string     `json:"nonce"`
	IssuedAt       time.Time  `json:"issuedAt"`
	ExpirationTime *time.Time `json:"expirationTime,omitempty"`
	Resources      []string   `json:"resources,omitempty"`
}

// SiweSession pairs a message with the signature the wallet produced over
// its canonical formatted string. The session is client-held; the server
// re-verifies it on each sensitive call.
type SiweSession struct {
	Message   SiweMessage `json:"message"`
	Signature string      `json:"signature"`
	// Signed is the exact canonical string that was signed, byte for byte.
	// Re-derivable from Message via siwe.FormatMessage.
	Signed string `json:"signed"`
}

// Session is an authenticated bearer session issued after a successful
// SIWE login. Access and refresh expiries are carried in the tokens.
type Session struct {
	ID            string
	Address       string
	IssuedAt      time.Time
	AccessExpiry  time.Time
	RefreshExpiry time.Time
	RefreshID     string
}
