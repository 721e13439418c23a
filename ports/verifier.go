package ports

// SignatureVerifier is the external signature-recovery primitive: it
// reports whether signature over message was produced by the private key
// controlling address. Implementations do not interpret the message.
type SignatureVerifier interface {
	Verify(message, signature, address string) (bool, error)
}
