package conceal

import "errors"

var (
	ErrMalformedCiphertext    = errors.New("malformed ciphertext")
	ErrHandleScope            = errors.New("handle is not bound to this contract")
	ErrInvalidInputProof      = errors.New("input proof does not match contract and user")
	ErrIntegrity              = errors.New("ciphertext integrity check failed")
	ErrInvalidDisclosureProof = errors.New("invalid disclosure proof")
	ErrMalformedClearValues   = errors.New("malformed clear values")
)
