// Package conceal implements the encryption primitives behind concealed record fields.
//
// Overview:
//   - A gateway key pair on BLS12-377 plays the role of the decryption service
//   - Encrypt masks a value with a MiMC chain keyed by a Diffie-Hellman shared secret
//     and commits to it; the ciphertext is addressed by a handle bound to the contract
//   - Input proofs bind a handle to the (contract, user) pair that submitted it
//   - Disclosure decrypts a handle and proves with Groth16 (BW6-761) that the clear
//     value opens the on-chain commitment
//
// Security Model:
//   - MiMC (BW6-761 scalar field) for masks, commitments and handles
//   - BLS12-377 G1 for the key exchange; its base field is the BW6-761 scalar field,
//     so point coordinates feed MiMC directly
//   - All randomness comes from crypto/rand through gnark-crypto SetRandom
//
// WARNING: the masking scheme is not homomorphic. It stands in for an FHE
// coprocessor so the record lifecycle can run end to end.
package conceal
