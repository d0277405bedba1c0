package conceal

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"
)

// CommitmentCircuit proves knowledge of the salt opening a commitment to a
// public clear value: Commitment = MiMC(Value, Salt), Value < 2^64.
type CommitmentCircuit struct {
	// Public
	Value      frontend.Variable `gnark:",public"`
	Commitment frontend.Variable `gnark:",public"`

	// Private
	Salt frontend.Variable
}

func (c *CommitmentCircuit) Define(api frontend.API) error {
	api.ToBinary(c.Value, 64)

	hasher, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}
	hasher.Write(c.Value)
	hasher.Write(c.Salt)
	api.AssertIsEqual(c.Commitment, hasher.Sum())
	return nil
}
