package password

import (
	"github.com/alexedwards/argon2id"
)

var policy = LoadParamsFromEnv()

// Hash produces a PHC-encoded argon2id hash under the current policy.
func Hash(plain string) (string, error) {
	return argon2id.CreateHash(plain, &argon2id.Params{
		Memory:      policy.Memory,
		Iterations:  policy.Iterations,
		Parallelism: policy.Parallelism,
		SaltLength:  policy.SaltLength,
		KeyLength:   policy.KeyLength,
	})
}

// Verify reports whether plain matches phc. needsRehash is true when the
// stored hash was made under weaker parameters than the current policy, so
// callers can upgrade it on successful login.
func Verify(plain, phc string) (ok bool, needsRehash bool, err error) {
	ok, err = argon2id.ComparePasswordAndHash(plain, phc)
	if err != nil || !ok {
		return ok, false, err
	}
	return true, NeedsRehash(phc), nil
}

// NeedsRehash reports whether phc falls below the current policy on any
// parameter. An unparseable hash counts as stale.
func NeedsRehash(phc string) bool {
	stored, _, _, err := argon2id.DecodeHash(phc)
	if err != nil {
		return true
	}
	return stored.Memory < policy.Memory ||
		stored.Iterations < policy.Iterations ||
		stored.Parallelism < policy.Parallelism ||
		stored.SaltLength < policy.SaltLength ||
		stored.KeyLength < policy.KeyLength
}
