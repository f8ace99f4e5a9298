package password

import (
	"os"
	"strconv"
)

// Salt and key sizes are fixed; only the cost knobs are tunable per
// deployment.
const (
	saltLen = 16
	keyLen  = 32
)

type Params struct {
	Memory      uint32 // kibibytes
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// LoadParamsFromEnv builds the hashing policy from ARGON2_* variables,
// defaulting to 128 MiB / t=3 / p=1 when unset.
func LoadParamsFromEnv() Params {
	return Params{
		Memory:      envCost("ARGON2_MEMORY", 131072, 32),
		Iterations:  envCost("ARGON2_ITER", 3, 32),
		Parallelism: uint8(envCost("ARGON2_PAR", 1, 8)),
		SaltLength:  saltLen,
		KeyLength:   keyLen,
	}
}

func envCost(key string, def uint32, bits int) uint32 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseUint(v, 10, bits)
	if err != nil {
		return def
	}
	return uint32(n)
}
