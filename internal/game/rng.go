package game

import (
	"crypto/hmac"
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"math/rand/v2"
)

// RandomSource yields floats in [0, 1). The engine draws from it once per
// spawn (horizontal jitter) and once per landing (payout variance), so a
// seeded source makes a whole run reproducible.
type RandomSource interface {
	Float64() float64
}

// symmetric maps r in [0,1) onto [-bound, bound); r = 0.5 maps to zero.
func symmetric(r, bound float64) float64 {
	return (r - 0.5) * 2 * bound
}

type mathSource struct {
	r *rand.Rand
}

func (s *mathSource) Float64() float64 {
	return s.r.Float64()
}

// NewSeededSource returns a deterministic PCG-backed source.
func NewSeededSource(seed uint64) RandomSource {
	return &mathSource{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewDefaultSource returns a non-deterministic source for production play.
func NewDefaultSource() RandomSource {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		// crypto/rand does not fail on supported platforms
		panic(fmt.Sprintf("seed random source: %v", err))
	}
	return &mathSource{r: rand.New(rand.NewChaCha8(seed))}
}

// FairSource is a provably fair stream: HMAC-SHA256(serverSeed,
// "clientSeed:nonce:round") produces 32 bytes per round and every float
// consumes four of them. Publishing ServerSeedHash before play and the
// server seed afterwards lets a player replay the session.
type FairSource struct {
	serverSeed string
	clientSeed string
	nonce      uint64
	round      uint64
	pos        int
	buffer     [32]byte
}

// NewFairSource creates a stream positioned at the first byte of round 0.
func NewFairSource(serverSeed, clientSeed string, nonce uint64) *FairSource {
	fs := &FairSource{serverSeed: serverSeed, clientSeed: clientSeed, nonce: nonce}
	fs.generateRound()
	return fs
}

func (fs *FairSource) generateRound() {
	h := hmac.New(sha256.New, []byte(fs.serverSeed))
	fmt.Fprintf(h, "%s:%d:%d", fs.clientSeed, fs.nonce, fs.round)
	copy(fs.buffer[:], h.Sum(nil))
	fs.pos = 0
}

func (fs *FairSource) next() byte {
	if fs.pos >= len(fs.buffer) {
		fs.round++
		fs.generateRound()
	}
	b := fs.buffer[fs.pos]
	fs.pos++
	return b
}

// Float64 combines four bytes as base-256 fractional digits.
func (fs *FairSource) Float64() float64 {
	result := 0.0
	for i := 0; i < 4; i++ {
		result += float64(fs.next()) / math.Pow(256, float64(i+1))
	}
	return result
}

// ServerSeedHash is the commitment shown to the player before play.
func (fs *FairSource) ServerSeedHash() string {
	return HashServerSeed(fs.serverSeed)
}

// HashServerSeed returns the hex SHA-256 of a server seed.
func HashServerSeed(serverSeed string) string {
	sum := sha256.Sum256([]byte(serverSeed))
	return hex.EncodeToString(sum[:])
}

// NewServerSeed returns 32 random bytes, hex encoded.
func NewServerSeed() string {
	var b [32]byte
	if _, err := crand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("server seed: %v", err))
	}
	return hex.EncodeToString(b[:])
}

// SeedFromString derives a PCG seed from arbitrary text, for CLI use.
func SeedFromString(s string) uint64 {
	sum := sha256.Sum256([]byte(s))
	return binary.BigEndian.Uint64(sum[:8])
}
