package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for algorithm migration.
const (
	DomainProgram = "branchless/program/v1"
	DomainRun     = "branchless/run/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator keeps domain and data unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ProgramHash returns the content hash of a compiled program.
func ProgramHash(p Program) (string, error) {
	canonical, err := MarshalCanonical(p.canonicalMap())
	if err != nil {
		return "", fmt.Errorf("ProgramHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainProgram, canonical), nil
}

// RunID computes the identity of a run from its token, program hash, mode
// and start seq. Re-running the same program under the same token and
// clock position yields the same ID.
func RunID(runToken, programHash, mode string, seq int64) (string, error) {
	obj := map[string]any{
		"run_token":    runToken,
		"program_hash": programHash,
		"mode":         mode,
		"seq":          seq,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("RunID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRun, canonical), nil
}

// MustProgramHash is like ProgramHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustProgramHash(p Program) string {
	h, err := ProgramHash(p)
	if err != nil {
		panic(err)
	}
	return h
}
