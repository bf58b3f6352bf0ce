package reconcile

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/blake2b"
)

// Input roles
const (
	RolePrimary      = "primary"
	RoleCurrent      = "current"
	RolePrevious     = "previous"
	RoleFunding      = "funding"
	RoleBrokerage    = "brokerage"
	RoleSchemeMaster = "scheme_master"
)

// InputFile identifies one input of a run by content
type InputFile struct {
	Role   string `json:"role"`
	File   string `json:"file"`
	Size   int64  `json:"size"`
	Digest string `json:"blake2b"`
	// Unreadable marks a payout file that could not be opened. The merge
	// reports it as a warning and the run goes on without it.
	Unreadable bool `json:"unreadable,omitempty"`
}

// Fingerprint hashes every input file so exported results can be traced
// back to the exact inputs that produced them. Payout files are optional:
// one that cannot be read is listed as unreadable instead of failing.
func Fingerprint(in Inputs) ([]InputFile, error) {
	type entry struct{ role, path string }
	var entries []entry
	add := func(role string, paths ...string) {
		for _, p := range paths {
			if p != "" {
				entries = append(entries, entry{role, p})
			}
		}
	}
	add(RolePrimary, in.Primary)
	add(RoleCurrent, in.Current...)
	add(RolePrevious, in.Previous...)
	add(RoleFunding, in.Funding...)
	add(RoleBrokerage, in.Brokerage...)
	add(RoleSchemeMaster, in.SchemeMaster)

	out := make([]InputFile, 0, len(entries))
	for _, e := range entries {
		f, err := digest(e.path)
		if err != nil && e.role == RoleFunding {
			out = append(out, InputFile{Role: e.role, File: filepath.Base(e.path), Unreadable: true})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s input %s: %w", e.role, filepath.Base(e.path), err)
		}
		f.Role = e.role
		out = append(out, f)
	}
	return out, nil
}

func digest(path string) (InputFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return InputFile{}, err
	}
	defer file.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return InputFile{}, err
	}
	n, err := io.Copy(h, file)
	if err != nil {
		return InputFile{}, err
	}
	return InputFile{
		File:   filepath.Base(path),
		Size:   n,
		Digest: hex.EncodeToString(h.Sum(nil)),
	}, nil
}
