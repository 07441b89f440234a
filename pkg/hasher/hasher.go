// Package hasher turns plaintext passwords into crypt(3)-style hashes
// and checks candidates against stored hashes. The account database
// treats hashes as opaque strings; everything format-specific lives
// here.
package hasher

import (
	"errors"
	"strings"

	"github.com/GehirnInc/crypt"
	"github.com/GehirnInc/crypt/md5_crypt"
	"github.com/GehirnInc/crypt/sha256_crypt"
	"github.com/GehirnInc/crypt/sha512_crypt"
)

var (
	ErrMismatch        = errors.New("password does not match")
	ErrUnsupportedHash = errors.New("unsupported password hash")
)

// Hasher produces a shadow-style hash for a plaintext password.
type Hasher interface {
	Hash(password string) (string, error)
}

// SHA512Crypt hashes with sha512-crypt ($6$) and a random salt.
type SHA512Crypt struct{}

func NewSHA512Crypt() SHA512Crypt {
	return SHA512Crypt{}
}

func (SHA512Crypt) Hash(password string) (string, error) {
	return sha512_crypt.New().Generate([]byte(password), nil)
}

// IsLocked reports whether hash marks the account as locked rather
// than carrying a real password.
func IsLocked(hash string) bool {
	return hash == "" || strings.HasPrefix(hash, "!") || strings.HasPrefix(hash, "*")
}

// Verify checks password against a stored hash.
//
// Supports common crypt formats:
// $1$ (md5-crypt), $5$ (sha256-crypt), $6$ (sha512-crypt).
// Note: this does NOT support newer formats like yescrypt.
func Verify(hash, password string) error {
	if IsLocked(hash) {
		return ErrMismatch
	}

	var crypters []crypt.Crypter
	crypters = append(crypters, sha512_crypt.New())
	crypters = append(crypters, sha256_crypt.New())
	crypters = append(crypters, md5_crypt.New())

	// Try known crypters. Verify returns nil on success.
	for _, c := range crypters {
		if err := c.Verify(hash, []byte(password)); err == nil {
			return nil
		}
	}

	// Detect an obviously unsupported hash prefix.
	// Ubuntu commonly uses yescrypt ($y$).
	if strings.HasPrefix(hash, "$y$") || strings.HasPrefix(hash, "$7$") || strings.HasPrefix(hash, "$2") {
		return ErrUnsupportedHash
	}
	return ErrMismatch
}
