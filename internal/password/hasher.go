// Package password はパスワードの一方向ハッシュ化と検証を提供する。
//
// 新規ハッシュはargon2id（PHC文字列形式）で生成する。
// 既存データ移行のため、bcryptダイジェストの検証にも対応し、
// その場合はNeedsRehashがtrueを返す。
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const argon2idPrefix = "$argon2id$"

// 保存済みダイジェストのパラメータ上限。これを超えるものは検証しない。
const (
	maxMemoryKiB   = 1 << 20
	maxIterations  = 16
	maxParallelism = 16
	maxKeyLength   = 128
)

// Params はargon2idのコストパラメータ。
type Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams はデフォルトのargon2idパラメータを返す。
func DefaultParams() Params {
	return Params{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Hasher はパスワードのハッシュ化・検証・再ハッシュ判定を行う。
// 並行利用して安全。
type Hasher struct {
	params Params
	rand   io.Reader
}

// NewHasher は指定パラメータのHasherを生成する。
func NewHasher(params Params) *Hasher {
	return &Hasher{params: params, rand: rand.Reader}
}

// Hash は平文パスワードからソルト付きのargon2idダイジェストを生成する。
// 空文字列も受け付ける。
func (h *Hasher) Hash(plain string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := io.ReadFull(h.rand, salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(plain), salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, h.params.KeyLength)

	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2idPrefix,
		argon2.Version,
		h.params.Memory, h.params.Iterations, h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify は平文パスワードがダイジェストに一致するかを返す。
// 不正な形式のダイジェストに対してはエラーにせずfalseを返す。
func (h *Hasher) Verify(plain, digest string) bool {
	switch {
	case strings.HasPrefix(digest, argon2idPrefix):
		d, err := decode(digest)
		if err != nil {
			return false
		}
		key := argon2.IDKey([]byte(plain), d.salt, d.params.Iterations, d.params.Memory, d.params.Parallelism, uint32(len(d.key)))
		return subtle.ConstantTimeCompare(key, d.key) == 1
	case isBcrypt(digest):
		return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
	default:
		return false
	}
}

// NeedsRehash はダイジェストが現在のパラメータで生成されたものでないかを返す。
// bcryptダイジェストと解析できないダイジェストは常にtrue。
func (h *Hasher) NeedsRehash(digest string) bool {
	if !strings.HasPrefix(digest, argon2idPrefix) {
		return true
	}
	d, err := decode(digest)
	if err != nil {
		return true
	}
	return d.version != argon2.Version ||
		d.params.Memory != h.params.Memory ||
		d.params.Iterations != h.params.Iterations ||
		d.params.Parallelism != h.params.Parallelism ||
		uint32(len(d.salt)) != h.params.SaltLength ||
		uint32(len(d.key)) != h.params.KeyLength
}

// decoded は解析済みのargon2idダイジェスト。
type decoded struct {
	version int
	params  Params
	salt    []byte
	key     []byte
}

// decode は $argon2id$v=19$m=65536,t=3,p=2$<salt>$<key> 形式を解析する。
func decode(digest string) (*decoded, error) {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 {
		return nil, fmt.Errorf("invalid argon2id digest: unexpected segment count %d", len(parts))
	}

	d := &decoded{}
	if _, err := fmt.Sscanf(parts[2], "v=%d", &d.version); err != nil {
		return nil, fmt.Errorf("invalid argon2id version: %w", err)
	}

	var parallelism uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &d.params.Memory, &d.params.Iterations, &parallelism); err != nil {
		return nil, fmt.Errorf("invalid argon2id parameters: %w", err)
	}
	if d.params.Memory == 0 || d.params.Memory > maxMemoryKiB ||
		d.params.Iterations == 0 || d.params.Iterations > maxIterations ||
		parallelism == 0 || parallelism > maxParallelism {
		return nil, fmt.Errorf("argon2id parameters out of range")
	}
	d.params.Parallelism = uint8(parallelism)

	var err error
	if d.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, fmt.Errorf("invalid argon2id salt: %w", err)
	}
	if d.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, fmt.Errorf("invalid argon2id key: %w", err)
	}
	if len(d.salt) == 0 || len(d.key) == 0 || len(d.key) > maxKeyLength {
		return nil, fmt.Errorf("argon2id salt or key has invalid length")
	}
	d.params.SaltLength = uint32(len(d.salt))
	d.params.KeyLength = uint32(len(d.key))

	return d, nil
}

func isBcrypt(digest string) bool {
	return strings.HasPrefix(digest, "$2a$") ||
		strings.HasPrefix(digest, "$2b$") ||
		strings.HasPrefix(digest, "$2y$")
}
