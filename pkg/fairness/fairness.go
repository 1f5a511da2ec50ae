package fairness

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strconv"
)

const (
	// sliceWidth ширина hex-среза (8 символов = 32 бита)
	sliceWidth = 8

	// OutcomeOffset срез для решения о проигрыше/оверрайде
	OutcomeOffset = 0
	// TieBreakOffset срез для взвешенного выбора номинала
	TieBreakOffset = 8
	// BoostOffset срез для розыгрыша праздничного буста
	BoostOffset = 16

	// BoostNonce nonce розыгрыша буста при создании сессии (флипы начинаются с 1)
	BoostNonce = 0
)

var ErrShortHash = errors.New("hash too short for requested offset")

// NewSecret генерирует серверный секрет (256 бит)
func NewSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewClientSeed генерирует клиентский сид, если игрок его не передал
func NewClientSeed() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Commit возвращает публичный хэш секрета
func Commit(secret string) string {
	h := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(h[:])
}

// FlipHash - SHA-256 от "secret:clientSeed:nonce"
func FlipHash(secret, clientSeed string, nonce int64) string {
	h := sha256.Sum256([]byte(secret + ":" + clientSeed + ":" + strconv.FormatInt(nonce, 10)))
	return hex.EncodeToString(h[:])
}

// UnitFloat берёт 8 hex-символов начиная с offset и делит полученный uint32 на 2^32
// (не на 0xFFFFFFFF), поэтому результат всегда в [0, 1). Внешняя проверка должна
// использовать тот же делитель
func UnitFloat(hash string, offset int) (float64, error) {
	if offset < 0 || len(hash) < offset+sliceWidth {
		return 0, ErrShortHash
	}
	n, err := strconv.ParseUint(hash[offset:offset+sliceWidth], 16, 32)
	if err != nil {
		return 0, err
	}
	return float64(n) / (1 << 32), nil
}

// Verify пересчитывает хэш флипа и сравнивает с записанным
func Verify(secret, clientSeed string, nonce int64, expected string) bool {
	return subtle.ConstantTimeCompare(
		[]byte(FlipHash(secret, clientSeed, nonce)),
		[]byte(expected),
	) == 1
}

// VerifyCommitment проверяет, что раскрытый секрет соответствует опубликованному хэшу
func VerifyCommitment(secret, commitment string) bool {
	return subtle.ConstantTimeCompare([]byte(Commit(secret)), []byte(commitment)) == 1
}
