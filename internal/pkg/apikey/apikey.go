package apikey

import (
	"crypto/rand"
	"math/big"

	"bugtracker/pkg/constants"
)

// Generate 生成一个24位的API Key
// 字母表只用大写A-Z, 避免易混淆字符; 唯一性由调用方按唯一索引重试保证
func Generate() (string, error) {
	alphabet := constants.APIKeyAlphabet
	max := big.NewInt(int64(len(alphabet)))

	key := make([]byte, constants.APIKeyLength)
	for i := range key {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		key[i] = alphabet[n.Int64()]
	}
	return string(key), nil
}
