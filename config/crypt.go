package config

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var errDecrypt = errors.New("decryption error")

// Decrypt opens a secretbox sealed by Encrypt, the key is derived from secret
func Decrypt(message, secret []byte) ([]byte, error) {
	if len(message) < nonceSize+secretbox.Overhead {
		return nil, errDecrypt
	}
	var nonce [nonceSize]byte
	copy(nonce[:], message[:nonceSize])
	key := sha256.Sum256(secret)
	decrypted, ok := secretbox.Open(nil, message[nonceSize:], &nonce, &key)
	if !ok {
		return nil, errDecrypt
	}
	return decrypted, nil
}

// Encrypt seals message with random nonce prepended, the key is derived from secret
func Encrypt(message, secret []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, err
	}
	key := sha256.Sum256(secret)
	return secretbox.Seal(nonce[:], message, &nonce, &key), nil
}

// EncryptSecret returns value sealed with the secret from SecKeyEnv.
// Value is returned as is if no secret is set.
func EncryptSecret(value string) (string, error) {
	secret := os.Getenv(SecKeyEnv)
	if secret == "" || value == "" {
		return value, nil
	}
	encrypted, err := Encrypt([]byte(value), []byte(secret))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%x", SecVerPrefix, encrypted), nil
}

// DecryptSecret opens value sealed by EncryptSecret, plain values are returned as is
func DecryptSecret(value string) (string, error) {
	hexed, ok := strings.CutPrefix(value, SecVerPrefix)
	if !ok {
		return value, nil
	}
	secret := os.Getenv(SecKeyEnv)
	if secret == "" {
		return "", fmt.Errorf("could not decrypt %s value: %s is empty", SecVerPrefix, SecKeyEnv)
	}
	var encrypted []byte
	if _, err := fmt.Sscanf(hexed, "%x", &encrypted); err != nil {
		return "", err
	}
	decrypted, err := Decrypt(encrypted, []byte(secret))
	if err != nil {
		return "", err
	}
	return string(decrypted), nil
}
