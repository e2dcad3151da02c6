package state

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/xxh3"
)

// Checksum вычисляет xxh3 хеш данных и возвращает hex-encoded строку.
func Checksum(data []byte) string {
	h := xxh3.Hash(data)
	return hex.EncodeToString(binary.BigEndian.AppendUint64(nil, h))
}

// ChecksumFile вычисляет контрольную сумму файла потоково, не загружая
// его целиком в память.
func ChecksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := xxh3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(binary.BigEndian.AppendUint64(nil, h.Sum64())), nil
}
