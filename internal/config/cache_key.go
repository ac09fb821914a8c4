package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// QueryResultKey identifies a cached QueryResponse for a normalized message.
// The message is hashed so arbitrary user text never becomes a raw key segment.
func (r *CacheKeyStruct) QueryResultKey(message string, usedLLM bool) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(message)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("query:%t:%s", usedLLM, hex.EncodeToString(sum[:16]))
}

func (r *CacheKeyStruct) CatalogSubjectsKey() string {
	return "catalog:subjects"
}

func (r *CacheKeyStruct) CatalogSemestersKey() string {
	return "catalog:semesters"
}

var CacheKey = NewCacheKeyStruct()
