package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// CredentialBucket returns the bbolt bucket holding the credential record
func (r *CacheKeyStruct) CredentialBucket() []byte {
	return []byte("credentials")
}

// CredentialKey returns the redis key for the persisted credential
func (r *CacheKeyStruct) CredentialKey(name string) string {
	return fmt.Sprintf("certify:%s", name)
}

var CacheKey = NewCacheKeyStruct()
