package storage

import "strings"

// StorageTypeMemory keeps objects in process memory; URLs are served by the API itself.
const StorageTypeMemory StorageType = "memory"

// NewStorage creates an ObjectStorage instance based on the configuration.
// An empty Type is detected from the endpoint. For memory storage PublicURL is the
// base URL the API is reachable at.
func NewStorage(cfg *S3Config) (ObjectStorage, error) {
	if cfg.Type == "" {
		cfg.Type = detectStorageType(cfg.Endpoint)
	}

	if cfg.Type == StorageTypeMemory {
		return NewMemoryStorage(cfg.PublicURL), nil
	}
	return NewS3Storage(cfg)
}

// detectStorageType attempts to detect the storage type from the endpoint
func detectStorageType(endpoint string) StorageType {
	endpoint = strings.ToLower(endpoint)

	switch {
	case endpoint == "":
		return StorageTypeS3
	case strings.Contains(endpoint, "r2.cloudflarestorage.com"):
		return StorageTypeR2
	case strings.Contains(endpoint, "amazonaws.com"):
		return StorageTypeS3
	default:
		return StorageTypeS3Compatible
	}
}
