package content

import "context"

// ObjectStorage stores uploaded brand logos and resolves their public URL
type ObjectStorage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	PublicURL(key string) string
	Delete(ctx context.Context, key string) error
}
