package adapter

import "context"

// PostProcessor repairs the provider's raw output. Clean downloads the raw
// asset to scratch storage, removes the watermark region, deletes the raw
// scratch file on every path, and returns the processed file's local path.
// The caller owns deletion of the processed file.
type PostProcessor interface {
	Clean(ctx context.Context, rawURL string) (localPath string, err error)
}
