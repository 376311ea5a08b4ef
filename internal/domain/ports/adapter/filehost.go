package adapter

import "context"

// FileHost is the port for the anonymous public file host. Upload streams the
// file at localPath and returns its durable public URL. Single attempt; the
// caller decides whether a failure is worth a whole-pipeline retry.
type FileHost interface {
	Upload(ctx context.Context, localPath string) (publicURL string, err error)
}
