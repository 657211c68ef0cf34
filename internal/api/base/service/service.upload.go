package basesvc

import (
	"context"

	"servicehub/internal/logger"
	"servicehub/internal/storage"
)

// Upload is one file attached to a request.
type Upload struct {
	Name string
	Data []byte
}

// UploadAll uploads files one at a time. If any upload fails, the files already uploaded
// are deleted and the failure is returned, so callers see all or nothing.
func UploadAll(ctx context.Context, fs storage.FileStorage, files []Upload) ([]storage.StoredFile, error) {
	docs := make([]storage.StoredFile, 0, len(files))
	for _, f := range files {
		doc, err := fs.Upload(ctx, f.Data, f.Name)
		if err != nil {
			DiscardUploads(ctx, fs, docs)
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// DiscardUploads deletes stored files, logging the ones that could not be removed.
func DiscardUploads(ctx context.Context, fs storage.FileStorage, docs []storage.StoredFile) {
	ctx = context.WithoutCancel(ctx)
	for _, d := range docs {
		if _, err := fs.Delete(ctx, d.Key); err != nil {
			logger.WithModule("storage").WithError(err).WithField("key", d.Key).Warn("orphaned upload")
		}
	}
}
