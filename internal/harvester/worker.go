package harvester

import (
	"context"
	"errors"
	"time"

	"solarharvest/internal/fetchers"
	"solarharvest/internal/imagery"
	"solarharvest/internal/logger"
	"solarharvest/internal/models"
	"solarharvest/internal/storage"
)

// ImageFetcher resolves and downloads images. *fetchers.HelioviewerFetcher implements it.
type ImageFetcher interface {
	GetClosestImageID(ctx context.Context, t time.Time, sourceID int) (string, error)
	DownloadImage(ctx context.Context, id string) ([]byte, error)
}

// Worker processes a single task: existence check, id lookup, download, store.
// It holds no per-task state and is safe for concurrent use.
type Worker struct {
	fetcher  ImageFetcher
	store    storage.StorageClient
	validate bool
	log      *logger.Logger
}

// NewWorker creates a worker. When validate is set downloaded bytes must decode as an image.
func NewWorker(fetcher ImageFetcher, store storage.StorageClient, validate bool) *Worker {
	return &Worker{
		fetcher:  fetcher,
		store:    store,
		validate: validate,
		log:      logger.Component("worker"),
	}
}

// Process runs one task to completion and never returns a partial artifact.
func (w *Worker) Process(ctx context.Context, task models.Task) Result {
	name := imagery.ArtifactName(task)
	result := Result{Task: task, Name: name}

	exists, err := w.store.FileExists(ctx, name)
	if err != nil {
		return result.fail(StatusStoreFailed, err)
	}
	if exists {
		result.Status = StatusSkipped
		return result
	}

	id, err := w.fetcher.GetClosestImageID(ctx, task.Timestamp, task.Channel.SourceID)
	if err != nil {
		if errors.Is(err, fetchers.ErrNoImage) {
			return result.fail(StatusNoImage, err)
		}
		return result.fail(StatusLookupFailed, err)
	}
	result.ImageID = id

	data, err := w.fetcher.DownloadImage(ctx, id)
	if err != nil {
		return result.fail(StatusDownloadFailed, err)
	}

	if w.validate {
		info, err := imagery.ValidateImage(data)
		if err != nil {
			return result.fail(StatusDownloadFailed, err)
		}
		w.log.Debug("Image validated", logger.Fields{
			"name":         name,
			"content_type": info.ContentType,
			"width":        info.Width,
			"height":       info.Height,
		})
	}

	if err := w.store.StoreFile(ctx, name, data); err != nil {
		if errors.Is(err, storage.ErrFileExists) {
			result.Status = StatusSkipped
			return result
		}
		return result.fail(StatusStoreFailed, err)
	}

	result.Status = StatusDownloaded
	result.Bytes = len(data)
	return result
}

func (r Result) fail(status Status, err error) Result {
	r.Status = status
	r.Err = err
	return r
}
