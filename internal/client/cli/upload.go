package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/eventphotos/internal/client/services"
)

// collectFiles is a test seam for services.CollectFiles.
var collectFiles = services.CollectFiles

// Upload sends an image file, or every image under a directory, to an event.
// Files uploaded by an earlier run are skipped.
func (a *App) Upload(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: upload <eventId> <file or directory>")
	}
	eventID, root := args[0], args[1]

	files, err := collectFiles(root)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(a.out, "No images found.")
		return nil
	}
	fmt.Fprintf(a.out, "Uploading %d file(s)...\n", len(files))

	done := 0
	report, err := a.uploader.BulkUpload(ctx, eventID, files, func(r services.UploadResult) {
		done++
		name := filepath.Base(r.Path)
		switch {
		case r.Err != nil:
			fmt.Fprintf(a.out, "[%d/%d] %s: failed: %s\n", done, len(files), name, describe(r.Err))
			a.logger.Warn(ctx, "upload failed", "path", r.Path, "event", eventID, "error", r.Err)
		case r.Skipped:
			fmt.Fprintf(a.out, "[%d/%d] %s: already uploaded\n", done, len(files), name)
		default:
			fmt.Fprintf(a.out, "[%d/%d] %s: ok\n", done, len(files), name)
		}
	})
	if report != nil {
		fmt.Fprintf(a.out, "Done: %d uploaded, %d skipped, %d failed\n", report.Uploaded, report.Skipped, report.Failed)
	}
	return err
}
