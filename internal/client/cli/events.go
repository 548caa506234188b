package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/eventphotos/internal/client/models"
	"github.com/dmitrijs2005/eventphotos/internal/common"
)

// Events prints the user's events, newest first as returned by the server.
func (a *App) Events(ctx context.Context) error {
	events, err := a.api.ListEvents(ctx)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintln(a.out, "No events yet. Use 'newevent' to create one.")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tTITLE\tPHOTOS\tSHARE LINK")
	for _, e := range events {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", e.ID, e.Date.Format("2006-01-02"), e.Title, e.PhotoCount, e.ShareLink)
	}
	return w.Flush()
}

// NewEvent prompts for the event fields and creates it.
func (a *App) NewEvent(ctx context.Context) error {
	title, err := getSimpleText(a.reader, "Title", a.out)
	if err != nil {
		return err
	}
	if title == "" {
		return fmt.Errorf("%w: title is required", common.ErrorValidation)
	}

	date, err := getSimpleText(a.reader, "Date (YYYY-MM-DD, empty for today)", a.out)
	if err != nil {
		return err
	}
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	location, err := getSimpleText(a.reader, "Location (optional)", a.out)
	if err != nil {
		return err
	}
	description, err := getMultiline(a.reader, "Description (optional)", a.out)
	if err != nil {
		return err
	}

	e, err := a.api.CreateEvent(ctx, models.NewEvent{
		Title:       title,
		Date:        date,
		Location:    optional(location),
		Description: optional(description),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Created event %s\nShare link: %s\n", e.ID, e.ShareLink)
	return nil
}

// Photos lists the photos of one event.
func (a *App) Photos(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: photos <eventId>")
	}
	photos, err := a.api.ListPhotos(ctx, args[0])
	if err != nil {
		return err
	}
	if len(photos) == 0 {
		fmt.Fprintln(a.out, "No photos.")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFILE\tSIZE\tDOWNLOADS\tOPTIMIZED")
	for _, p := range photos {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%t\n", p.ID, p.FileName, p.FileSize, p.DownloadCount, p.DisplayURL != nil)
	}
	return w.Flush()
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
