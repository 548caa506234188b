package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/dmitrijs2005/eventphotos/internal/client/models"
	"github.com/dmitrijs2005/eventphotos/internal/client/services"
	"github.com/dmitrijs2005/eventphotos/internal/logging"
)

type fakeAPI struct {
	loggedIn bool

	regEmail string
	regPass  []byte
	regName  string
	regErr   error

	loginEmail string
	loginPass  []byte
	loginErr   error

	logoutCalled bool
	logoutErr    error

	me     *models.User
	events []models.Event
	newEv  *models.NewEvent
	photos []models.Photo
	listEv string
	err    error

	pingErr error
	pings   int
}

func (f *fakeAPI) Register(_ context.Context, email string, pw []byte, name string) (*models.User, error) {
	f.regEmail, f.regPass, f.regName = email, append([]byte(nil), pw...), name
	return &models.User{ID: "u1", Email: email}, f.regErr
}

func (f *fakeAPI) Login(_ context.Context, email string, pw []byte) (*models.User, error) {
	f.loginEmail, f.loginPass = email, append([]byte(nil), pw...)
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	f.loggedIn = true
	return &models.User{ID: "u1", Email: email}, nil
}

func (f *fakeAPI) Logout(context.Context) error {
	f.logoutCalled = true
	f.loggedIn = false
	return f.logoutErr
}

func (f *fakeAPI) Me(context.Context) (*models.User, error) { return f.me, f.err }
func (f *fakeAPI) LoggedIn() bool                           { return f.loggedIn }
func (f *fakeAPI) ListEvents(context.Context) ([]models.Event, error) {
	return f.events, f.err
}
func (f *fakeAPI) CreateEvent(_ context.Context, e models.NewEvent) (*models.Event, error) {
	f.newEv = &e
	if f.err != nil {
		return nil, f.err
	}
	return &models.Event{ID: "evt-1", Title: e.Title, ShareLink: "https://photos.test/gallery/party-ab12"}, nil
}
func (f *fakeAPI) ListPhotos(_ context.Context, eventID string) ([]models.Photo, error) {
	f.listEv = eventID
	return f.photos, f.err
}
func (f *fakeAPI) Ping(context.Context) error {
	f.pings++
	return f.pingErr
}

type fakeUploader struct {
	eventID string
	paths   []string
	results []services.UploadResult
	err     error
}

func (f *fakeUploader) BulkUpload(_ context.Context, eventID string, paths []string, progress func(services.UploadResult)) (*services.UploadReport, error) {
	f.eventID, f.paths = eventID, paths
	report := &services.UploadReport{}
	for _, r := range f.results {
		switch {
		case r.Err != nil:
			report.Failed++
		case r.Skipped:
			report.Skipped++
		default:
			report.Uploaded++
		}
		progress(r)
	}
	return report, f.err
}

func newTestApp(api *fakeAPI) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	return &App{
		api:      api,
		uploader: &fakeUploader{},
		logger:   logging.Nop{},
		reader:   bufio.NewReader(strings.NewReader("")),
		out:      &out,
	}, &out
}

// stubInputs answers text prompts in order and returns password for every
// password prompt.
func stubInputs(t *testing.T, answers []string, password []byte) {
	t.Helper()
	origST, origGP, origML := getSimpleText, getPassword, getMultiline
	i := 0
	next := func() string {
		if i >= len(answers) {
			return ""
		}
		s := answers[i]
		i++
		return s
	}
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) { return next(), nil }
	getMultiline = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) { return next(), nil }
	getPassword = func(_ io.Writer) ([]byte, error) { return append([]byte(nil), password...), nil }
	t.Cleanup(func() {
		getSimpleText, getPassword, getMultiline = origST, origGP, origML
	})
}
