package service

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sakif/waform/internal/apperror"
	"github.com/sakif/waform/internal/auth"
	"github.com/sakif/waform/internal/integration"
	"github.com/sakif/waform/internal/model"
	"github.com/sakif/waform/internal/repository"
)

// =========================================================================
// IN-MEMORY REPOSITORIES
// =========================================================================
//
// Hand-written fakes keep the service tests free of SQLite. They copy on
// the way in and out so a test cannot reach into stored state.

type fakeFormRepo struct {
	forms  map[int64]*model.Form
	nextID int64
	// shareIDs that Create reports as taken
	taken map[string]bool
}

func newFakeFormRepo() *fakeFormRepo {
	return &fakeFormRepo{forms: map[int64]*model.Form{}, taken: map[string]bool{}}
}

func (m *fakeFormRepo) Create(_ context.Context, f *model.Form) error {
	if m.taken[f.ShareID] {
		return apperror.Conflict("form share id", f.ShareID)
	}
	for _, existing := range m.forms {
		if existing.ShareID == f.ShareID {
			return apperror.Conflict("form share id", f.ShareID)
		}
	}
	m.nextID++
	f.ID = m.nextID
	f.CreatedAt = time.Now()
	f.UpdatedAt = f.CreatedAt
	stored := *f
	m.forms[f.ID] = &stored
	return nil
}

func (m *fakeFormRepo) GetByID(_ context.Context, id int64) (*model.Form, error) {
	f, ok := m.forms[id]
	if !ok {
		return nil, apperror.NotFound("form", strconv.FormatInt(id, 10))
	}
	out := *f
	return &out, nil
}

func (m *fakeFormRepo) GetByShareID(_ context.Context, shareID string) (*model.Form, error) {
	for _, f := range m.forms {
		if f.ShareID == shareID {
			out := *f
			return &out, nil
		}
	}
	return nil, apperror.NotFound("form", shareID)
}

func (m *fakeFormRepo) ListByUser(_ context.Context, userID int64, opts repository.ListOptions) ([]model.Form, error) {
	out := []model.Form{}
	for _, f := range m.forms {
		if f.UserID == userID {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if opts.Offset >= len(out) {
		return []model.Form{}, nil
	}
	out = out[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *fakeFormRepo) Update(_ context.Context, f *model.Form) error {
	if _, ok := m.forms[f.ID]; !ok {
		return apperror.NotFound("form", strconv.FormatInt(f.ID, 10))
	}
	f.UpdatedAt = time.Now()
	stored := *f
	m.forms[f.ID] = &stored
	return nil
}

func (m *fakeFormRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.forms[id]; !ok {
		return apperror.NotFound("form", strconv.FormatInt(id, 10))
	}
	delete(m.forms, id)
	return nil
}

type fakeSubmissionRepo struct {
	forms  *fakeFormRepo
	subs   []model.Submission
	nextID int64
}

func (m *fakeSubmissionRepo) Create(_ context.Context, s *model.Submission) error {
	if _, ok := m.forms.forms[s.FormID]; !ok {
		return apperror.NotFound("form", strconv.FormatInt(s.FormID, 10))
	}
	m.nextID++
	s.ID = m.nextID
	s.CreatedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.subs = append(m.subs, *s)
	return nil
}

func (m *fakeSubmissionRepo) ListByForm(_ context.Context, formID int64, opts repository.ListOptions) ([]model.Submission, error) {
	out := []model.Submission{}
	for i := len(m.subs) - 1; i >= 0; i-- {
		if m.subs[i].FormID == formID {
			out = append(out, m.subs[i])
		}
	}
	if opts.Offset >= len(out) {
		return []model.Submission{}, nil
	}
	out = out[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *fakeSubmissionRepo) CountByForm(_ context.Context, formID int64) (int, error) {
	n := 0
	for _, s := range m.subs {
		if s.FormID == formID {
			n++
		}
	}
	return n, nil
}

type fakeUserRepo struct {
	users  map[int64]*model.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int64]*model.User{}}
}

func (m *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	u.Email = strings.ToLower(u.Email)
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return apperror.Conflict("user", u.Email)
		}
	}
	m.nextID++
	u.ID = m.nextID
	u.CreatedAt = time.Now()
	stored := *u
	m.users[u.ID] = &stored
	return nil
}

func (m *fakeUserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", strconv.FormatInt(id, 10))
	}
	out := *u
	return &out, nil
}

func (m *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	email = strings.ToLower(email)
	for _, u := range m.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (m *fakeUserRepo) GetByGoogleID(_ context.Context, googleID string) (*model.User, error) {
	for _, u := range m.users {
		if u.GoogleID != nil && *u.GoogleID == googleID {
			out := *u
			return &out, nil
		}
	}
	return nil, apperror.NotFound("user", googleID)
}

func (m *fakeUserRepo) LinkGoogle(_ context.Context, userID int64, googleID, avatarURL string) error {
	u, ok := m.users[userID]
	if !ok {
		return apperror.NotFound("user", strconv.FormatInt(userID, 10))
	}
	u.GoogleID = &googleID
	u.AvatarURL = avatarURL
	return nil
}

type fakeAccountRepo struct {
	accts  map[int64]*model.ConnectedAccount
	nextID int64
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accts: map[int64]*model.ConnectedAccount{}}
}

func (m *fakeAccountRepo) Upsert(_ context.Context, a *model.ConnectedAccount) error {
	for _, existing := range m.accts {
		if existing.UserID == a.UserID && existing.Provider == a.Provider && existing.ProviderID == a.ProviderID {
			a.ID = existing.ID
			if a.RefreshToken == "" {
				a.RefreshToken = existing.RefreshToken
			}
			stored := *a
			m.accts[a.ID] = &stored
			return nil
		}
	}
	m.nextID++
	a.ID = m.nextID
	stored := *a
	m.accts[a.ID] = &stored
	return nil
}

func (m *fakeAccountRepo) GetByID(_ context.Context, id int64) (*model.ConnectedAccount, error) {
	a, ok := m.accts[id]
	if !ok {
		return nil, apperror.NotFound("connected account", strconv.FormatInt(id, 10))
	}
	out := *a
	return &out, nil
}

func (m *fakeAccountRepo) ListByUser(_ context.Context, userID int64) ([]model.ConnectedAccount, error) {
	out := []model.ConnectedAccount{}
	for _, a := range m.accts {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *fakeAccountRepo) UpdateToken(_ context.Context, id int64, access, refresh string, expiry time.Time) error {
	a, ok := m.accts[id]
	if !ok {
		return apperror.NotFound("connected account", strconv.FormatInt(id, 10))
	}
	a.AccessToken = access
	if refresh != "" {
		a.RefreshToken = refresh
	}
	a.Expiry = expiry
	return nil
}

func (m *fakeAccountRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.accts[id]; !ok {
		return apperror.NotFound("connected account", strconv.FormatInt(id, 10))
	}
	delete(m.accts, id)
	return nil
}

// =========================================================================
// INTEGRATION FAKES
// =========================================================================

// syncQueue runs jobs inline so tests can assert on their effects.
type syncQueue struct {
	jobs []string
	errs []error
	full bool
}

func (q *syncQueue) Submit(job integration.Job) bool {
	if q.full {
		return false
	}
	q.jobs = append(q.jobs, job.Name)
	q.errs = append(q.errs, job.Run(context.Background()))
	return true
}

type appendCall struct {
	accountID int64
	sheetID   string
	header    []any
	row       []any
}

type fakeSheets struct {
	mu     sync.Mutex
	calls  []appendCall
	err    error
	sheets []integration.Spreadsheet
}

func (f *fakeSheets) AppendRow(_ context.Context, acct *model.ConnectedAccount, sheetID string, header, row []any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, appendCall{accountID: acct.ID, sheetID: sheetID, header: header, row: row})
	return f.err
}

func (f *fakeSheets) ListSpreadsheets(_ context.Context, _ *model.ConnectedAccount) ([]integration.Spreadsheet, error) {
	return f.sheets, f.err
}

// =========================================================================
// HARNESS
// =========================================================================

type harness struct {
	forms       *fakeFormRepo
	submissions *fakeSubmissionRepo
	users       *fakeUserRepo
	accounts    *fakeAccountRepo
	sheets      *fakeSheets
	queue       *syncQueue

	formSvc    *FormService
	subSvc     *SubmissionService
	authSvc    *AuthService
	accountSvc *AccountService
	passwords  *auth.PasswordService
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		forms:    newFakeFormRepo(),
		users:    newFakeUserRepo(),
		accounts: newFakeAccountRepo(),
		sheets:   &fakeSheets{},
		queue:    &syncQueue{},
	}
	h.submissions = &fakeSubmissionRepo{forms: h.forms}

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	h.passwords = auth.NewPasswordServiceForTest(4)

	logger := testLogger()
	h.formSvc = NewFormService(h.forms, h.accounts, "https://forms.example.com/", logger)
	h.subSvc = NewSubmissionService(h.formSvc, h.submissions, h.accounts, h.sheets, h.queue, logger)
	h.authSvc = NewAuthService(h.users, tokens, h.passwords, logger)
	h.accountSvc = NewAccountService(h.accounts, h.sheets, logger)
	return h
}

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }
