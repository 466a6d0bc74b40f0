// Package servicetest holds in-memory implementations of the secondary ports
// for service tests.
package servicetest

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"gitlab.com/magneto-ui.net/internal/core/ports/secondary"
	"gitlab.com/magneto-ui.net/internal/domain"
	"gitlab.com/magneto-ui.net/internal/static/errs"
)

// Tx runs fn directly and counts the transactions it was asked for
type Tx struct {
	mu    sync.Mutex
	Calls int
}

var _ secondary.Transactor = (*Tx)(nil)

func (t *Tx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	t.Calls++
	t.mu.Unlock()
	return fn(ctx)
}

// DB holds users, apps and tests behind one mutex
type DB struct {
	mu    sync.Mutex
	users map[uuid.UUID]domain.Users
	apps  map[uuid.UUID]domain.App
	tests map[uuid.UUID]domain.Test
}

func NewDB() *DB {
	return &DB{
		users: map[uuid.UUID]domain.Users{},
		apps:  map[uuid.UUID]domain.App{},
		tests: map[uuid.UUID]domain.Test{},
	}
}

func (d *DB) Users() *Users { return &Users{d} }
func (d *DB) Apps() *Apps   { return &Apps{d} }
func (d *DB) Tests() *Tests { return &Tests{d} }

// AddUser stores a verified local user and returns it
func (d *DB) AddUser(email string) *domain.Users {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := time.Now()
	u := domain.Users{ID: uuid.New(), Email: email, AuthProvider: string(domain.ProviderLocal), IsVerified: true, CreatedAt: now, UpdatedAt: now}
	d.users[u.ID] = u
	return &u
}

// AddApp stores an app owned by userID and returns it
func (d *DB) AddApp(userID uuid.UUID, name string) *domain.App {
	d.mu.Lock()
	defer d.mu.Unlock()
	app := domain.NewApp(userID, name, "description")
	d.apps[app.ID] = *app
	return app
}

// AddTest stores a pending test under app and returns it
func (d *DB) AddTest(app *domain.App, name string, fileID *uuid.UUID) *domain.Test {
	d.mu.Lock()
	defer d.mu.Unlock()
	test := domain.NewTest(app, name, "Theme Check", fileID)
	d.tests[test.ID] = *test
	return test
}

// Test returns a snapshot of a stored test, nil if absent
func (d *DB) Test(id uuid.UUID) *domain.Test {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.tests[id]; ok {
		return &t
	}
	return nil
}

func (d *DB) App(id uuid.UUID) *domain.App {
	d.mu.Lock()
	defer d.mu.Unlock()
	if a, ok := d.apps[id]; ok {
		return &a
	}
	return nil
}

func (d *DB) User(id uuid.UUID) *domain.Users {
	d.mu.Lock()
	defer d.mu.Unlock()
	if u, ok := d.users[id]; ok {
		return &u
	}
	return nil
}

func (d *DB) UserCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.users)
}

type Users struct{ *DB }

var _ secondary.UserPort = (*Users)(nil)

func (u *Users) Create(_ context.Context, user *domain.Users) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	u.users[user.ID] = *user
	return nil
}

func (u *Users) Save(_ context.Context, user *domain.Users) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.users[user.ID]; !ok {
		return errs.ErrUserNotFound
	}
	u.users[user.ID] = *user
	return nil
}

func (u *Users) Delete(_ context.Context, id uuid.UUID) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.users, id)
	return nil
}

func (u *Users) find(match func(domain.Users) bool) *domain.Users {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, user := range u.users {
		if match(user) {
			found := user
			return &found
		}
	}
	return nil
}

func (u *Users) Get(_ context.Context, id uuid.UUID) (*domain.Users, error) {
	return u.find(func(user domain.Users) bool { return user.ID == id }), nil
}

func (u *Users) GetByEmail(_ context.Context, email string) (*domain.Users, error) {
	return u.find(func(user domain.Users) bool { return user.Email == email }), nil
}

func (u *Users) GetByGoogleID(_ context.Context, googleID string) (*domain.Users, error) {
	return u.find(func(user domain.Users) bool { return user.GoogleID != nil && *user.GoogleID == googleID }), nil
}

func (u *Users) GetByResetToken(_ context.Context, token string) (*domain.Users, error) {
	return u.find(func(user domain.Users) bool { return user.ResetToken != nil && *user.ResetToken == token }), nil
}

type Apps struct{ *DB }

var _ secondary.AppRepository = (*Apps)(nil)

// withTests must be called with the lock held
func (a *Apps) withTests(app domain.App) *domain.App {
	app.Tests = []uuid.UUID{}
	for _, t := range a.tests {
		if t.AppID == app.ID {
			app.Tests = append(app.Tests, t.ID)
		}
	}
	return &app
}

func (a *Apps) Create(_ context.Context, app *domain.App) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.apps[app.ID] = *app
	return nil
}

func (a *Apps) Get(_ context.Context, appID uuid.UUID) (*domain.App, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	app, ok := a.apps[appID]
	if !ok {
		return nil, nil
	}
	return a.withTests(app), nil
}

func (a *Apps) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.App, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := []*domain.App{}
	for _, app := range a.apps {
		if app.UserID == userID {
			out = append(out, a.withTests(app))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (a *Apps) update(appID uuid.UUID, set func(*domain.App)) (*domain.App, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	app, ok := a.apps[appID]
	if !ok {
		return nil, nil
	}
	set(&app)
	app.UpdatedAt = time.Now()
	a.apps[appID] = app
	return a.withTests(app), nil
}

func (a *Apps) UpdateName(_ context.Context, appID uuid.UUID, name string) (*domain.App, error) {
	return a.update(appID, func(app *domain.App) { app.Name = name })
}

func (a *Apps) UpdateDescription(_ context.Context, appID uuid.UUID, description string) (*domain.App, error) {
	return a.update(appID, func(app *domain.App) { app.Description = description })
}

func (a *Apps) Delete(_ context.Context, appID uuid.UUID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.apps, appID)
	return nil
}

func (a *Apps) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for id, app := range a.apps {
		if app.UserID == userID {
			delete(a.apps, id)
		}
	}
	return nil
}

type Tests struct{ *DB }

var _ secondary.TestRepository = (*Tests)(nil)

func (r *Tests) Create(_ context.Context, test *domain.Test) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tests[test.ID] = *test
	return nil
}

func (r *Tests) Get(_ context.Context, testID uuid.UUID) (*domain.Test, error) {
	return r.Test(testID), nil
}

func (r *Tests) list(match func(domain.Test) bool) []*domain.Test {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Test{}
	for _, t := range r.tests {
		if match(t) {
			found := t
			out = append(out, &found)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *Tests) ListByApp(_ context.Context, appID uuid.UUID) ([]*domain.Test, error) {
	return r.list(func(t domain.Test) bool { return t.AppID == appID }), nil
}

func (r *Tests) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.Test, error) {
	return r.list(func(t domain.Test) bool { return t.UserID == userID }), nil
}

func (r *Tests) update(testID uuid.UUID, set func(*domain.Test)) *domain.Test {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tests[testID]
	if !ok {
		return nil
	}
	set(&t)
	r.tests[testID] = t
	return &t
}

func (r *Tests) UpdateNotes(_ context.Context, testID uuid.UUID, notes string) (*domain.Test, error) {
	return r.update(testID, func(t *domain.Test) { t.Notes = notes }), nil
}

func (r *Tests) UpdateFile(_ context.Context, testID uuid.UUID, fileID uuid.UUID) error {
	if r.update(testID, func(t *domain.Test) { t.FileID = &fileID }) == nil {
		return errs.ErrTestNotFound
	}
	return nil
}

func (r *Tests) Complete(_ context.Context, testID uuid.UUID, completion domain.TestCompletion) (*domain.Test, error) {
	t := r.update(testID, func(t *domain.Test) {
		t.Result = completion.Result
		t.Status = completion.Status
	})
	if t == nil {
		return nil, errs.ErrTestNotFound
	}
	return t, nil
}

func (r *Tests) deleteWhere(match func(domain.Test) bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, t := range r.tests {
		if match(t) {
			delete(r.tests, id)
		}
	}
}

func (r *Tests) Delete(_ context.Context, testID uuid.UUID) error {
	r.deleteWhere(func(t domain.Test) bool { return t.ID == testID })
	return nil
}

func (r *Tests) DeleteByApp(_ context.Context, appID uuid.UUID) error {
	r.deleteWhere(func(t domain.Test) bool { return t.AppID == appID })
	return nil
}

func (r *Tests) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	r.deleteWhere(func(t domain.Test) bool { return t.UserID == userID })
	return nil
}

func (r *Tests) ExistingIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[uuid.UUID]bool{}
	for _, id := range ids {
		if _, ok := r.tests[id]; ok {
			out[id] = true
		}
	}
	return out, nil
}

type blob struct {
	info domain.BlobInfo
	data []byte
}

// Blobs is one in-memory bucket. DeleteErr, when set, fails every DeleteMany.
type Blobs struct {
	mu        sync.Mutex
	blobs     map[uuid.UUID]blob
	DeleteErr error
	Deleted   []uuid.UUID
}

var _ secondary.BlobStore = (*Blobs)(nil)

func NewBlobs() *Blobs {
	return &Blobs{blobs: map[uuid.UUID]blob{}}
}

func (b *Blobs) Store(_ context.Context, r io.Reader, filename string, meta domain.BlobMeta) (uuid.UUID, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return uuid.Nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	info := domain.BlobInfo{
		ID:          uuid.New(),
		Filename:    filename,
		ContentType: meta.ContentType,
		Length:      int64(len(data)),
		ChunkSize:   domain.DefaultChunkSize,
		TestID:      meta.TestID,
		UploadedAt:  time.Now(),
	}
	b.blobs[info.ID] = blob{info: info, data: data}
	return info.ID, nil
}

// Put stores a blob with an explicit upload time
func (b *Blobs) Put(testID *uuid.UUID, filename string, data []byte, uploadedAt time.Time) uuid.UUID {
	b.mu.Lock()
	defer b.mu.Unlock()
	info := domain.BlobInfo{ID: uuid.New(), Filename: filename, Length: int64(len(data)), TestID: testID, UploadedAt: uploadedAt}
	b.blobs[info.ID] = blob{info: info, data: data}
	return info.ID
}

func (b *Blobs) Has(id uuid.UUID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.blobs[id]
	return ok
}

func (b *Blobs) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.blobs)
}

func (b *Blobs) Retrieve(_ context.Context, blobID uuid.UUID) (*domain.BlobInfo, io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	found, ok := b.blobs[blobID]
	if !ok {
		return nil, nil, errs.ErrBlobNotFound
	}
	info := found.info
	return &info, io.NopCloser(bytes.NewReader(found.data)), nil
}

func (b *Blobs) Query(_ context.Context, query domain.BlobQuery) ([]*domain.BlobInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := map[uuid.UUID]bool{}
	for _, id := range query.Filter.IDs {
		ids[id] = true
	}
	out := []*domain.BlobInfo{}
	for _, found := range b.blobs {
		info := found.info
		if len(ids) > 0 && !ids[info.ID] {
			continue
		}
		if query.Filter.TestID != nil && (info.TestID == nil || *info.TestID != *query.Filter.TestID) {
			continue
		}
		if query.Filter.UploadedBefore != nil && !info.UploadedAt.Before(*query.Filter.UploadedBefore) {
			continue
		}
		out = append(out, &info)
	}
	sort.Slice(out, func(i, j int) bool {
		if query.NewestFirst {
			return out[i].UploadedAt.After(out[j].UploadedAt)
		}
		return out[i].UploadedAt.Before(out[j].UploadedAt)
	})
	if query.Limit > 0 && len(out) > query.Limit {
		out = out[:query.Limit]
	}
	return out, nil
}

func (b *Blobs) DeleteMany(_ context.Context, ids []uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.DeleteErr != nil {
		return b.DeleteErr
	}
	for _, id := range ids {
		if _, ok := b.blobs[id]; ok {
			delete(b.blobs, id)
			b.Deleted = append(b.Deleted, id)
		}
	}
	return nil
}
