package experience

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hitoshi/devfolio/internal/access"
	"github.com/hitoshi/devfolio/internal/access/accesstest"
	"github.com/hitoshi/devfolio/internal/model"
	"github.com/hitoshi/devfolio/internal/security"
)

type stubDeveloperRepo struct {
	rows map[string]*model.Developer
}

func (r *stubDeveloperRepo) FindByID(ctx context.Context, id string) (*model.Developer, error) {
	return r.rows[id], nil
}
func (r *stubDeveloperRepo) List(ctx context.Context) ([]*model.Developer, error) { return nil, nil }
func (r *stubDeveloperRepo) Create(ctx context.Context, d *model.Developer) error  { return nil }
func (r *stubDeveloperRepo) Update(ctx context.Context, d *model.Developer) error  { return nil }
func (r *stubDeveloperRepo) Delete(ctx context.Context, id string) error           { return nil }

type memoryExperienceRepo struct {
	rows map[string]*model.Experience
}

func (r *memoryExperienceRepo) FindByID(ctx context.Context, id string) (*model.Experience, error) {
	e, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}
func (r *memoryExperienceRepo) ListByDeveloperID(ctx context.Context, developerID string) ([]*model.Experience, error) {
	var out []*model.Experience
	for _, e := range r.rows {
		if e.DeveloperID == developerID {
			out = append(out, e)
		}
	}
	return out, nil
}
func (r *memoryExperienceRepo) Create(ctx context.Context, e *model.Experience) error {
	r.rows[e.ID] = e
	return nil
}
func (r *memoryExperienceRepo) Update(ctx context.Context, e *model.Experience) error {
	r.rows[e.ID] = e
	return nil
}
func (r *memoryExperienceRepo) Delete(ctx context.Context, id string) error {
	delete(r.rows, id)
	return nil
}

var alice = &model.Developer{ID: "dev-alice", Name: "Alice", CreatedByID: "alice"}

func newService() (*Service, *memoryExperienceRepo, *accesstest.Directory) {
	repo := &memoryExperienceRepo{rows: map[string]*model.Experience{}}
	devs := &stubDeveloperRepo{rows: map[string]*model.Developer{alice.ID: alice}}
	users := accesstest.NewDirectory()
	devAccess := access.NewDeveloperAccessor(users, nil)
	svc := NewService(repo, devs, devAccess, access.NewExperienceAccessor(devAccess), security.NewContentSanitizer())
	return svc, repo, users
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCreate_CurrentPosition(t *testing.T) {
	svc, repo, _ := newService()

	e, err := svc.Create(context.Background(), "alice", alice.ID, Input{
		Company:     "Example Inc.",
		Position:    "Engineer",
		Description: `<ul><li>API設計</li></ul><img src="x">`,
		StartDate:   time.Date(2020, 4, 1, 15, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Nil(t, e.EndDate)
	assert.Equal(t, date(2020, 4, 1), e.StartDate)
	assert.Equal(t, "<ul><li>API設計</li></ul>", e.Description)
	assert.Contains(t, repo.rows, e.ID)
}

func TestCreate_Validation(t *testing.T) {
	svc, _, _ := newService()
	end := date(2019, 1, 1)

	tests := []struct {
		name string
		in   Input
	}{
		{"会社名が空", Input{Position: "Engineer", StartDate: date(2020, 1, 1)}},
		{"役職が空", Input{Company: "Example", StartDate: date(2020, 1, 1)}},
		{"開始日が未指定", Input{Company: "Example", Position: "Engineer"}},
		{"終了日が開始日より前", Input{Company: "Example", Position: "Engineer", StartDate: date(2020, 1, 1), EndDate: &end}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "alice", alice.ID, tt.in)
			assert.ErrorIs(t, err, model.ErrValidation)
		})
	}
}

func TestAccess(t *testing.T) {
	svc, repo, users := newService()
	repo.rows["exp-1"] = &model.Experience{ID: "exp-1", DeveloperID: alice.ID, Developer: alice, Company: "Example"}

	_, err := svc.Get(context.Background(), "bob", alice.ID, "exp-1")
	assert.ErrorIs(t, err, model.ErrAccessDenied)

	_, err = svc.List(context.Background(), "bob", alice.ID)
	assert.ErrorIs(t, err, model.ErrAccessDenied)

	users.GrantDeveloper("bob", alice.ID)
	got, err := svc.Get(context.Background(), "bob", alice.ID, "exp-1")
	require.NoError(t, err)
	assert.Equal(t, "Example", got.Company)

	list, err := svc.List(context.Background(), "bob", alice.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	// 親が異なるURLでは拒否
	_, err = svc.Get(context.Background(), "bob", "dev-other", "exp-1")
	assert.ErrorIs(t, err, model.ErrAccessDenied)

	_, err = svc.Get(context.Background(), "bob", alice.ID, "exp-missing")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = svc.Create(context.Background(), "bob", "dev-missing", Input{Company: "X", Position: "Y", StartDate: date(2020, 1, 1)})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestUpdateAndDelete(t *testing.T) {
	svc, repo, _ := newService()
	repo.rows["exp-1"] = &model.Experience{ID: "exp-1", DeveloperID: alice.ID, Developer: alice, Company: "Example"}
	end := date(2023, 3, 31)

	e, err := svc.Update(context.Background(), "alice", alice.ID, "exp-1", Input{
		Company: "Example", Position: "Lead", StartDate: date(2020, 4, 1), EndDate: &end,
	})
	require.NoError(t, err)
	require.NotNil(t, e.EndDate)
	assert.Equal(t, end, *e.EndDate)
	assert.Equal(t, "Lead", repo.rows["exp-1"].Position)

	require.NoError(t, svc.Delete(context.Background(), "alice", alice.ID, "exp-1"))
	assert.NotContains(t, repo.rows, "exp-1")
}
