package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hitoshi/devfolio/internal/experience"
	"github.com/hitoshi/devfolio/internal/model"
	"github.com/hitoshi/devfolio/internal/project"
	"github.com/hitoshi/devfolio/internal/skill"
	"github.com/hitoshi/devfolio/internal/sociallink"
)

func TestSkillHandler_CreatePassesPathAndBody(t *testing.T) {
	svc := &mockSkillService{
		createFn: func(_ context.Context, ext, devID string, in skill.Input) (*model.DeveloperSkill, error) {
			assert.Equal(t, "alice", ext)
			assert.Equal(t, "dev-1", devID)
			assert.Equal(t, skill.Input{Name: "Go", Level: 4, YearsOfExperience: 6}, in)
			return &model.DeveloperSkill{ID: "skill-1", DeveloperID: devID, Name: in.Name, Level: in.Level, YearsOfExperience: in.YearsOfExperience}, nil
		},
	}
	body := `{"name":"Go","level":4,"years_of_experience":6}`

	w := httptest.NewRecorder()
	NewSkillHandler(svc).Create(w, newAuthedRequest(http.MethodPost, "/api/developers/dev-1/skills", body, "alice",
		map[string]string{"developerID": "dev-1"}))

	require.Equal(t, http.StatusCreated, w.Code)
	var got skillResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "skill-1", got.ID)
	assert.Equal(t, 4, got.Level)
}

func TestSkillHandler_GetAccessDenied(t *testing.T) {
	svc := &mockSkillService{
		getFn: func(_ context.Context, _, devID, id string) (*model.DeveloperSkill, error) {
			assert.Equal(t, "dev-2", devID)
			assert.Equal(t, "skill-1", id)
			return nil, model.NewAccessDeniedError("スキル")
		},
	}
	w := httptest.NewRecorder()
	NewSkillHandler(svc).Get(w, newAuthedRequest(http.MethodGet, "/", "", "alice",
		map[string]string{"developerID": "dev-2", "skillID": "skill-1"}))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestExperienceHandler_CreateParsesDates(t *testing.T) {
	svc := &mockExperienceService{
		createFn: func(_ context.Context, _, devID string, in experience.Input) (*model.Experience, error) {
			assert.Equal(t, time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC), in.StartDate)
			require.NotNil(t, in.EndDate)
			assert.Equal(t, time.Date(2023, 3, 31, 0, 0, 0, 0, time.UTC), *in.EndDate)
			return &model.Experience{
				ID: "exp-1", DeveloperID: devID, Company: in.Company, Position: in.Position,
				StartDate: in.StartDate, EndDate: in.EndDate,
			}, nil
		},
	}
	body := `{"company":"Acme","position":"SRE","start_date":"2020-04-01","end_date":"2023-03-31"}`

	w := httptest.NewRecorder()
	NewExperienceHandler(svc).Create(w, newAuthedRequest(http.MethodPost, "/", body, "alice",
		map[string]string{"developerID": "dev-1"}))

	require.Equal(t, http.StatusCreated, w.Code)
	var got experienceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "2020-04-01", got.StartDate)
	require.NotNil(t, got.EndDate)
	assert.Equal(t, "2023-03-31", *got.EndDate)
}

func TestExperienceHandler_CurrentPositionHasNullEndDate(t *testing.T) {
	svc := &mockExperienceService{
		getFn: func(context.Context, string, string, string) (*model.Experience, error) {
			return &model.Experience{ID: "exp-1", StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}, nil
		},
	}
	w := httptest.NewRecorder()
	NewExperienceHandler(svc).Get(w, newAuthedRequest(http.MethodGet, "/", "", "alice",
		map[string]string{"developerID": "dev-1", "experienceID": "exp-1"}))

	require.Equal(t, http.StatusOK, w.Code)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.Contains(t, raw, "end_date")
	assert.Nil(t, raw["end_date"])
}

func TestExperienceHandler_RejectsMalformedDate(t *testing.T) {
	called := false
	svc := &mockExperienceService{
		createFn: func(context.Context, string, string, experience.Input) (*model.Experience, error) {
			called = true
			return nil, nil
		},
	}
	bodies := []string{
		`{"company":"Acme","position":"SRE","start_date":"2020/04/01"}`,
		`{"company":"Acme","position":"SRE","start_date":"2020-04-01","end_date":"soon"}`,
	}
	for _, body := range bodies {
		w := httptest.NewRecorder()
		NewExperienceHandler(svc).Create(w, newAuthedRequest(http.MethodPost, "/", body, "alice",
			map[string]string{"developerID": "dev-1"}))
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %s", body)
	}
	assert.False(t, called)
}

func TestProjectHandler_CreateReturnsSkills(t *testing.T) {
	svc := &mockProjectService{
		createFn: func(_ context.Context, _, _ string, in project.Input) (*model.Project, error) {
			assert.Equal(t, []string{"skill-1", "skill-2"}, in.SkillIDs)
			return &model.Project{
				ID:   "proj-1",
				Name: in.Name,
				Skills: []*model.DeveloperSkill{
					{ID: "skill-1", DeveloperID: "dev-1", Name: "Go"},
					{ID: "skill-2", DeveloperID: "dev-1", Name: "PostgreSQL"},
				},
			}, nil
		},
	}
	body := `{"name":"devfolio","skill_ids":["skill-1","skill-2"]}`

	w := httptest.NewRecorder()
	NewProjectHandler(svc).Create(w, newAuthedRequest(http.MethodPost, "/", body, "alice",
		map[string]string{"developerID": "dev-1"}))

	require.Equal(t, http.StatusCreated, w.Code)
	var got projectResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got.Skills, 2)
	assert.Equal(t, "PostgreSQL", got.Skills[1].Name)
}

func TestProjectHandler_DeleteNotFound(t *testing.T) {
	svc := &mockProjectService{
		deleteFn: func(context.Context, string, string, string) error {
			return model.NewNotFoundError("プロジェクト", "proj-1")
		},
	}
	w := httptest.NewRecorder()
	NewProjectHandler(svc).Delete(w, newAuthedRequest(http.MethodDelete, "/", "", "alice",
		map[string]string{"developerID": "dev-1", "projectID": "proj-1"}))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSocialLinkHandler_Update(t *testing.T) {
	svc := &mockSocialLinkService{
		updateFn: func(_ context.Context, _, devID, id string, in sociallink.Input) (*model.SocialLink, error) {
			assert.Equal(t, "link-1", id)
			assert.Equal(t, sociallink.Input{Platform: "github", URL: "https://github.com/alice"}, in)
			return &model.SocialLink{ID: id, DeveloperID: devID, Platform: in.Platform, URL: in.URL}, nil
		},
	}
	body := `{"platform":"github","url":"https://github.com/alice"}`

	w := httptest.NewRecorder()
	NewSocialLinkHandler(svc).Update(w, newAuthedRequest(http.MethodPut, "/", body, "alice",
		map[string]string{"developerID": "dev-1", "linkID": "link-1"}))

	require.Equal(t, http.StatusOK, w.Code)
	var got socialLinkResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "https://github.com/alice", got.URL)
}

func TestSocialLinkHandler_ListRequiresUser(t *testing.T) {
	w := httptest.NewRecorder()
	NewSocialLinkHandler(&mockSocialLinkService{}).List(w, newAuthedRequest(http.MethodGet, "/", "", "",
		map[string]string{"developerID": "dev-1"}))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
