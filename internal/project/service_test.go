package project

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/graphselect/internal/auth"
	"github.com/inamate/graphselect/internal/curve"
	"github.com/inamate/graphselect/internal/db"
	"github.com/inamate/graphselect/internal/document"
	"github.com/inamate/graphselect/internal/engine"
)

type memStore struct {
	mu        sync.Mutex
	projects  map[string]db.Project
	members   map[[2]string]db.ProjectRole
	snapshots map[string]db.Snapshot
}

func newMemStore() *memStore {
	return &memStore{
		projects:  map[string]db.Project{},
		members:   map[[2]string]db.ProjectRole{},
		snapshots: map[string]db.Snapshot{},
	}
}

func (m *memStore) CreateProject(_ context.Context, arg db.CreateProjectParams) (db.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	p := db.Project{ID: arg.ID, Name: arg.Name, OwnerID: arg.OwnerID, Fps: arg.Fps, CreatedAt: now, UpdatedAt: now}
	m.projects[p.ID] = p
	return p, nil
}

func (m *memStore) GetProject(_ context.Context, id string) (db.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return db.Project{}, pgx.ErrNoRows
	}
	return p, nil
}

func (m *memStore) ListProjectsForUser(_ context.Context, userID string) ([]db.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.Project
	for key := range m.members {
		if key[1] == userID {
			out = append(out, m.projects[key[0]])
		}
	}
	return out, nil
}

func (m *memStore) AddProjectMember(_ context.Context, arg db.AddProjectMemberParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[[2]string{arg.ProjectID, arg.UserID}] = arg.Role
	return nil
}

func (m *memStore) GetProjectMember(_ context.Context, arg db.GetProjectMemberParams) (db.ProjectMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	role, ok := m.members[[2]string{arg.ProjectID, arg.UserID}]
	if !ok {
		return db.ProjectMember{}, pgx.ErrNoRows
	}
	return db.ProjectMember{ProjectID: arg.ProjectID, UserID: arg.UserID, Role: role}, nil
}

func (m *memStore) CreateSnapshot(_ context.Context, arg db.CreateSnapshotParams) (db.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := db.Snapshot{ID: arg.ID, ProjectID: arg.ProjectID, Version: arg.Version, Document: arg.Document, CreatedAt: time.Now()}
	m.snapshots[arg.ProjectID] = s
	return s, nil
}

func (m *memStore) GetLatestSnapshot(_ context.Context, projectID string) (db.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.snapshots[projectID]
	if !ok {
		return db.Snapshot{}, pgx.ErrNoRows
	}
	return s, nil
}

// seedSample replaces the project's snapshot with the sample document and
// returns the ID of its transform.x track.
func seedSample(t *testing.T, store *memStore, projectID string) string {
	t.Helper()
	doc := document.NewSampleDocument(projectID)
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	_, err = store.CreateSnapshot(context.Background(), db.CreateSnapshotParams{ProjectID: projectID, Version: 2, Document: raw})
	require.NoError(t, err)

	for id, tr := range doc.Tracks {
		if tr.Property == "transform.x" {
			return id
		}
	}
	t.Fatal("sample document has no transform.x track")
	return ""
}

func TestCreateSeedsEmptyDocument(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewService(store, engine.DefaultSelectOptions())

	p, err := svc.Create(ctx, "Walk cycle", "user_1")
	require.NoError(t, err)
	assert.Equal(t, 24, p.FPS)

	raw, err := svc.GetLatestSnapshot(ctx, p.ID, "user_1")
	require.NoError(t, err)
	var doc document.InDocument
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "Walk cycle", doc.Project.Name)
	assert.Contains(t, doc.Timelines, doc.Project.RootTimeline)

	list, err := svc.List(ctx, "user_1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.Get(ctx, p.ID, "user_2")
	assert.ErrorIs(t, err, ErrNotMember)
}

func TestSelectCurvesDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewService(store, engine.DefaultSelectOptions())

	p, err := svc.Create(ctx, "Ball", "user_1")
	require.NoError(t, err)
	xTrack := seedSample(t, store, p.ID)
	before := store.snapshots[p.ID].Document

	res, err := svc.SelectCurves(ctx, p.ID, "user_1", CurveSelectRequest{
		BoxSelect: engine.BoxSelect{
			Start: curve.Point{Time: 30, Value: 295},
			End:   curve.Point{Time: 32, Value: 330},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{xTrack}, res.Hits)
	assert.Empty(t, res.Skipped)
	assert.Equal(t, string(before), string(store.snapshots[p.ID].Document))

	_, err = svc.SelectCurves(ctx, p.ID, "user_1", CurveSelectRequest{
		BoxSelect: engine.BoxSelect{End: curve.Point{Time: 1e15, Value: 1}},
	})
	assert.ErrorIs(t, err, ErrInvalidSelection)

	_, err = svc.SelectCurves(ctx, p.ID, "user_1", CurveSelectRequest{TimelineID: "tl_missing"})
	assert.ErrorIs(t, err, ErrTimelineNotFound)
}

func TestSelectCurvesHandler(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, engine.DefaultSelectOptions())
	p, err := svc.Create(context.Background(), "Ball", "user_1")
	require.NoError(t, err)
	xTrack := seedSample(t, store, p.ID)

	h := NewHandler(svc)
	router := mux.NewRouter()
	router.HandleFunc("/api/projects/{projectId}/curves/select", h.SelectCurves).Methods(http.MethodPost)

	do := func(userID, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/projects/"+p.ID+"/curves/select", strings.NewReader(body))
		req = req.WithContext(context.WithValue(req.Context(), auth.UserIDKey, userID))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	rec := do("user_1", `{"start":{"time":30,"value":295},"end":{"time":32,"value":330}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var res engine.SelectResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, []string{xTrack}, res.Hits)

	assert.Equal(t, http.StatusBadRequest, do("user_1", `{"start":{"time":-1e300,"value":0},"end":{"time":1e300,"value":1}}`).Code)
	assert.Equal(t, http.StatusForbidden, do("user_2", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, do("user_1", `{`).Code)
}
