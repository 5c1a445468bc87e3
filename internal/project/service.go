package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/inamate/graphselect/internal/curve"
	"github.com/inamate/graphselect/internal/db"
	"github.com/inamate/graphselect/internal/document"
	"github.com/inamate/graphselect/internal/engine"
	"github.com/inamate/graphselect/internal/typeid"
)

var (
	ErrNotFound         = errors.New("project not found")
	ErrNotMember        = errors.New("not a project member")
	ErrTimelineNotFound = errors.New("timeline not found")
	ErrInvalidSelection = errors.New("invalid selection rectangle")
)

// Store is the subset of db.Queries the project service uses.
type Store interface {
	CreateProject(ctx context.Context, arg db.CreateProjectParams) (db.Project, error)
	GetProject(ctx context.Context, id string) (db.Project, error)
	ListProjectsForUser(ctx context.Context, userID string) ([]db.Project, error)
	AddProjectMember(ctx context.Context, arg db.AddProjectMemberParams) error
	GetProjectMember(ctx context.Context, arg db.GetProjectMemberParams) (db.ProjectMember, error)
	CreateSnapshot(ctx context.Context, arg db.CreateSnapshotParams) (db.Snapshot, error)
	GetLatestSnapshot(ctx context.Context, projectID string) (db.Snapshot, error)
}

type Service struct {
	store      Store
	selectOpts engine.SelectOptions
}

func NewService(store Store, opts engine.SelectOptions) *Service {
	return &Service{store: store, selectOpts: opts}
}

type Project struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   string `json:"ownerId"`
	FPS       int    `json:"fps"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// CurveSelectRequest is a box select evaluated against the latest snapshot.
// An empty TimelineID means the project's root timeline.
type CurveSelectRequest struct {
	TimelineID string `json:"timelineId,omitempty"`
	engine.BoxSelect
}

func (s *Service) Create(ctx context.Context, name, ownerID string) (*Project, error) {
	projectID := typeid.NewProjectID()

	dbProj, err := s.store.CreateProject(ctx, db.CreateProjectParams{
		ID:      projectID,
		Name:    name,
		OwnerID: ownerID,
		Fps:     24,
	})
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	err = s.store.AddProjectMember(ctx, db.AddProjectMemberParams{
		ProjectID: projectID,
		UserID:    ownerID,
		Role:      db.ProjectRoleOwner,
	})
	if err != nil {
		return nil, fmt.Errorf("add owner as member: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	emptyDoc := document.NewEmptyDocument(projectID, name, typeid.NewTimelineID())
	emptyDoc.Project.CreatedAt = now
	emptyDoc.Project.UpdatedAt = now
	docJSON, err := json.Marshal(emptyDoc)
	if err != nil {
		return nil, fmt.Errorf("marshal empty document: %w", err)
	}

	_, err = s.store.CreateSnapshot(ctx, db.CreateSnapshotParams{
		ID:        typeid.NewSnapshotID(),
		ProjectID: projectID,
		Version:   1,
		Document:  docJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("create initial snapshot: %w", err)
	}

	return toProject(dbProj), nil
}

func (s *Service) Get(ctx context.Context, projectID, userID string) (*Project, error) {
	if err := s.checkMembership(ctx, projectID, userID); err != nil {
		return nil, err
	}

	dbProj, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get project: %w", err)
	}

	return toProject(dbProj), nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Project, error) {
	dbProjects, err := s.store.ListProjectsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	projects := make([]Project, len(dbProjects))
	for i, p := range dbProjects {
		projects[i] = *toProject(p)
	}
	return projects, nil
}

func (s *Service) GetLatestSnapshot(ctx context.Context, projectID, userID string) (json.RawMessage, error) {
	if err := s.checkMembership(ctx, projectID, userID); err != nil {
		return nil, err
	}

	snap, err := s.store.GetLatestSnapshot(ctx, projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get latest snapshot: %w", err)
	}
	return snap.Document, nil
}

// SelectCurves reports which curves of the latest snapshot a box select
// would hit. The stored document is not changed.
func (s *Service) SelectCurves(ctx context.Context, projectID, userID string, req CurveSelectRequest) (*engine.SelectResult, error) {
	raw, err := s.GetLatestSnapshot(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}

	var doc document.InDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	timelineID := req.TimelineID
	if timelineID == "" {
		timelineID = doc.Project.RootTimeline
	}
	if _, ok := doc.Timelines[timelineID]; !ok {
		return nil, ErrTimelineNotFound
	}

	result, err := engine.FindCurves(ctx, &doc, timelineID, req.BoxSelect, s.selectOpts)
	if err != nil {
		if errors.Is(err, curve.ErrInvalidRect) || errors.Is(err, curve.ErrRectTooLarge) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSelection, err)
		}
		return nil, fmt.Errorf("select curves: %w", err)
	}
	return &result, nil
}

func (s *Service) checkMembership(ctx context.Context, projectID, userID string) error {
	_, err := s.store.GetProjectMember(ctx, db.GetProjectMemberParams{
		ProjectID: projectID,
		UserID:    userID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotMember
		}
		return fmt.Errorf("check membership: %w", err)
	}
	return nil
}

func toProject(p db.Project) *Project {
	return &Project{
		ID:        p.ID,
		Name:      p.Name,
		OwnerID:   p.OwnerID,
		FPS:       int(p.Fps),
		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
