package mlflow

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/roach88/mlprov/internal/domain"
)

const (
	pageSize = 1000

	tagUser          = "mlflow.user"
	tagNote          = "mlflow.note.content"
	tagSourceType    = "mlflow.source.type"
	tagSourceName    = "mlflow.source.name"
	tagGitCommit     = "mlflow.source.git.commit"
	tagGitBranch     = "mlflow.source.git.branch"
	tagGitRepoURL    = "mlflow.source.git.repoURL"
	modelMarkerFile  = "MLmodel"
	viewTypeAll      = "ALL"
	orderByID        = "experiment_id ASC"
	orderByStartTime = "start_time ASC"
)

// FetchAll returns every experiment, run and registered model on the
// server, in that order.
func (client *Client) FetchAll(ctx context.Context) ([]domain.Fact, error) {
	experiments, err := client.Experiments(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(experiments))
	for i, e := range experiments {
		ids[i] = e.ExperimentID
	}
	runs, err := client.Runs(ctx, ids)
	if err != nil {
		return nil, err
	}
	models, err := client.RegisteredModels(ctx)
	if err != nil {
		return nil, err
	}
	client.logger.Info("fetched tracking server",
		"tracking_uri", client.baseURL,
		"experiments", len(experiments),
		"runs", len(runs),
		"registered_models", len(models))

	facts := make([]domain.Fact, 0, len(experiments)+len(runs)+len(models))
	for _, e := range experiments {
		facts = append(facts, e)
	}
	for _, r := range runs {
		facts = append(facts, r)
	}
	for _, m := range models {
		facts = append(facts, m)
	}
	return facts, nil
}

// Experiments lists active and deleted experiments.
func (client *Client) Experiments(ctx context.Context) ([]domain.Experiment, error) {
	var out []domain.Experiment
	request := searchExperimentsRequest{MaxResults: pageSize, ViewType: viewTypeAll, OrderBy: []string{orderByID}}
	for {
		var response searchExperimentsResponse
		if err := client.post(ctx, "experiments/search", request, &response); err != nil {
			return nil, err
		}
		for _, e := range response.Experiments {
			converted, err := convertExperiment(e)
			if err != nil {
				return nil, err
			}
			out = append(out, converted)
		}
		if response.NextPageToken == "" {
			return out, nil
		}
		request.PageToken = response.NextPageToken
	}
}

func convertExperiment(e experiment) (domain.Experiment, error) {
	stage, err := parseStage(e.LifecycleStage)
	if err != nil {
		return domain.Experiment{}, fmt.Errorf("experiment %s: %w", e.ExperimentID, err)
	}
	out := domain.Experiment{
		ExperimentID:     e.ExperimentID,
		Name:             e.Name,
		User:             user(e.Tags.get(tagUser), domain.RoleExperimentAuthor),
		ArtifactLocation: e.ArtifactLocation,
		LifecycleStage:   stage,
		CreatedAt:        e.CreationTime.Time(),
		LastUpdated:      e.LastUpdateTime.Time(),
	}
	for _, t := range e.Tags {
		out.Tags = append(out.Tags, domain.ExperimentTag{ExperimentID: e.ExperimentID, Name: t.Key, Value: t.Value})
	}
	return out, nil
}

// Runs lists the active and deleted runs of the given experiments, with
// their artifacts.
func (client *Client) Runs(ctx context.Context, experimentIDs []string) ([]domain.Run, error) {
	if len(experimentIDs) == 0 {
		return nil, nil
	}
	var out []domain.Run
	request := searchRunsRequest{
		ExperimentIDs: experimentIDs,
		RunViewType:   viewTypeAll,
		MaxResults:    pageSize,
		OrderBy:       []string{orderByStartTime},
	}
	for {
		var response searchRunsResponse
		if err := client.post(ctx, "runs/search", request, &response); err != nil {
			return nil, err
		}
		for _, r := range response.Runs {
			converted, err := client.convertRun(ctx, r)
			if err != nil {
				return nil, err
			}
			out = append(out, converted)
		}
		if response.NextPageToken == "" {
			return out, nil
		}
		request.PageToken = response.NextPageToken
	}
}

func (client *Client) convertRun(ctx context.Context, r run) (domain.Run, error) {
	info := r.Info
	status, err := domain.ParseRunStatus(info.Status)
	if err != nil {
		return domain.Run{}, fmt.Errorf("run %s: %w", info.RunID, err)
	}
	stage, err := parseStage(info.LifecycleStage)
	if err != nil {
		return domain.Run{}, fmt.Errorf("run %s: %w", info.RunID, err)
	}

	username := info.UserID
	if username == "" {
		username = r.Data.Tags.get(tagUser)
	}
	out := domain.Run{
		RunID:            info.RunID,
		Name:             info.RunName,
		ExperimentID:     info.ExperimentID,
		User:             user(username, domain.RoleRunAuthor),
		Status:           status,
		StartTime:        info.StartTime.Time(),
		EndTime:          info.EndTime.Time(),
		LifecycleStage:   stage,
		ArtifactURI:      info.ArtifactURI,
		Note:             r.Data.Tags.get(tagNote),
		SourceName:       strings.TrimSpace(r.Data.Tags.get(tagSourceName)),
		SourceGitCommit:  r.Data.Tags.get(tagGitCommit),
		SourceGitBranch:  r.Data.Tags.get(tagGitBranch),
		SourceGitRepoURL: r.Data.Tags.get(tagGitRepoURL),
	}
	if s := r.Data.Tags.get(tagSourceType); s != "" {
		if out.SourceType, err = domain.ParseSourceType(s); err != nil {
			client.logger.Warn("unknown run source type", "run_id", info.RunID, "source_type", s)
			out.SourceType = domain.SourceUnknown
		}
	}

	for _, m := range r.Data.Metrics {
		out.Metrics = append(out.Metrics, domain.Metric{
			RunID:     info.RunID,
			Name:      m.Key,
			Value:     m.Value,
			Timestamp: m.Timestamp.Time(),
			Step:      int64(m.Step),
		})
	}
	for _, p := range r.Data.Params {
		out.Params = append(out.Params, domain.Param{RunID: info.RunID, Name: p.Key, Value: p.Value})
	}
	for _, t := range r.Data.Tags {
		out.Tags = append(out.Tags, domain.RunTag{
			RunID: info.RunID,
			Name:  strings.TrimSpace(t.Key),
			Value: strings.TrimSpace(t.Value),
		})
	}

	artifacts, models, err := client.Artifacts(ctx, info.RunID)
	if err != nil {
		return domain.Run{}, err
	}
	out.Artifacts = artifacts
	out.ModelArtifacts = models
	return out, nil
}

// Artifacts walks the artifact tree of a run. Every directory holding an
// MLmodel file is also returned as a model artifact that specializes the
// plain artifact at the same path.
func (client *Client) Artifacts(ctx context.Context, runID string) ([]domain.Artifact, []domain.ModelArtifact, error) {
	var artifacts []domain.Artifact
	var models []domain.ModelArtifact

	var walk func(dir string) error
	walk = func(dir string) error {
		files, err := client.listArtifacts(ctx, runID, dir)
		if err != nil {
			return err
		}
		for _, f := range files {
			a := domain.Artifact{RunID: runID, Path: f.Path, IsDir: f.IsDir, FileSize: int64(f.FileSize)}
			artifacts = append(artifacts, a)
			if !f.IsDir && path.Base(f.Path) == modelMarkerFile && dir != "" {
				parent := dirArtifact(artifacts, dir)
				models = append(models, domain.ModelArtifact{
					RunID:    runID,
					Path:     parent.Path,
					IsDir:    parent.IsDir,
					FileSize: parent.FileSize,
					Artifact: &parent,
				})
			}
			if f.IsDir {
				if err := walk(f.Path); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk(""); err != nil {
		return nil, nil, err
	}
	return artifacts, models, nil
}

func dirArtifact(artifacts []domain.Artifact, dir string) domain.Artifact {
	for _, a := range artifacts {
		if a.Path == dir {
			return a
		}
	}
	return domain.Artifact{Path: dir, IsDir: true}
}

func (client *Client) listArtifacts(ctx context.Context, runID, dir string) ([]fileInfo, error) {
	var out []fileInfo
	query := url.Values{"run_id": {runID}}
	if dir != "" {
		query.Set("path", dir)
	}
	for {
		var response listArtifactsResponse
		if err := client.get(ctx, "artifacts/list", query, &response); err != nil {
			return nil, err
		}
		out = append(out, response.Files...)
		if response.NextPageToken == "" {
			return out, nil
		}
		query.Set("page_token", response.NextPageToken)
	}
}

// RegisteredModels lists every registered model with all of its versions.
func (client *Client) RegisteredModels(ctx context.Context) ([]domain.RegisteredModel, error) {
	var out []domain.RegisteredModel
	query := url.Values{"max_results": {fmt.Sprint(pageSize)}}
	for {
		var response searchRegisteredModelsResponse
		if err := client.get(ctx, "registered-models/search", query, &response); err != nil {
			return nil, err
		}
		for _, m := range response.RegisteredModels {
			versions, err := client.ModelVersions(ctx, m.Name)
			if err != nil {
				return nil, err
			}
			model := domain.RegisteredModel{
				Name:          m.Name,
				CreatedAt:     m.CreationTimestamp.Time(),
				LastUpdatedAt: m.LastUpdatedTimestamp.Time(),
				Description:   m.Description,
				User:          user(m.Tags.get(tagUser), domain.RoleRegisteredModelAuthor),
				Versions:      versions,
			}
			for _, t := range m.Tags {
				model.Tags = append(model.Tags, domain.RegisteredModelTag{RegisteredModelName: m.Name, Name: t.Key, Value: t.Value})
			}
			out = append(out, model)
		}
		if response.NextPageToken == "" {
			return out, nil
		}
		query.Set("page_token", response.NextPageToken)
	}
}

// ModelVersions lists the versions of one registered model.
func (client *Client) ModelVersions(ctx context.Context, name string) ([]domain.RegisteredModelVersion, error) {
	var out []domain.RegisteredModelVersion
	query := url.Values{
		"filter":      {fmt.Sprintf("name='%s'", strings.ReplaceAll(name, "'", "\\'"))},
		"max_results": {fmt.Sprint(pageSize)},
	}
	for {
		var response searchModelVersionsResponse
		if err := client.get(ctx, "model-versions/search", query, &response); err != nil {
			return nil, err
		}
		for _, v := range response.ModelVersions {
			stage, err := domain.ParseModelVersionStage(v.CurrentStage)
			if err != nil {
				return nil, fmt.Errorf("model %s version %s: %w", v.Name, v.Version, err)
			}
			version := domain.RegisteredModelVersion{
				Name:          v.Name,
				Version:       v.Version,
				CreatedAt:     v.CreationTimestamp.Time(),
				LastUpdatedAt: v.LastUpdatedTimestamp.Time(),
				Description:   v.Description,
				User:          user(v.UserID, domain.RoleRegisteredModelVersionAuthor),
				Stage:         stage,
				SourcePath:    v.Source,
				RunID:         v.RunID,
				Status:        v.Status,
				StatusMessage: v.StatusMessage,
				RunLink:       v.RunLink,
			}
			for _, t := range v.Tags {
				version.Tags = append(version.Tags, domain.RegisteredModelVersionTag{
					RegisteredModelName:    v.Name,
					RegisteredModelVersion: v.Version,
					Name:                   t.Key,
					Value:                  t.Value,
				})
			}
			out = append(out, version)
		}
		if response.NextPageToken == "" {
			return out, nil
		}
		query.Set("page_token", response.NextPageToken)
	}
}

// user parses a user string. Empty strings mean no user.
func user(s string, role domain.Role) *domain.User {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	u := domain.ParseUser(s, role)
	return &u
}

// parseStage maps an empty lifecycle stage to active.
func parseStage(s string) (domain.LifecycleStage, error) {
	if s == "" {
		return domain.LifecycleActive, nil
	}
	return domain.ParseLifecycleStage(s)
}
