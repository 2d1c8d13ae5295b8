package domain

import (
	"strconv"
	"time"

	"github.com/roach88/mlprov/internal/prov"
)

// Experiment is an MLflow experiment.
type Experiment struct {
	ExperimentID     string          `json:"experiment_id"`
	Name             string          `json:"name"`
	User             *User           `json:"user,omitempty"`
	ArtifactLocation string          `json:"artifact_location"`
	LifecycleStage   LifecycleStage  `json:"lifecycle_stage"`
	Tags             []ExperimentTag `json:"tags,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	LastUpdated      time.Time       `json:"last_updated"`
}

func (e Experiment) Identifier(ns prov.Namespace) prov.QualifiedName {
	return Identifier(ns, TypeExperiment, "experiment_id", e.ExperimentID, "name", e.Name)
}

func (e Experiment) Element(ns prov.Namespace) prov.Element {
	return newAttrs(ns).
		str("experiment_id", e.ExperimentID).
		str("name", e.Name).
		str("artifact_location", e.ArtifactLocation).
		opt("lifecycle_stage", string(e.LifecycleStage)).
		typ(TypeExperiment).
		collection().
		element(prov.KindEntity, e.Identifier(ns))
}

// Run is one execution recorded under an experiment.
type Run struct {
	RunID            string          `json:"run_id"`
	Name             string          `json:"name"`
	ExperimentID     string          `json:"experiment_id"`
	User             *User           `json:"user,omitempty"`
	Status           RunStatus       `json:"status"`
	StartTime        time.Time       `json:"start_time"`
	EndTime          time.Time       `json:"end_time"`
	LifecycleStage   LifecycleStage  `json:"lifecycle_stage,omitempty"`
	ArtifactURI      string          `json:"artifact_uri,omitempty"`
	Metrics          []Metric        `json:"metrics,omitempty"`
	Params           []Param         `json:"params,omitempty"`
	Tags             []RunTag        `json:"tags,omitempty"`
	Artifacts        []Artifact      `json:"artifacts,omitempty"`
	ModelArtifacts   []ModelArtifact `json:"model_artifacts,omitempty"`
	Note             string          `json:"note,omitempty"`
	SourceType       SourceType      `json:"source_type,omitempty"`
	SourceName       string          `json:"source_name,omitempty"`
	SourceGitCommit  string          `json:"source_git_commit,omitempty"`
	SourceGitBranch  string          `json:"source_git_branch,omitempty"`
	SourceGitRepoURL string          `json:"source_git_repo_url,omitempty"`
}

func (r Run) Identifier(ns prov.Namespace) prov.QualifiedName {
	return Identifier(ns, TypeRun, "run_id", r.RunID, "name", r.Name)
}

func (r Run) Element(ns prov.Namespace) prov.Element {
	return newAttrs(ns).
		str("run_id", r.RunID).
		str("name", r.Name).
		str("status", string(r.Status)).
		opt("lifecycle_stage", string(r.LifecycleStage)).
		opt("artifact_uri", r.ArtifactURI).
		opt("note", r.Note).
		typ(TypeRun).
		collection().
		element(prov.KindEntity, r.Identifier(ns))
}

// Metric is one logged metric value of a run.
type Metric struct {
	RunID     string    `json:"run_id"`
	Name      string    `json:"name"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
	Step      int64     `json:"step"`
}

func (m Metric) Identifier(ns prov.Namespace) prov.QualifiedName {
	return Identifier(ns, TypeMetric, "run_id", m.RunID, "name", m.Name, "step", strconv.FormatInt(m.Step, 10))
}

func (m Metric) Element(ns prov.Namespace) prov.Element {
	return newAttrs(ns).
		str("name", m.Name).
		set("value", prov.Float(m.Value)).
		at("timestamp", m.Timestamp).
		set("step", prov.Int(m.Step)).
		typ(TypeMetric).
		element(prov.KindEntity, m.Identifier(ns))
}

// Param is one logged parameter of a run.
type Param struct {
	RunID string `json:"run_id"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (p Param) Identifier(ns prov.Namespace) prov.QualifiedName {
	return Identifier(ns, TypeParam, "run_id", p.RunID, "name", p.Name)
}

func (p Param) Element(ns prov.Namespace) prov.Element {
	return newAttrs(ns).
		str("name", p.Name).
		str("value", p.Value).
		typ(TypeParam).
		element(prov.KindEntity, p.Identifier(ns))
}

// Artifact is a file or directory stored with a run.
type Artifact struct {
	RunID    string `json:"run_id"`
	Path     string `json:"path"`
	IsDir    bool   `json:"is_dir"`
	FileSize int64  `json:"file_size"`
}

func (a Artifact) Identifier(ns prov.Namespace) prov.QualifiedName {
	return Identifier(ns, TypeArtifact, "run_id", a.RunID, "path", a.Path)
}

func (a Artifact) Element(ns prov.Namespace) prov.Element {
	return artifactElement(ns, a, TypeArtifact, a.Identifier(ns))
}

// ModelArtifact is an artifact directory holding a model descriptor.
// Artifact is the plain artifact stored at the same path, when known.
type ModelArtifact struct {
	RunID    string    `json:"run_id"`
	Path     string    `json:"path"`
	IsDir    bool      `json:"is_dir"`
	FileSize int64     `json:"file_size"`
	Artifact *Artifact `json:"artifact,omitempty"`
}

func (m ModelArtifact) Identifier(ns prov.Namespace) prov.QualifiedName {
	return Identifier(ns, TypeModelArtifact, "run_id", m.RunID, "path", m.Path)
}

func (m ModelArtifact) Element(ns prov.Namespace) prov.Element {
	a := Artifact{RunID: m.RunID, Path: m.Path, IsDir: m.IsDir, FileSize: m.FileSize}
	return artifactElement(ns, a, TypeModelArtifact, m.Identifier(ns))
}

func artifactElement(ns prov.Namespace, a Artifact, t Type, id prov.QualifiedName) prov.Element {
	return newAttrs(ns).
		str("path", a.Path).
		set("is_dir", prov.Bool(a.IsDir)).
		set("file_size", prov.Int(a.FileSize)).
		typ(t).
		element(prov.KindEntity, id)
}

// ExperimentTag is a key/value tag on an experiment.
type ExperimentTag struct {
	Name         string `json:"name"`
	Value        string `json:"value"`
	ExperimentID string `json:"experiment_id"`
}

func (t ExperimentTag) Identifier(ns prov.Namespace) prov.QualifiedName {
	return Identifier(ns, TypeExperimentTag, "experiment_id", t.ExperimentID, "name", t.Name)
}

func (t ExperimentTag) Element(ns prov.Namespace) prov.Element {
	return tagElement(ns, t.Name, t.Value, TypeExperimentTag, t.Identifier(ns))
}

// RunTag is a key/value tag on a run.
type RunTag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	RunID string `json:"run_id"`
}

func (t RunTag) Identifier(ns prov.Namespace) prov.QualifiedName {
	return Identifier(ns, TypeRunTag, "run_id", t.RunID, "name", t.Name)
}

func (t RunTag) Element(ns prov.Namespace) prov.Element {
	return tagElement(ns, t.Name, t.Value, TypeRunTag, t.Identifier(ns))
}

func tagElement(ns prov.Namespace, name, value string, t Type, id prov.QualifiedName) prov.Element {
	return newAttrs(ns).
		str("name", name).
		str("value", value).
		typ(t).
		element(prov.KindEntity, id)
}
