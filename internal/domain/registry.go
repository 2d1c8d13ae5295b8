package domain

import (
	"time"

	"github.com/roach88/mlprov/internal/prov"
)

// RegisteredModel is a named model in the MLflow model registry.
type RegisteredModel struct {
	Name          string                   `json:"name"`
	CreatedAt     time.Time                `json:"created_at"`
	LastUpdatedAt time.Time                `json:"last_updated_at"`
	Description   string                   `json:"description,omitempty"`
	User          *User                    `json:"user,omitempty"`
	Versions      []RegisteredModelVersion `json:"versions,omitempty"`
	Tags          []RegisteredModelTag     `json:"tags,omitempty"`
}

func (m RegisteredModel) Identifier(ns prov.Namespace) prov.QualifiedName {
	return Identifier(ns, TypeRegisteredModel, "name", m.Name)
}

func (m RegisteredModel) Element(ns prov.Namespace) prov.Element {
	return newAttrs(ns).
		str("name", m.Name).
		at("created_at", m.CreatedAt).
		at("last_updated_at", m.LastUpdatedAt).
		opt("description", m.Description).
		typ(TypeRegisteredModel).
		collection().
		element(prov.KindEntity, m.Identifier(ns))
}

// RegisteredModelVersion is one version of a registered model. RunID
// links it to the run that produced it, if any.
type RegisteredModelVersion struct {
	Name          string                      `json:"name"`
	Version       string                      `json:"version"`
	CreatedAt     time.Time                   `json:"created_at"`
	LastUpdatedAt time.Time                   `json:"last_updated_at"`
	Description   string                      `json:"description,omitempty"`
	User          *User                       `json:"user,omitempty"`
	Stage         ModelVersionStage           `json:"stage,omitempty"`
	SourcePath    string                      `json:"source_path,omitempty"`
	RunID         string                      `json:"run_id,omitempty"`
	Status        string                      `json:"status"`
	StatusMessage string                      `json:"status_message,omitempty"`
	Tags          []RegisteredModelVersionTag `json:"tags,omitempty"`
	RunLink       string                      `json:"run_link,omitempty"`
}

func (v RegisteredModelVersion) Identifier(ns prov.Namespace) prov.QualifiedName {
	return Identifier(ns, TypeRegisteredModelVersion, "name", v.Name, "version", v.Version)
}

func (v RegisteredModelVersion) Element(ns prov.Namespace) prov.Element {
	return newAttrs(ns).
		str("name", v.Name).
		str("version", v.Version).
		at("created_at", v.CreatedAt).
		at("last_updated_at", v.LastUpdatedAt).
		opt("description", v.Description).
		opt("registered_model_version_stage", string(v.Stage)).
		opt("source_path", v.SourcePath).
		str("status", v.Status).
		opt("status_message", v.StatusMessage).
		opt("run_link", v.RunLink).
		typ(TypeRegisteredModelVersion).
		collection().
		element(prov.KindEntity, v.Identifier(ns))
}

// RegisteredModelTag is a key/value tag on a registered model.
type RegisteredModelTag struct {
	Name                string `json:"name"`
	Value               string `json:"value"`
	RegisteredModelName string `json:"registered_model_name"`
}

func (t RegisteredModelTag) Identifier(ns prov.Namespace) prov.QualifiedName {
	return Identifier(ns, TypeRegisteredModelTag, "registered_model_name", t.RegisteredModelName, "name", t.Name)
}

func (t RegisteredModelTag) Element(ns prov.Namespace) prov.Element {
	return tagElement(ns, t.Name, t.Value, TypeRegisteredModelTag, t.Identifier(ns))
}

// RegisteredModelVersionTag is a key/value tag on a model version.
type RegisteredModelVersionTag struct {
	Name                   string `json:"name"`
	Value                  string `json:"value"`
	RegisteredModelName    string `json:"registered_model_name"`
	RegisteredModelVersion string `json:"registered_model_version"`
}

func (t RegisteredModelVersionTag) Identifier(ns prov.Namespace) prov.QualifiedName {
	return Identifier(ns, TypeRegisteredModelVersionTag,
		"registered_model_name", t.RegisteredModelName,
		"registered_model_version", t.RegisteredModelVersion,
		"name", t.Name)
}

func (t RegisteredModelVersionTag) Element(ns prov.Namespace) prov.Element {
	return tagElement(ns, t.Name, t.Value, TypeRegisteredModelVersionTag, t.Identifier(ns))
}
