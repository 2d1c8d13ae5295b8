package domain

import (
	"time"

	"github.com/roach88/mlprov/internal/prov"
)

// Creation is the activity that brought a tracked resource into existence.
// It is derived from the resource's timestamps, never fetched.
type Creation struct {
	UID          string
	ResourceType Type
	StartTime    time.Time
	EndTime      time.Time
}

func (c Creation) Identifier(ns prov.Namespace) prov.QualifiedName {
	return Identifier(ns, TypeCreation, "uid", c.UID, "resource_type", string(c.ResourceType))
}

func (c Creation) Element(ns prov.Namespace) prov.Element {
	return newAttrs(ns).
		str("uid", c.UID).
		span(c.StartTime, c.EndTime).
		typ(TypeCreation).
		element(prov.KindActivity, c.Identifier(ns))
}

// Deletion is the activity that removed a tracked resource.
type Deletion struct {
	UID          string
	ResourceType Type
	StartTime    time.Time
	EndTime      time.Time
}

func (d Deletion) Identifier(ns prov.Namespace) prov.QualifiedName {
	return Identifier(ns, TypeDeletion, "uid", d.UID, "resource_type", string(d.ResourceType))
}

func (d Deletion) Element(ns prov.Namespace) prov.Element {
	return newAttrs(ns).
		str("uid", d.UID).
		span(d.StartTime, d.EndTime).
		typ(TypeDeletion).
		element(prov.KindActivity, d.Identifier(ns))
}

func (e Experiment) Creation() Creation {
	return Creation{UID: e.ExperimentID, ResourceType: TypeExperiment, StartTime: e.CreatedAt, EndTime: e.LastUpdated}
}

func (e Experiment) Deletion() Deletion {
	return Deletion{UID: e.ExperimentID, ResourceType: TypeExperiment, StartTime: e.LastUpdated, EndTime: e.LastUpdated}
}

func (r Run) Creation() Creation {
	return Creation{UID: r.RunID, ResourceType: TypeRun, StartTime: r.StartTime, EndTime: r.EndTime}
}

// Deletion starts when the run ended, or when it started if it never ended.
func (r Run) Deletion() Deletion {
	start := r.EndTime
	if start.IsZero() {
		start = r.StartTime
	}
	return Deletion{UID: r.RunID, ResourceType: TypeRun, StartTime: start, EndTime: r.EndTime}
}

func (m RegisteredModel) Creation() Creation {
	return Creation{UID: m.Name, ResourceType: TypeRegisteredModel, StartTime: m.CreatedAt, EndTime: m.LastUpdatedAt}
}

func (v RegisteredModelVersion) uid() string {
	return v.Name + "-version-" + v.Version
}

func (v RegisteredModelVersion) Creation() Creation {
	return Creation{UID: v.uid(), ResourceType: TypeRegisteredModelVersion, StartTime: v.CreatedAt, EndTime: v.LastUpdatedAt}
}

func (v RegisteredModelVersion) Deletion() Deletion {
	return Deletion{UID: v.uid(), ResourceType: TypeRegisteredModelVersion, StartTime: v.LastUpdatedAt, EndTime: v.LastUpdatedAt}
}
