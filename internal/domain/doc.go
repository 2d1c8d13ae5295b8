// Package domain defines the typed facts mlprov compiles into provenance:
// git commits, files and file revisions, MLflow experiments, runs and
// their children, and registered models with their versions.
//
// Every fact is a plain value. It exposes a canonical identifier that is a
// deterministic function of a stable subset of its fields, and a PROV
// element built from its fields. Creation and Deletion activities are
// derived on access from the owning fact's timestamps.
package domain
