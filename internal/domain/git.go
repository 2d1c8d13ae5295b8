package domain

import (
	"path"
	"time"

	"github.com/roach88/mlprov/internal/prov"
)

// EmptyTreeSHA is the object id of git's empty tree. Root commits are
// diffed against it.
const EmptyTreeSHA = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

// Commit is a git commit.
type Commit struct {
	SHA         string    `json:"sha"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Author      *User     `json:"author,omitempty"`
	Committer   *User     `json:"committer,omitempty"`
	Parents     []string  `json:"parents"`
	AuthoredAt  time.Time `json:"authored_at"`
	CommittedAt time.Time `json:"committed_at"`
}

func (c Commit) Identifier(ns prov.Namespace) prov.QualifiedName {
	return Identifier(ns, TypeCommit, "sha", c.SHA)
}

func (c Commit) Element(ns prov.Namespace) prov.Element {
	return newAttrs(ns).
		str("sha", c.SHA).
		str("title", c.Title).
		str("message", c.Message).
		at("authored_at", c.AuthoredAt).
		at("committed_at", c.CommittedAt).
		span(c.AuthoredAt, c.CommittedAt).
		typ(TypeCommit).
		element(prov.KindActivity, c.Identifier(ns))
}

// File is a path introduced by a commit. It roots a chain of revisions.
type File struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Commit string `json:"commit"`
}

// NewFile derives the file name from the path.
func NewFile(filePath, commit string) File {
	return File{Name: path.Base(filePath), Path: filePath, Commit: commit}
}

func (f File) Identifier(ns prov.Namespace) prov.QualifiedName {
	return Identifier(ns, TypeFile, "name", f.Name, "path", f.Path, "commit", f.Commit)
}

func (f File) Element(ns prov.Namespace) prov.Element {
	return newAttrs(ns).
		str("name", f.Name).
		str("path", f.Path).
		str("commit", f.Commit).
		typ(TypeFile).
		element(prov.KindEntity, f.Identifier(ns))
}

// RevisionKey identifies a file revision without holding it.
type RevisionKey struct {
	Name   string     `json:"name"`
	Path   string     `json:"path"`
	Commit string     `json:"commit"`
	Status ChangeType `json:"status"`
}

// FileRevision is the state of a file in one commit.
//
// File references the file the revision belongs to. Previous is the key
// of the next-older revision in the file's history; it is resolved
// through the fact store, not followed as a pointer.
type FileRevision struct {
	Name     string       `json:"name"`
	Path     string       `json:"path"`
	Commit   string       `json:"commit"`
	Status   ChangeType   `json:"status"`
	File     *File        `json:"file,omitempty"`
	Previous *RevisionKey `json:"previous,omitempty"`
}

// Key returns the lookup key of r.
func (r FileRevision) Key() RevisionKey {
	return RevisionKey{Name: r.Name, Path: r.Path, Commit: r.Commit, Status: r.Status}
}

// Revision rebuilds a bare revision from its key.
func (k RevisionKey) Revision() FileRevision {
	return FileRevision{Name: k.Name, Path: k.Path, Commit: k.Commit, Status: k.Status}
}

func (r FileRevision) Identifier(ns prov.Namespace) prov.QualifiedName {
	return Identifier(ns, TypeFileRevision,
		"name", r.Name, "path", r.Path, "commit", r.Commit, "status", string(r.Status))
}

func (r FileRevision) Element(ns prov.Namespace) prov.Element {
	return newAttrs(ns).
		str("name", r.Name).
		str("path", r.Path).
		str("status", string(r.Status)).
		typ(TypeFileRevision).
		element(prov.KindEntity, r.Identifier(ns))
}
