package domain

// ChangeType is the name-status letter of a file revision.
type ChangeType string

const (
	ChangeAdded    ChangeType = "A"
	ChangeModified ChangeType = "M"
	ChangeDeleted  ChangeType = "D"
)

// Role is the value of the prov:role attribute on users and relations.
type Role string

const (
	RoleCommit                        Role = "Commit"
	RoleCommitter                     Role = "Committer"
	RoleAuthor                        Role = "Author"
	RoleCommitAuthor                  Role = "CommitAuthor"
	RoleTagAuthor                     Role = "TagAuthor"
	RoleFile                          Role = "File"
	RoleAddedRevision                 Role = "AddedRevision"
	RoleDeletedRevision               Role = "DeletedRevision"
	RoleModifiedRevision              Role = "ModifiedRevision"
	RolePreviousRevision              Role = "PreviousRevision"
	RoleAddedExperiment               Role = "AddedExperiment"
	RoleAddedExperimentTag            Role = "AddedExperimentTag"
	RoleExperimentAuthor              Role = "ExperimentAuthor"
	RoleAddedRun                      Role = "AddedRun"
	RoleAddedRunTag                   Role = "AddedRunTag"
	RoleRunAuthor                     Role = "RunAuthor"
	RoleAddedRegisteredModel          Role = "AddedRegisteredModel"
	RoleRegisteredModelAuthor         Role = "RegisteredModelAuthor"
	RoleAddedRegisteredModelVersion   Role = "AddedRegisteredModelVersion"
	RoleRegisteredModelVersionAuthor  Role = "RegisteredModelVersionAuthor"
	RoleDeletedExperiment             Role = "DeletedExperiment"
	RoleDeletedRun                    Role = "DeletedRun"
	RoleDeletedRegisteredModelVersion Role = "DeletedRegisteredModelVersion"
)

// Type is the value of the prov:type attribute on elements. It also
// prefixes every canonical identifier.
type Type string

const (
	TypeUser                      Type = "User"
	TypeCommit                    Type = "Commit"
	TypeFile                      Type = "File"
	TypeFileRevision              Type = "FileRevision"
	TypeCreation                  Type = "Creation"
	TypeDeletion                  Type = "Deletion"
	TypeExperiment                Type = "Experiment"
	TypeExperimentTag             Type = "ExperimentTag"
	TypeRun                       Type = "Run"
	TypeRunTag                    Type = "RunTag"
	TypeMetric                    Type = "Metric"
	TypeParam                     Type = "Param"
	TypeArtifact                  Type = "Artifact"
	TypeModelArtifact             Type = "ModelArtifact"
	TypeRegisteredModel           Type = "RegisteredModel"
	TypeRegisteredModelTag        Type = "RegisteredModelTag"
	TypeRegisteredModelVersion    Type = "RegisteredModelVersion"
	TypeRegisteredModelVersionTag Type = "RegisteredModelVersionTag"
)
