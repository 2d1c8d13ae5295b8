package mlflow

import (
	"bytes"
	"strconv"
	"time"
)

// int64Value decodes int64 fields the server may render as numbers or as
// strings.
type int64Value int64

func (v *int64Value) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*v = 0
		return nil
	}
	i, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(string(data), 64)
		if ferr != nil {
			return err
		}
		i = int64(f)
	}
	*v = int64Value(i)
	return nil
}

// Time converts epoch milliseconds to UTC. Zero means unset.
func (v int64Value) Time() time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.UnixMilli(int64(v)).UTC()
}

type tag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type tags []tag

func (ts tags) get(key string) string {
	for _, t := range ts {
		if t.Key == key {
			return t.Value
		}
	}
	return ""
}

type experiment struct {
	ExperimentID     string     `json:"experiment_id"`
	Name             string     `json:"name"`
	ArtifactLocation string     `json:"artifact_location"`
	LifecycleStage   string     `json:"lifecycle_stage"`
	LastUpdateTime   int64Value `json:"last_update_time"`
	CreationTime     int64Value `json:"creation_time"`
	Tags             tags       `json:"tags"`
}

type searchExperimentsRequest struct {
	MaxResults int64    `json:"max_results"`
	PageToken  string   `json:"page_token,omitempty"`
	ViewType   string   `json:"view_type"`
	OrderBy    []string `json:"order_by,omitempty"`
}

type searchExperimentsResponse struct {
	Experiments   []experiment `json:"experiments"`
	NextPageToken string       `json:"next_page_token"`
}

type runInfo struct {
	RunID          string     `json:"run_id"`
	RunName        string     `json:"run_name"`
	ExperimentID   string     `json:"experiment_id"`
	UserID         string     `json:"user_id"`
	Status         string     `json:"status"`
	StartTime      int64Value `json:"start_time"`
	EndTime        int64Value `json:"end_time"`
	ArtifactURI    string     `json:"artifact_uri"`
	LifecycleStage string     `json:"lifecycle_stage"`
}

type metric struct {
	Key       string     `json:"key"`
	Value     float64    `json:"value"`
	Timestamp int64Value `json:"timestamp"`
	Step      int64Value `json:"step"`
}

type param struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type runData struct {
	Metrics []metric `json:"metrics"`
	Params  []param  `json:"params"`
	Tags    tags     `json:"tags"`
}

type run struct {
	Info runInfo `json:"info"`
	Data runData `json:"data"`
}

type searchRunsRequest struct {
	ExperimentIDs []string `json:"experiment_ids"`
	RunViewType   string   `json:"run_view_type"`
	MaxResults    int64    `json:"max_results"`
	OrderBy       []string `json:"order_by,omitempty"`
	PageToken     string   `json:"page_token,omitempty"`
}

type searchRunsResponse struct {
	Runs          []run  `json:"runs"`
	NextPageToken string `json:"next_page_token"`
}

type fileInfo struct {
	Path     string     `json:"path"`
	IsDir    bool       `json:"is_dir"`
	FileSize int64Value `json:"file_size"`
}

type listArtifactsResponse struct {
	RootURI       string     `json:"root_uri"`
	Files         []fileInfo `json:"files"`
	NextPageToken string     `json:"next_page_token"`
}

type registeredModel struct {
	Name                 string     `json:"name"`
	CreationTimestamp    int64Value `json:"creation_timestamp"`
	LastUpdatedTimestamp int64Value `json:"last_updated_timestamp"`
	UserID               string     `json:"user_id"`
	Description          string     `json:"description"`
	Tags                 tags       `json:"tags"`
}

type searchRegisteredModelsResponse struct {
	RegisteredModels []registeredModel `json:"registered_models"`
	NextPageToken    string            `json:"next_page_token"`
}

type modelVersion struct {
	Name                 string     `json:"name"`
	Version              string     `json:"version"`
	CreationTimestamp    int64Value `json:"creation_timestamp"`
	LastUpdatedTimestamp int64Value `json:"last_updated_timestamp"`
	UserID               string     `json:"user_id"`
	CurrentStage         string     `json:"current_stage"`
	Description          string     `json:"description"`
	Source               string     `json:"source"`
	RunID                string     `json:"run_id"`
	Status               string     `json:"status"`
	StatusMessage        string     `json:"status_message"`
	Tags                 tags       `json:"tags"`
	RunLink              string     `json:"run_link"`
}

type searchModelVersionsResponse struct {
	ModelVersions []modelVersion `json:"model_versions"`
	NextPageToken string         `json:"next_page_token"`
}
