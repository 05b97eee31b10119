package dto

type StatisticsResponse struct {
	TotalSessions  int64 `json:"total_sessions"`
	TotalMessages  int64 `json:"total_messages"`
	TotalDocuments int64 `json:"total_documents"`
	TotalArtifacts int64 `json:"total_artifacts"`
	StorageBytes   int64 `json:"storage_bytes"`
}
