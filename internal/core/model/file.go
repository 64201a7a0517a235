package model

import "time"

type FileStatus string

const (
	FileProcessing FileStatus = "processing"
	FileCompleted  FileStatus = "completed"
	FileFailed     FileStatus = "failed"
)

// DirectInput stands in for the file id of chunks created without an upload.
const DirectInput = "direct_input"

type DocumentAnalysis struct {
	DocumentType        string   `json:"document_type"`
	MainTopic           string   `json:"main_topic"`
	KeyPoints           []string `json:"key_points"`
	Sentiment           string   `json:"sentiment"`
	Complexity          string   `json:"complexity"`
	SuggestedCategories []string `json:"suggested_categories"`
}

type SourceFile struct {
	FileID          string            `json:"file_id"`
	UserID          string            `json:"user_id"`
	FileName        string            `json:"file_name"`
	FileType        string            `json:"file_type"`
	FileSize        int64             `json:"file_size"`
	UploadDate      time.Time         `json:"upload_date"`
	Analysis        *DocumentAnalysis `json:"document_analysis,omitempty"`
	Status          FileStatus        `json:"status"`
	TotalChunks     int               `json:"total_chunks"`
	TotalCharacters int               `json:"total_characters"`
	Error           string            `json:"error,omitempty"`
}

func (f SourceFile) DocumentType() string {
	if f.Analysis == nil || f.Analysis.DocumentType == "" {
		return "general"
	}
	return f.Analysis.DocumentType
}

func (f SourceFile) MainTopic() string {
	if f.Analysis == nil || f.Analysis.MainTopic == "" {
		return "Unknown"
	}
	return f.Analysis.MainTopic
}

// UploadResult summarizes one processed upload.
type UploadResult struct {
	Success          bool   `json:"success"`
	FileID           string `json:"file_id"`
	FileName         string `json:"file_name"`
	FileType         string `json:"file_type"`
	TotalChunks      int    `json:"total_chunks"`
	TotalCharacters  int    `json:"total_characters"`
	TotalTags        int    `json:"total_tags"`
	TotalEntities    int    `json:"total_entities"`
	DocumentType     string `json:"document_type"`
	MainTopic        string `json:"main_topic"`
	ProcessingTimeMS int64  `json:"processing_time_ms"`
	GraphUpdated     bool   `json:"graph_updated"`
	Message          string `json:"message"`
}
