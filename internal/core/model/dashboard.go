package model

import "time"

const WelcomeInsight = "Welcome to CogniVault! Start uploading documents to build your knowledge graph and see your learning journey unfold."

type RecentUpload struct {
	FileID       string    `json:"file_id"`
	FileName     string    `json:"file_name"`
	UploadDate   time.Time `json:"upload_date"`
	DocumentType string    `json:"document_type"`
	MainTopic    string    `json:"main_topic"`
	TotalChunks  int       `json:"total_chunks"`
	Tags         []string  `json:"tags"`
}

type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

type TopicStats struct {
	TopTopics         []TopicCount `json:"topTopics"`
	TotalUniqueTopics int          `json:"totalUniqueTopics"`
	MostRecentTopic   string       `json:"mostRecentTopic"`
}

type LastUploadedFile struct {
	FileName     string    `json:"file_name"`
	UploadDate   time.Time `json:"upload_date"`
	DocumentType string    `json:"document_type"`
}

type SuggestedTopic struct {
	Topic  string `json:"topic"`
	Reason string `json:"reason"`
}

type Dashboard struct {
	UserName            string            `json:"userName"`
	UserEmail           string            `json:"userEmail"`
	TotalUploads        int               `json:"totalUploads"`
	TotalTagsDetected   int               `json:"totalTagsDetected"`
	RecentUploads       []RecentUpload    `json:"recentUploads"`
	TopicStats          TopicStats        `json:"topicStats"`
	EmotionalTrend      []EmotionPoint    `json:"emotionalTrend"`
	LastUploadedFile    *LastUploadedFile `json:"lastUploadedFile"`
	KnowledgeGraphStats GraphStats        `json:"knowledgeGraphStats"`
	TimelinePreview     []TimelineEvent   `json:"timelinePreview"`
	BranchTriggers      []BranchTrigger   `json:"branchTriggers"`
	SuggestedNextTopics []SuggestedTopic  `json:"suggestedNextTopics"`
	AIInsights          string            `json:"aiInsights"`
}

// EmptyDashboard is the payload for users with nothing uploaded yet.
func EmptyDashboard(userName, userEmail string) Dashboard {
	return Dashboard{
		UserName:      DisplayName(userName, userEmail),
		UserEmail:     userEmail,
		RecentUploads: []RecentUpload{},
		TopicStats: TopicStats{
			TopTopics:       []TopicCount{},
			MostRecentTopic: "None",
		},
		EmotionalTrend:      []EmotionPoint{},
		KnowledgeGraphStats: EmptyGraphStats(),
		TimelinePreview:     []TimelineEvent{},
		BranchTriggers:      []BranchTrigger{},
		SuggestedNextTopics: []SuggestedTopic{},
		AIInsights:          WelcomeInsight,
	}
}

func DisplayName(userName, userEmail string) string {
	if userName != "" {
		return userName
	}
	if userEmail != "" {
		for i, r := range userEmail {
			if r == '@' {
				if i > 0 {
					return userEmail[:i]
				}
				break
			}
		}
	}
	return "User"
}
