package kafka

import "github.com/piyushdan-dataslush/bms-analytics/internal/models"

const (
	TopicCampaignDay = "campaign.day"
	TopicCaptureShow = "capture.show"
	TopicCityBatch   = "city.batch"
)

// TopicForKind maps a deferred job kind to the topic it fires on.
func TopicForKind(kind models.JobKind) (string, bool) {
	switch kind {
	case models.JobKindCampaignDay:
		return TopicCampaignDay, true
	case models.JobKindCaptureShow:
		return TopicCaptureShow, true
	case models.JobKindCityBatch:
		return TopicCityBatch, true
	}
	return "", false
}
