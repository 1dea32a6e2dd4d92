package models

import (
	"errors"
	"strings"
	"time"

	"github.com/counselorcorner/storefront_be/internal/store"
)

type SubscriberStatus string

const (
	Subscribed   SubscriberStatus = "subscribed"
	Unsubscribed SubscriberStatus = "unsubscribed"
)

// NewsletterSubscriber is keyed by normalized email. Unsubscribe flips the
// status in place and a later resubscribe reuses the same record.
type NewsletterSubscriber struct {
	Email     string           `dynamodbav:"email" json:"email"`
	FirstName string           `dynamodbav:"first_name,omitempty" json:"first_name,omitempty"`
	Status    SubscriberStatus `dynamodbav:"status" json:"status"`
	Source    string           `dynamodbav:"source,omitempty" json:"source,omitempty"`

	SubscribedAt   time.Time  `dynamodbav:"subscribed_at" json:"subscribed_at"`
	UnsubscribedAt *time.Time `dynamodbav:"unsubscribed_at,omitempty" json:"unsubscribed_at,omitempty"`
	EntityType     string     `dynamodbav:"entity_type" json:"-"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func SubscriberPK(email string) string { return "SUBSCRIBER#" + NormalizeEmail(email) }

func SubscriberStatusPartition(status SubscriberStatus) string {
	return "SUBSCRIBER#STATUS#" + string(status)
}

func (s *NewsletterSubscriber) Keys() (store.Keys, error) {
	if s.Email == "" || s.Status == "" {
		return store.Keys{}, errors.New("subscriber: email and status are required for key construction")
	}
	return store.Keys{
		PK:     SubscriberPK(s.Email),
		SK:     "METADATA",
		GSI1PK: SubscriberStatusPartition(s.Status),
		GSI1SK: s.SubscribedAt.UTC().Format(time.RFC3339),
	}, nil
}

type CampaignStatus string

const (
	CampaignDraft   CampaignStatus = "draft"
	CampaignSending CampaignStatus = "sending"
	CampaignSent    CampaignStatus = "sent"
)

type EmailCampaign struct {
	ID          string         `dynamodbav:"id" json:"id"`
	Name        string         `dynamodbav:"name" json:"name"`
	Subject     string         `dynamodbav:"subject" json:"subject"`
	Content     string         `dynamodbav:"content" json:"content"`
	HTMLContent string         `dynamodbav:"html_content,omitempty" json:"html_content,omitempty"`
	Status      CampaignStatus `dynamodbav:"status" json:"status"`

	Recipients int64 `dynamodbav:"recipients" json:"recipients"`
	Sent       int64 `dynamodbav:"sent" json:"sent"`
	Failed     int64 `dynamodbav:"failed" json:"failed"`
	Opens      int64 `dynamodbav:"opens" json:"opens"`
	Clicks     int64 `dynamodbav:"clicks" json:"clicks"`

	CreatedAt  time.Time  `dynamodbav:"created_at" json:"created_at"`
	SentAt     *time.Time `dynamodbav:"sent_at,omitempty" json:"sent_at,omitempty"`
	EntityType string     `dynamodbav:"entity_type" json:"-"`
}

func CampaignPK(id string) string { return "CAMPAIGN#" + id }

func CampaignStatusPartition(status CampaignStatus) string {
	return "CAMPAIGN#STATUS#" + string(status)
}

func (c *EmailCampaign) Keys() (store.Keys, error) {
	if c.ID == "" || c.Status == "" {
		return store.Keys{}, errors.New("campaign: id and status are required for key construction")
	}
	return store.Keys{
		PK:     CampaignPK(c.ID),
		SK:     "METADATA",
		GSI1PK: CampaignStatusPartition(c.Status),
		GSI1SK: c.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}
