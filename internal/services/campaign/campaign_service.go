// Package campaign handles newsletter bookkeeping and bulk campaign sends.
package campaign

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/counselorcorner/storefront_be/internal/models"
	"github.com/counselorcorner/storefront_be/internal/services/mailer"
	"github.com/counselorcorner/storefront_be/internal/store"
)

var (
	ErrInvalidEmail      = errors.New("campaign: invalid email address")
	ErrAlreadySubscribed = errors.New("campaign: already subscribed")
	ErrUnknownSubscriber = errors.New("campaign: subscriber not found")
	ErrAlreadySent       = errors.New("campaign: campaign already sent")
)

// Directory is the slice of the catalog layer the dispatcher needs.
type Directory interface {
	GetSubscriber(ctx context.Context, email string) (*models.NewsletterSubscriber, error)
	PutSubscriber(ctx context.Context, s *models.NewsletterSubscriber) error
	ListSubscribed(ctx context.Context) ([]models.NewsletterSubscriber, error)
	GetCampaign(ctx context.Context, id string) (*models.EmailCampaign, error)
	PutCampaign(ctx context.Context, c *models.EmailCampaign) error
	MarkCampaignSending(ctx context.Context, id string) error
}

// Mailer is the slice of the email vendor client the dispatcher needs.
type Mailer interface {
	Send(ctx context.Context, m mailer.Message) error
}

// Dispatcher owns subscribe/unsubscribe bookkeeping and campaign sends.
// RDB is optional; when present, send progress is mirrored there so the
// admin UI can poll a long broadcast.
type Dispatcher struct {
	Directory Directory
	Mailer    Mailer
	RDB       *redis.Client
}

func NewDispatcher(d Directory, m Mailer, rdb *redis.Client) *Dispatcher {
	return &Dispatcher{Directory: d, Mailer: m, RDB: rdb}
}

// Subscribe creates a subscriber record, or flips an unsubscribed one back.
// Subscribing an already-subscribed email is an error, not a new record.
func (d *Dispatcher) Subscribe(ctx context.Context, email, firstName, source string) (*models.NewsletterSubscriber, error) {
	email = models.NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}

	existing, err := d.Directory.GetSubscriber(ctx, email)
	switch {
	case err == nil:
		if existing.Status == models.Subscribed {
			return nil, ErrAlreadySubscribed
		}
		// resubscribe reuses the record
		existing.Status = models.Subscribed
		existing.UnsubscribedAt = nil
		existing.SubscribedAt = time.Now().UTC()
		if firstName != "" {
			existing.FirstName = firstName
		}
		if err := d.Directory.PutSubscriber(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	case errors.Is(err, store.ErrNotFound):
		sub := &models.NewsletterSubscriber{
			Email:        email,
			FirstName:    firstName,
			Status:       models.Subscribed,
			Source:       source,
			SubscribedAt: time.Now().UTC(),
		}
		if err := d.Directory.PutSubscriber(ctx, sub); err != nil {
			return nil, err
		}
		return sub, nil
	default:
		return nil, err
	}
}

// Unsubscribe flips the record's status; an unknown email is an error.
func (d *Dispatcher) Unsubscribe(ctx context.Context, email string) error {
	sub, err := d.Directory.GetSubscriber(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUnknownSubscriber
	}
	if err != nil {
		return err
	}
	if sub.Status == models.Unsubscribed {
		return nil
	}
	now := time.Now().UTC()
	sub.Status = models.Unsubscribed
	sub.UnsubscribedAt = &now
	return d.Directory.PutSubscriber(ctx, sub)
}

// Result summarizes one campaign broadcast.
type Result struct {
	CampaignID   string   `json:"campaign_id"`
	Recipients   int64    `json:"recipients"`
	Sent         int64    `json:"sent"`
	Failed       int64    `json:"failed"`
	FailedEmails []string `json:"failed_emails,omitempty"`
}

func progressKey(campaignID string) string { return "campaign:job:" + campaignID }

// Send broadcasts the campaign to every currently subscribed recipient.
// A campaign already sending or sent is rejected. Individual failures are
// tallied and logged, never abort the rest of the broadcast.
func (d *Dispatcher) Send(ctx context.Context, campaignID string) (*Result, error) {
	c, err := d.Directory.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if c.Status != models.CampaignDraft {
		return nil, ErrAlreadySent
	}
	// conditional flip so two racing sends can't both pass the check above
	if err := d.Directory.MarkCampaignSending(ctx, campaignID); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrAlreadySent
		}
		return nil, err
	}

	subs, err := d.Directory.ListSubscribed(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{CampaignID: campaignID, Recipients: int64(len(subs))}
	if d.RDB != nil {
		d.RDB.HSet(ctx, progressKey(campaignID), "total", len(subs), "sent", 0, "failed", 0)
		d.RDB.Expire(ctx, progressKey(campaignID), 24*time.Hour)
	}

	for _, sub := range subs {
		msg := mailer.Message{
			To:      sub.Email,
			Subject: c.Subject,
			Text:    personalize(c.Content, sub.FirstName),
			HTML:    personalize(c.HTMLContent, sub.FirstName),
		}
		if err := d.Mailer.Send(ctx, msg); err != nil {
			log.Warn().Err(err).Str("campaign", campaignID).Str("to", sub.Email).Msg("campaign send failed for recipient")
			res.Failed++
			res.FailedEmails = append(res.FailedEmails, sub.Email)
			if d.RDB != nil {
				d.RDB.HIncrBy(ctx, progressKey(campaignID), "failed", 1)
			}
			continue
		}
		res.Sent++
		if d.RDB != nil {
			d.RDB.HIncrBy(ctx, progressKey(campaignID), "sent", 1)
		}
	}

	now := time.Now().UTC()
	c.Status = models.CampaignSent
	c.Recipients = res.Recipients
	c.Sent = res.Sent
	c.Failed = res.Failed
	c.SentAt = &now
	if err := d.Directory.PutCampaign(ctx, c); err != nil {
		// the broadcast already happened; surface the summary anyway
		log.Error().Err(err).Str("campaign", campaignID).Msg("failed to persist campaign result")
	}

	return res, nil
}

// Progress reads the live counters of a running (or finished) broadcast.
func (d *Dispatcher) Progress(ctx context.Context, campaignID string) (map[string]string, error) {
	if d.RDB == nil {
		return nil, fmt.Errorf("campaign: progress tracking not configured")
	}
	vals, err := d.RDB.HGetAll(ctx, progressKey(campaignID)).Result()
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, store.ErrNotFound
	}
	return vals, nil
}

func personalize(content, firstName string) string {
	if content == "" {
		return ""
	}
	name := firstName
	if name == "" {
		name = "there"
	}
	return strings.ReplaceAll(content, "{{first_name}}", name)
}
