package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/counselorcorner/storefront_be/internal/catalog"
	"github.com/counselorcorner/storefront_be/internal/models"
	"github.com/counselorcorner/storefront_be/internal/services/campaign"
	"github.com/counselorcorner/storefront_be/internal/store"
)

type NewsletterHandler struct {
	Catalog    *catalog.Catalog
	Dispatcher *campaign.Dispatcher
}

func NewNewsletterHandler(cat *catalog.Catalog, d *campaign.Dispatcher) *NewsletterHandler {
	return &NewsletterHandler{Catalog: cat, Dispatcher: d}
}

type SubscribeReq struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	Source    string `json:"source"`
}

func (h *NewsletterHandler) Subscribe(c *fiber.Ctx) error {
	var req SubscribeReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	sub, err := h.Dispatcher.Subscribe(c.Context(), req.Email, req.FirstName, req.Source)
	switch {
	case errors.Is(err, campaign.ErrInvalidEmail):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "a valid email address is required",
		})
	case errors.Is(err, campaign.ErrAlreadySubscribed):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "already subscribed",
		})
	case err != nil:
		return storeFail(c, err, "")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    sub,
	})
}

type UnsubscribeReq struct {
	Email string `json:"email"`
}

func (h *NewsletterHandler) Unsubscribe(c *fiber.Ctx) error {
	var req UnsubscribeReq
	if err := c.BodyParser(&req); err != nil || req.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "email is required",
		})
	}

	if err := h.Dispatcher.Unsubscribe(c.Context(), req.Email); err != nil {
		if errors.Is(err, campaign.ErrUnknownSubscriber) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "subscriber not found",
			})
		}
		return storeFail(c, err, "")
	}
	return c.JSON(fiber.Map{"success": true, "message": "unsubscribed"})
}

func (h *NewsletterHandler) ListSubscribers(c *fiber.Ctx) error {
	subs, err := h.Catalog.ListSubscribed(c.Context())
	if err != nil {
		return storeFail(c, err, "")
	}
	return c.JSON(fiber.Map{"success": true, "data": subs})
}

type CampaignReq struct {
	Name        string `json:"name"`
	Subject     string `json:"subject"`
	Content     string `json:"content"`
	HTMLContent string `json:"html_content"`
}

func (r *CampaignReq) validate() FieldErrors {
	errs := FieldErrors{}
	if r.Name == "" {
		errs.Add("name", "name is required")
	}
	if r.Subject == "" {
		errs.Add("subject", "subject is required")
	}
	if r.Content == "" && r.HTMLContent == "" {
		errs.Add("content", "content or html_content is required")
	}
	return errs
}

func (h *NewsletterHandler) CreateCampaign(c *fiber.Ctx) error {
	var req CampaignReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}
	if errs := req.validate(); len(errs) > 0 {
		return validationFail(c, errs)
	}

	cm := &models.EmailCampaign{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Subject:     req.Subject,
		Content:     req.Content,
		HTMLContent: req.HTMLContent,
		Status:      models.CampaignDraft,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.Catalog.CreateCampaign(c.Context(), cm); err != nil {
		return storeFail(c, err, "")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    cm,
	})
}

func (h *NewsletterHandler) ListCampaigns(c *fiber.Ctx) error {
	status := models.CampaignStatus(c.Query("status", string(models.CampaignDraft)))
	campaigns, err := h.Catalog.ListCampaigns(c.Context(), status, int32(c.QueryInt("limit", 50)))
	if err != nil {
		return storeFail(c, err, "")
	}
	return c.JSON(fiber.Map{"success": true, "data": campaigns})
}

func (h *NewsletterHandler) GetCampaign(c *fiber.Ctx) error {
	cm, err := h.Catalog.GetCampaign(c.Context(), c.Params("id"))
	if err != nil {
		return storeFail(c, err, "campaign not found")
	}
	return c.JSON(fiber.Map{"success": true, "data": cm})
}

func (h *NewsletterHandler) UpdateCampaign(c *fiber.Ctx) error {
	cm, err := h.Catalog.GetCampaign(c.Context(), c.Params("id"))
	if err != nil {
		return storeFail(c, err, "campaign not found")
	}
	if cm.Status != models.CampaignDraft {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "only draft campaigns can be edited",
		})
	}

	var req CampaignReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}
	if errs := req.validate(); len(errs) > 0 {
		return validationFail(c, errs)
	}

	cm.Name = req.Name
	cm.Subject = req.Subject
	cm.Content = req.Content
	cm.HTMLContent = req.HTMLContent

	if err := h.Catalog.PutCampaign(c.Context(), cm); err != nil {
		return storeFail(c, err, "")
	}
	return c.JSON(fiber.Map{"success": true, "data": cm})
}

// SendCampaign runs the whole send inline and answers with the tally.
// Progress is polled separately while a long send is in flight.
func (h *NewsletterHandler) SendCampaign(c *fiber.Ctx) error {
	res, err := h.Dispatcher.Send(c.Context(), c.Params("id"))
	switch {
	case errors.Is(err, campaign.ErrAlreadySent):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "campaign already sent",
		})
	case errors.Is(err, store.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "campaign not found",
		})
	case err != nil:
		return storeFail(c, err, "")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    res,
	})
}

func (h *NewsletterHandler) CampaignProgress(c *fiber.Ctx) error {
	progress, err := h.Dispatcher.Progress(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "no progress recorded for this campaign",
			})
		}
		return storeFail(c, err, "")
	}
	return c.JSON(fiber.Map{"success": true, "data": progress})
}
