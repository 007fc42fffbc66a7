package handlers

import (
	"fmt"

	"github.com/vjbollavarapu/sitebackend/internal/jobs/runtime"
	"github.com/vjbollavarapu/sitebackend/internal/logger"
	"github.com/vjbollavarapu/sitebackend/internal/services"
)

// Deps is everything the job handlers can reach. Handlers stay thin: they
// decode the payload, call one service method, and report the outcome.
type Deps struct {
	Log               *logger.Logger
	Webhooks          services.WebhookService
	CRM               services.CRMService
	Email             services.EmailService
	GDPR              services.GDPRService
	ABTests           services.ABTestService
	ExternalAnalytics services.ExternalAnalyticsService
}

// RegisterAll wires every handler into the registry. Registration errors are
// programming mistakes (duplicate types), so the first one is returned.
func RegisterAll(reg *runtime.Registry, deps Deps) error {
	all := []runtime.Handler{
		&webhookDeliverHandler{deps: deps},
		&webhookRetrySweepHandler{deps: deps},
		&crmSyncHandler{deps: deps},
		&emailSendHandler{deps: deps},
		&retentionSweepHandler{deps: deps},
		&abTestStatsHandler{deps: deps},
		&externalTrackHandler{deps: deps},
	}
	for _, h := range all {
		if err := reg.Register(h); err != nil {
			return err
		}
	}
	return nil
}

type webhookDeliverHandler struct{ deps Deps }

func (h *webhookDeliverHandler) Type() string { return services.JobTypeWebhookDeliver }

func (h *webhookDeliverHandler) Run(ctx *runtime.Context) error {
	eventID, ok := ctx.PayloadUUID("webhook_event_id")
	if !ok {
		return fmt.Errorf("payload missing webhook_event_id")
	}
	return h.deps.Webhooks.Deliver(ctx.Ctx, eventID)
}

type webhookRetrySweepHandler struct{ deps Deps }

func (h *webhookRetrySweepHandler) Type() string { return services.JobTypeWebhookRetrySweep }

func (h *webhookRetrySweepHandler) Run(ctx *runtime.Context) error {
	n, err := h.deps.Webhooks.RetrySweep(ctx.Ctx)
	if err != nil {
		return err
	}
	ctx.Succeed(map[string]any{"requeued": n})
	return nil
}

type crmSyncHandler struct{ deps Deps }

func (h *crmSyncHandler) Type() string { return services.JobTypeCRMSync }

// Run routes on the payload: leads, contact submissions, and waitlist
// entries all sync through the same job type.
func (h *crmSyncHandler) Run(ctx *runtime.Context) error {
	if subID, ok := ctx.PayloadUUID("contact_submission_id"); ok {
		return h.deps.CRM.SyncContactSubmission(ctx.Ctx, subID, ctx.PayloadString("note"))
	}
	if entryID, ok := ctx.PayloadUUID("waitlist_entry_id"); ok {
		return h.deps.CRM.SyncWaitlistEntry(ctx.Ctx, entryID)
	}
	leadID, ok := ctx.PayloadUUID("lead_id")
	if !ok {
		if eid := ctx.Job.EntityID; eid != nil {
			leadID = *eid
		} else {
			return fmt.Errorf("payload missing lead_id")
		}
	}
	if err := h.deps.CRM.SyncLead(ctx.Ctx, leadID); err != nil {
		return err
	}
	if ctx.PayloadBool("create_deal") {
		return h.deps.CRM.CreateLeadDeal(ctx.Ctx, leadID)
	}
	return nil
}

type emailSendHandler struct{ deps Deps }

func (h *emailSendHandler) Type() string { return services.JobTypeEmailSend }

func (h *emailSendHandler) Run(ctx *runtime.Context) error {
	template := ctx.PayloadString("template")
	if template == "" {
		return fmt.Errorf("payload missing template")
	}
	return h.deps.Email.SendTemplate(ctx.Ctx, ctx.SiteID(), template, ctx.Payload())
}

type retentionSweepHandler struct{ deps Deps }

func (h *retentionSweepHandler) Type() string { return services.JobTypeRetentionSweep }

func (h *retentionSweepHandler) Run(ctx *runtime.Context) error {
	results, err := h.deps.GDPR.RetentionSweep(ctx.Ctx)
	if err != nil {
		return err
	}
	result := make(map[string]any, len(results))
	for k, v := range results {
		result[k] = v
	}
	ctx.Succeed(result)
	return nil
}

type abTestStatsHandler struct{ deps Deps }

func (h *abTestStatsHandler) Type() string { return services.JobTypeABTestStats }

func (h *abTestStatsHandler) Run(ctx *runtime.Context) error {
	if testID, ok := ctx.PayloadUUID("test_id"); ok {
		_, err := h.deps.ABTests.RefreshStats(ctx.Ctx, testID)
		return err
	}
	n, err := h.deps.ABTests.RefreshAllRunning(ctx.Ctx)
	if err != nil {
		return err
	}
	ctx.Succeed(map[string]any{"refreshed": n})
	return nil
}

type externalTrackHandler struct{ deps Deps }

func (h *externalTrackHandler) Type() string { return services.JobTypeExternalTrack }

func (h *externalTrackHandler) Run(ctx *runtime.Context) error {
	visitorID := ctx.PayloadString("visitor_id")
	event := ctx.PayloadString("event")
	if visitorID == "" || event == "" {
		return fmt.Errorf("payload missing visitor_id or event")
	}
	return h.deps.ExternalAnalytics.Track(ctx.Ctx, visitorID, event, ctx.PayloadMap("params"))
}
