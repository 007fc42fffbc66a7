package runtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vjbollavarapu/sitebackend/internal/repos"
	"github.com/vjbollavarapu/sitebackend/internal/types"
)

// Context is the execution handle for a single claimed job run. Handlers
// never touch the job_run row directly; lifecycle transitions go through
// Fail/Succeed so the locked_at and status invariants stay in one place.
type Context struct {
	Ctx     context.Context
	DB      *gorm.DB
	Job     *types.JobRun
	Repo    repos.JobRunRepo
	payload map[string]any
}

// NewContext eagerly decodes the payload JSON so handlers can read inputs
// via Payload()/PayloadUUID(). A malformed payload yields an empty map;
// handlers validate required fields themselves.
func NewContext(ctx context.Context, db *gorm.DB, job *types.JobRun, repo repos.JobRunRepo) *Context {
	c := &Context{
		Ctx:  ctx,
		DB:   db,
		Job:  job,
		Repo: repo,
	}
	c.decodePayload()
	return c
}

func (c *Context) decodePayload() {
	c.payload = map[string]any{}
	if c.Job == nil || len(c.Job.Payload) == 0 {
		return
	}
	var m map[string]any
	if err := json.Unmarshal(c.Job.Payload, &m); err == nil {
		c.payload = m
	}
}

// Payload never returns nil.
func (c *Context) Payload() map[string]any {
	if c.payload == nil {
		c.payload = map[string]any{}
	}
	return c.payload
}

func (c *Context) PayloadString(key string) string {
	v, ok := c.Payload()[key]
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

func (c *Context) PayloadBool(key string) bool {
	v, ok := c.Payload()[key]
	if !ok || v == nil {
		return false
	}
	b, _ := v.(bool)
	return b
}

func (c *Context) PayloadUUID(key string) (uuid.UUID, bool) {
	s := c.PayloadString(key)
	if s == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (c *Context) PayloadMap(key string) map[string]any {
	v, ok := c.Payload()[key]
	if !ok || v == nil {
		return map[string]any{}
	}
	m, _ := v.(map[string]any)
	if m == nil {
		return map[string]any{}
	}
	return m
}

// SiteID returns the job's site scope, or uuid.Nil for global jobs.
func (c *Context) SiteID() uuid.UUID {
	if c.Job == nil || c.Job.SiteID == nil {
		return uuid.Nil
	}
	return *c.Job.SiteID
}

// Fail marks the run as failed and releases the lock so a later claim can
// retry it (the worker's claim query handles backoff and max attempts).
func (c *Context) Fail(err error) {
	if c == nil || c.Job == nil || c.Job.ID == uuid.Nil {
		return
	}
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	now := time.Now()
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	_ = c.Repo.UpdateFields(ctx, c.DB, c.Job.ID, map[string]interface{}{
		"status":        "failed",
		"error":         msg,
		"last_error_at": now,
		"locked_at":     nil,
		"updated_at":    now,
	})
	c.Job.Status = "failed"
	c.Job.Error = msg
	c.Job.LastErrorAt = &now
	c.Job.LockedAt = nil
}

// Succeed marks the run as succeeded and stores an optional result payload.
func (c *Context) Succeed(result map[string]any) {
	if c == nil || c.Job == nil || c.Job.ID == uuid.Nil {
		return
	}
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	now := time.Now()
	updates := map[string]interface{}{
		"status":     "succeeded",
		"error":      "",
		"locked_at":  nil,
		"updated_at": now,
	}
	if result != nil {
		if raw, err := json.Marshal(result); err == nil {
			updates["result"] = raw
		}
	}
	_ = c.Repo.UpdateFields(ctx, c.DB, c.Job.ID, updates)
	c.Job.Status = "succeeded"
	c.Job.Error = ""
	c.Job.LockedAt = nil
}

// Heartbeat stamps liveness so the stale-running reclaim window stays open
// during long handlers.
func (c *Context) Heartbeat() {
	if c == nil || c.Job == nil || c.Job.ID == uuid.Nil {
		return
	}
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	_ = c.Repo.Heartbeat(ctx, c.DB, c.Job.ID)
}
