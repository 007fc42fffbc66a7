package services

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/google/uuid"
	"github.com/vjbollavarapu/sitebackend/internal/logger"
	"github.com/vjbollavarapu/sitebackend/internal/repos"
	"github.com/vjbollavarapu/sitebackend/internal/types"
	"gorm.io/gorm"
	"net/url"
	"strings"
)

type SiteService interface {
	Resolve(ctx context.Context, identifier, origin, referer, host string) (*types.Site, error)
	Create(ctx context.Context, site *types.Site) (*types.Site, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*types.Site, error)
	GetByID(ctx context.Context, id uuid.UUID) (*types.Site, error)
	ListActive(ctx context.Context) ([]*types.Site, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type siteService struct {
	db       *gorm.DB
	log      *logger.Logger
	siteRepo repos.SiteRepo
}

func NewSiteService(db *gorm.DB, log *logger.Logger, siteRepo repos.SiteRepo) SiteService {
	return &siteService{
		db:       db,
		log:      log.With("service", "SiteService"),
		siteRepo: siteRepo,
	}
}

// Resolve picks the tenant for a request. Order: explicit X-Site-Identifier
// (slug), then Origin, then Referer, then Host, then the default site.
func (s *siteService) Resolve(ctx context.Context, identifier, origin, referer, host string) (*types.Site, error) {
	if slug := strings.TrimSpace(identifier); slug != "" {
		site, err := s.siteRepo.GetBySlug(ctx, nil, slug)
		if err != nil {
			return nil, err
		}
		if site != nil && site.IsActive {
			return site, nil
		}
	}

	for _, candidate := range []string{origin, referer} {
		domain := extractDomain(candidate)
		if domain == "" {
			continue
		}
		site, err := s.siteRepo.GetByDomain(ctx, nil, domain)
		if err != nil {
			return nil, err
		}
		if site != nil {
			return site, nil
		}
	}

	if domain := normalizeDomain(host); domain != "" {
		site, err := s.siteRepo.GetByDomain(ctx, nil, domain)
		if err != nil {
			return nil, err
		}
		if site != nil {
			return site, nil
		}
	}

	site, err := s.siteRepo.GetDefault(ctx, nil)
	if err != nil {
		return nil, err
	}
	if site == nil {
		return nil, fmt.Errorf("no site matched and no default site configured")
	}
	return site, nil
}

// extractDomain pulls a normalized hostname out of a URL-ish value.
func extractDomain(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return normalizeDomain(u.Hostname())
}

// normalizeDomain lowercases, strips a leading www. and any port.
func normalizeDomain(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return ""
	}
	if idx := strings.LastIndex(host, ":"); idx != -1 && !strings.Contains(host, "]") {
		host = host[:idx]
	}
	host = strings.TrimPrefix(host, "www.")
	return host
}

func (s *siteService) Create(ctx context.Context, site *types.Site) (*types.Site, error) {
	if site == nil || strings.TrimSpace(site.Name) == "" || strings.TrimSpace(site.Domain) == "" {
		return nil, fmt.Errorf("site name and domain required")
	}
	site.ID = uuid.New()
	site.Domain = normalizeDomain(site.Domain)
	if site.Slug == "" {
		site.Slug = slugify(site.Name)
	}
	if len(site.AdditionalDomains) == 0 {
		empty, _ := json.Marshal([]string{})
		site.AdditionalDomains = empty
	}

	var created *types.Site
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if site.IsDefault {
			// Only one default site at a time.
			if uErr := tx.Model(&types.Site{}).
				Where("is_default = ?", true).
				Update("is_default", false).Error; uErr != nil {
				return uErr
			}
		}
		out, cErr := s.siteRepo.Create(ctx, tx, site)
		if cErr != nil {
			return fmt.Errorf("Failed to create site: %w", cErr)
		}
		created = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *siteService) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*types.Site, error) {
	if domain, ok := updates["domain"].(string); ok {
		updates["domain"] = normalizeDomain(domain)
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if isDefault, ok := updates["is_default"].(bool); ok && isDefault {
			if uErr := tx.Model(&types.Site{}).
				Where("is_default = ? AND id <> ?", true, id).
				Update("is_default", false).Error; uErr != nil {
				return uErr
			}
		}
		return s.siteRepo.UpdateFields(ctx, tx, id, updates)
	})
	if err != nil {
		return nil, err
	}
	return s.siteRepo.GetByID(ctx, nil, id)
}

func (s *siteService) GetByID(ctx context.Context, id uuid.UUID) (*types.Site, error) {
	return s.siteRepo.GetByID(ctx, nil, id)
}

func (s *siteService) ListActive(ctx context.Context) ([]*types.Site, error) {
	return s.siteRepo.ListActive(ctx, nil)
}

func (s *siteService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.siteRepo.Delete(ctx, nil, id)
}

func slugify(name string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash && b.Len() > 0 {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
