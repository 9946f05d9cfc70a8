package services

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"complylaw-api/config"
	"complylaw-api/models"
)

// The template catalog changes rarely (seed tooling only), so reads go
// through a small TTL cache. Submissions snapshot the active set at creation
// time, which is what makes later catalog edits non-retroactive.
var (
	catalogCacheMu sync.RWMutex
	catalogCache   *catalogCacheEntry
	catalogTTL     = 5 * time.Minute
)

type catalogCacheEntry struct {
	templates []models.ChecklistTemplate
	fetchedAt time.Time
}

func loadCatalog(force bool) (*catalogCacheEntry, error) {
	catalogCacheMu.RLock()
	cached := catalogCache
	catalogCacheMu.RUnlock()

	if cached != nil && !force && time.Since(cached.fetchedAt) < catalogTTL {
		return cached, nil
	}

	catalogCacheMu.Lock()
	defer catalogCacheMu.Unlock()

	if catalogCache != nil && !force && time.Since(catalogCache.fetchedAt) < catalogTTL {
		return catalogCache, nil
	}

	var rows []models.ChecklistTemplate
	if err := config.DB.Where("active = ?", true).Order("standard, code").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load checklist templates: %w", err)
	}

	entry := &catalogCacheEntry{
		templates: rows,
		fetchedAt: time.Now(),
	}
	catalogCache = entry
	return entry, nil
}

// ClearCatalogCache invalidates the in-memory template cache.
func ClearCatalogCache() {
	catalogCacheMu.Lock()
	defer catalogCacheMu.Unlock()
	catalogCache = nil
}

// GetActiveTemplates returns the active catalog entries ordered by
// (standard, code), served from cache when fresh.
func GetActiveTemplates() ([]models.ChecklistTemplate, error) {
	entry, err := loadCatalog(false)
	if err != nil {
		return nil, err
	}
	return entry.templates, nil
}

// SeedTemplates upserts catalog entries keyed by (standard, code). Existing
// rows keep their template_id so responses pointing at them stay valid;
// weights, titles and flags are refreshed from the incoming set. Returns
// (created, updated) counts.
func SeedTemplates(templates []models.ChecklistTemplate) (int, int, error) {
	created := 0
	updated := 0

	for _, tpl := range templates {
		tpl.Standard = strings.TrimSpace(tpl.Standard)
		tpl.Code = strings.TrimSpace(tpl.Code)
		if tpl.Standard == "" || tpl.Code == "" {
			return created, updated, fmt.Errorf("template %q/%q: standard and code are required", tpl.Standard, tpl.Code)
		}
		if !models.IsValidRiskImpact(tpl.RiskImpact) {
			return created, updated, fmt.Errorf("template %s: unknown risk impact %q", tpl.Code, tpl.RiskImpact)
		}
		if tpl.Weight <= 0 {
			return created, updated, fmt.Errorf("template %s: weight must be positive, got %v", tpl.Code, tpl.Weight)
		}

		var existing models.ChecklistTemplate
		err := config.DB.Where("standard = ? AND code = ?", tpl.Standard, tpl.Code).First(&existing).Error
		if err == nil {
			tpl.TemplateID = existing.TemplateID
			tpl.CreateAt = existing.CreateAt
			now := time.Now()
			tpl.UpdateAt = &now
			if err := config.DB.Save(&tpl).Error; err != nil {
				return created, updated, fmt.Errorf("failed to update template %s: %w", tpl.Code, err)
			}
			updated++
			continue
		}

		now := time.Now()
		tpl.CreateAt = &now
		tpl.UpdateAt = &now
		if err := config.DB.Create(&tpl).Error; err != nil {
			return created, updated, fmt.Errorf("failed to create template %s: %w", tpl.Code, err)
		}
		created++
	}

	ClearCatalogCache()
	return created, updated, nil
}
