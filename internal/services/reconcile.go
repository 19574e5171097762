package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	applog "stallhub/internal/log"
	"stallhub/internal/repos"
)

// Sweeper repairs drift between the durable catalog and presence: it resumes
// interrupted cascades, removes unplaced items past a grace period, mirrors
// category visibility and vendor type into presence, and drops presence
// entries for categories that no longer exist.
type Sweeper struct {
	Catalog     *CatalogService
	OrphanGrace time.Duration
}

type SweepReport struct {
	ResumedDeletes  int `json:"resumedDeletes"`
	OrphansRemoved  int `json:"orphansRemoved"`
	StatusesSynced  int `json:"statusesSynced"`
	StatusesRemoved int `json:"statusesRemoved"`
	VendorsChecked  int `json:"vendorsChecked"`
}

// Sweep runs every repair step and keeps going past individual failures;
// the returned error joins all of them.
func (s *Sweeper) Sweep(ctx context.Context) (SweepReport, error) {
	var rep SweepReport
	var errs []error
	c := s.Catalog

	deleting, err := c.Cats.Deleting(ctx)
	if err != nil {
		return rep, err
	}
	for _, cat := range deleting {
		if err := c.cascade(ctx, cat); err != nil {
			errs = append(errs, fmt.Errorf("resume delete %s: %w", cat.ID, err))
			continue
		}
		rep.ResumedDeletes++
	}

	cutoff := repos.Timestamp(c.Now().Add(-s.OrphanGrace))
	orphans, err := c.Items.Orphans(ctx, cutoff)
	if err != nil {
		errs = append(errs, fmt.Errorf("list orphans: %w", err))
	}
	for _, it := range orphans {
		if err := c.deleteItem(ctx, it); err != nil {
			errs = append(errs, fmt.Errorf("orphan %s: %w", it.ID, err))
			continue
		}
		rep.OrphansRemoved++
	}

	if err := s.syncCategoryStatus(ctx, &rep); err != nil {
		errs = append(errs, err)
	}

	vendors, err := c.Vendors.List(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("list vendors: %w", err))
	}
	for _, v := range vendors {
		if err := c.reclassify(ctx, v.ID); err != nil {
			errs = append(errs, fmt.Errorf("classify %s: %w", v.ID, err))
			continue
		}
		rep.VendorsChecked++
	}

	err = errors.Join(errs...)
	if err != nil {
		applog.Warn(nil, "reconcile.sweep", err, map[string]any{"report": rep})
	} else {
		applog.Info(nil, "reconcile.sweep", map[string]any{"report": rep})
	}
	return rep, err
}

func (s *Sweeper) syncCategoryStatus(ctx context.Context, rep *SweepReport) error {
	c := s.Catalog
	status, err := c.Presence.AllCategoryStatus(ctx)
	if err != nil {
		return err
	}
	cats, err := c.Cats.All(ctx)
	if err != nil {
		return err
	}

	known := make(map[string]bool, len(cats))
	for _, cat := range cats {
		known[cat.VendorID+"/"+cat.ID] = true
		if cat.Deleting() {
			continue
		}
		cur, ok := status[cat.VendorID][cat.ID]
		if ok && cur == cat.Visibility {
			continue
		}
		if err := c.Presence.SetCategoryStatus(ctx, cat.VendorID, cat.ID, cat.Visibility); err != nil {
			return err
		}
		rep.StatusesSynced++
	}
	for vendorID, byCat := range status {
		for catID := range byCat {
			if known[vendorID+"/"+catID] {
				continue
			}
			if err := c.Presence.RemoveCategoryStatus(ctx, vendorID, catID); err != nil {
				return err
			}
			rep.StatusesRemoved++
		}
	}
	return nil
}
