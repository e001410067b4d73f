// package planner computes the desired playlist roster for a sync run.
//
// Plan is a pure function of (snapshot, config, asOf): it derives every
// managed playlist slot fresh on each run and owns no state across runs.
// The reconciler diffs the result against the remote roster.
package planner

import (
	"fmt"

	"github.com/samber/lo"

	"curator/internal/catalog"
	"curator/internal/naming"
	"curator/internal/shared"
)

// Slot is a logical, addressable playlist: (kind, period, genre?). A slot
// maps to at most one remote playlist, discovered by exact name match.
type Slot struct {
	Kind        Kind
	Span        Span
	Month       Month  // valid when Span == SpanMonthly
	Year        int    // valid when Span == SpanMonthly or SpanYearly
	Genre       string // set for genre-split and master genre slots
	Name        string
	Description string
	Tracks      []catalog.TrackID // target membership
}

// Master reports whether the slot is an all-time master genre slot, the
// only slot shape whose reconciliation may prune tracks.
func (s Slot) Master() bool {
	return s.Span == SpanAllTime && s.Genre != ""
}

// ExpiredSlot names a Month slot whose age has reached the retention
// window. Its remote playlist is deleted once the named Year slot holds
// all of its tracks.
type ExpiredSlot struct {
	Kind     Kind
	Month    Month
	Name     string // rendered monthly playlist name
	YearName string // rendered yearly playlist name absorbing the month
}

// SkippedKind records a playlist kind excluded from the run and why.
type SkippedKind struct {
	Kind   Kind
	Reason string
}

// Plan is the desired roster for one run.
type Plan struct {
	AsOf    Month
	Slots   []Slot
	Expired []ExpiredSlot
	Skipped []SkippedKind
}

// Compute derives the desired roster from a snapshot, configuration, and
// as-of month. Configuration problems (bad retention window, malformed
// templates) fail here, before any remote mutation.
func Compute(snap *catalog.Snapshot, cfg *shared.Config, asOf Month) (*Plan, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := naming.ValidateTemplates(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}

	p := &planContext{snap: snap, cfg: cfg, asOf: asOf}
	return p.compute()
}

type planContext struct {
	snap *catalog.Snapshot
	cfg  *shared.Config
	asOf Month

	likedByMonth map[Month][]catalog.TrackID
	tracksByID   map[catalog.TrackID]catalog.Track
	plan         *Plan
}

func (p *planContext) compute() (*Plan, error) {
	p.plan = &Plan{AsOf: p.asOf}
	p.indexLikedByMonth()

	for _, kind := range []Kind{KindFinds, KindTop, KindDiscovery} {
		if skip := p.kindSkip(kind); skip != "" {
			p.plan.Skipped = append(p.plan.Skipped, SkippedKind{Kind: kind, Reason: skip})
			continue
		}
		if err := p.planMonthly(kind); err != nil {
			return nil, err
		}
		if err := p.planYearly(kind); err != nil {
			return nil, err
		}
	}

	if err := p.planMasterGenres(); err != nil {
		return nil, err
	}

	return p.plan, nil
}

// indexLikedByMonth groups liked tracks by inclusion month, preserving
// snapshot order and deduplicating ids.
func (p *planContext) indexLikedByMonth() {
	p.likedByMonth = make(map[Month][]catalog.TrackID)
	p.tracksByID = make(map[catalog.TrackID]catalog.Track, len(p.snap.Tracks))
	seen := make(map[Month]map[catalog.TrackID]bool)
	for _, t := range p.snap.Tracks {
		if _, ok := p.tracksByID[t.ID]; !ok {
			p.tracksByID[t.ID] = t
		}
		if t.AddedAt.IsZero() {
			continue
		}
		m := MonthOf(t.AddedAt)
		if seen[m] == nil {
			seen[m] = make(map[catalog.TrackID]bool)
		}
		if seen[m][t.ID] {
			continue
		}
		seen[m][t.ID] = true
		p.likedByMonth[m] = append(p.likedByMonth[m], t.ID)
	}
}

// kindSkip returns a non-empty reason when the kind is excluded from this
// run: disabled by configuration, or history-derived with no history
// available. Skipping narrows scope; it is not an error.
func (p *planContext) kindSkip(kind Kind) string {
	if !p.kindConfig(kind).Enabled {
		return "disabled"
	}
	if kind != KindFinds && p.snap.History == nil {
		return "history unavailable"
	}
	return ""
}

func (p *planContext) kindConfig(kind Kind) shared.KindConfig {
	switch kind {
	case KindTop:
		return p.cfg.Playlists.Top
	case KindDiscovery:
		return p.cfg.Playlists.Discovery
	default:
		return p.cfg.Playlists.Finds
	}
}

// membership returns the target track set for one kind and month.
func (p *planContext) membership(kind Kind, m Month) []catalog.TrackID {
	switch kind {
	case KindTop:
		return lo.Uniq(p.snap.History.TopTracks(m.Year, m.Mon))
	case KindDiscovery:
		return lo.Uniq(p.snap.History.FirstPlays(m.Year, m.Mon))
	default:
		return p.likedByMonth[m]
	}
}

// recentMonths returns the retention window: every month with age < N,
// oldest first. These exist as Month slots even with empty membership.
func (p *planContext) recentMonths() []Month {
	n := p.cfg.Playlists.RetentionMonths
	months := make([]Month, n)
	m := p.asOf
	for i := n - 1; i >= 0; i-- {
		months[i] = m
		m = m.Prev()
	}
	return months
}

// agedMonths returns every month in the snapshot's timestamp range whose
// age has reached the retention window, oldest first.
func (p *planContext) agedMonths() []Month {
	earliest, _, ok := p.snap.Bounds()
	if !ok {
		return nil
	}
	n := p.cfg.Playlists.RetentionMonths
	var months []Month
	for m := MonthOf(earliest); !p.asOf.Before(m); m = m.Next() {
		if m.Age(p.asOf) >= n {
			months = append(months, m)
		}
	}
	return months
}

// planMonthly emits the retained Month slots for a kind, plus the
// genre-split view for Finds.
func (p *planContext) planMonthly(kind Kind) error {
	kc := p.kindConfig(kind)
	for _, m := range p.recentMonths() {
		ctx := naming.MonthContext(p.cfg.Owner, kc.Prefix, m.Year, m.Mon)
		name, err := naming.Render(kc.MonthlyTemplate, ctx)
		if err != nil {
			return err
		}

		tracks := p.membership(kind, m)
		p.plan.Slots = append(p.plan.Slots, Slot{
			Kind:        kind,
			Span:        SpanMonthly,
			Month:       m,
			Year:        m.Year,
			Name:        name,
			Description: naming.Description(p.cfg.Playlists.DescriptionTemplate, kindType(kind), ctx.Period),
			Tracks:      tracks,
		})

		if kind == KindFinds {
			if err := p.planSplits(m, ctx, tracks); err != nil {
				return err
			}
		}
	}
	return nil
}

// planSplits partitions one Finds month's membership across the fixed
// split genre list. First match over the configured list wins; everything
// else lands in the Other catch-all, so the splits jointly cover the
// parent slot exactly once per track.
func (p *planContext) planSplits(m Month, ctx naming.Context, parent []catalog.TrackID) error {
	genres := append(append([]string{}, p.cfg.Playlists.SplitGenres...), catalog.GenreOther)
	buckets := make(map[string][]catalog.TrackID, len(genres))
	for _, id := range parent {
		g := p.splitGenre(id)
		buckets[g] = append(buckets[g], id)
	}

	prefix := p.cfg.Playlists.Finds.Prefix
	for _, genre := range lo.Uniq(genres) {
		splitCtx := ctx
		splitCtx.Prefix = prefix
		splitCtx.Genre = genre
		name, err := naming.Render(p.cfg.Playlists.SplitTemplate, splitCtx)
		if err != nil {
			return err
		}
		p.plan.Slots = append(p.plan.Slots, Slot{
			Kind:        KindFinds,
			Span:        SpanMonthly,
			Month:       m,
			Year:        m.Year,
			Genre:       genre,
			Name:        name,
			Description: naming.Description(p.cfg.Playlists.DescriptionTemplate, genre+" tracks", splitCtx.Period),
			Tracks:      buckets[genre],
		})
	}
	return nil
}

// splitGenre assigns a track to exactly one split bucket.
func (p *planContext) splitGenre(id catalog.TrackID) string {
	track, ok := p.trackByID(id)
	if !ok {
		return catalog.GenreOther
	}
	for _, g := range p.cfg.Playlists.SplitGenres {
		if lo.Contains(track.Genres, g) {
			return g
		}
	}
	return catalog.GenreOther
}

func (p *planContext) trackByID(id catalog.TrackID) (catalog.Track, bool) {
	t, ok := p.tracksByID[id]
	return t, ok
}

// planYearly emits Year slots consolidating every aged-out month of the
// kind, and records the expired Month slots for guarded deletion.
// Membership is computed freshly from the snapshot, never read back from
// the monthly playlists.
func (p *planContext) planYearly(kind Kind) error {
	if !kind.EligibleForYearly() {
		return nil
	}

	kc := p.kindConfig(kind)
	byYear := make(map[int][]Month)
	var years []int
	for _, m := range p.agedMonths() {
		if _, ok := byYear[m.Year]; !ok {
			years = append(years, m.Year)
		}
		byYear[m.Year] = append(byYear[m.Year], m)
	}

	for _, year := range years {
		ctx := naming.YearContext(p.cfg.Owner, kc.Prefix, year)
		yearName, err := naming.Render(kc.YearlyTemplate, ctx)
		if err != nil {
			return err
		}

		var tracks []catalog.TrackID
		for _, m := range byYear[year] {
			tracks = append(tracks, p.membership(kind, m)...)

			monthCtx := naming.MonthContext(p.cfg.Owner, kc.Prefix, m.Year, m.Mon)
			monthName, err := naming.Render(kc.MonthlyTemplate, monthCtx)
			if err != nil {
				return err
			}
			p.plan.Expired = append(p.plan.Expired, ExpiredSlot{
				Kind:     kind,
				Month:    m,
				Name:     monthName,
				YearName: yearName,
			})
		}

		p.plan.Slots = append(p.plan.Slots, Slot{
			Kind:        kind,
			Span:        SpanYearly,
			Year:        year,
			Name:        yearName,
			Description: naming.Description(p.cfg.Playlists.DescriptionTemplate, kindType(kind), ctx.Period),
			Tracks:      lo.Uniq(tracks),
		})

		if kind == KindFinds {
			if err := p.planSplitYears(year, byYear[year]); err != nil {
				return err
			}
		}
	}
	return nil
}

// planSplitYears consolidates the aged genre-split months of one year into
// per-genre Year slots. Each aged month's membership is partitioned with the
// same first-match rule as the monthly splits, so every split monthly
// playlist has a genre yearly absorbing it before deletion.
func (p *planContext) planSplitYears(year int, months []Month) error {
	genres := lo.Uniq(append(append([]string{}, p.cfg.Playlists.SplitGenres...), catalog.GenreOther))
	prefix := p.cfg.Playlists.Finds.Prefix

	buckets := make(map[string][]catalog.TrackID, len(genres))
	for _, m := range months {
		for _, id := range p.membership(KindFinds, m) {
			g := p.splitGenre(id)
			buckets[g] = append(buckets[g], id)
		}
	}

	for _, genre := range genres {
		ctx := naming.YearContext(p.cfg.Owner, prefix, year)
		ctx.Genre = genre
		yearName, err := naming.Render(p.cfg.Playlists.SplitYearlyTemplate, ctx)
		if err != nil {
			return err
		}

		for _, m := range months {
			monthCtx := naming.MonthContext(p.cfg.Owner, prefix, m.Year, m.Mon)
			monthCtx.Genre = genre
			monthName, err := naming.Render(p.cfg.Playlists.SplitTemplate, monthCtx)
			if err != nil {
				return err
			}
			p.plan.Expired = append(p.plan.Expired, ExpiredSlot{
				Kind:     KindFinds,
				Month:    m,
				Name:     monthName,
				YearName: yearName,
			})
		}

		p.plan.Slots = append(p.plan.Slots, Slot{
			Kind:        KindFinds,
			Span:        SpanYearly,
			Year:        year,
			Genre:       genre,
			Name:        yearName,
			Description: naming.Description(p.cfg.Playlists.DescriptionTemplate, genre+" tracks", ctx.Period),
			Tracks:      lo.Uniq(buckets[genre]),
		})
	}
	return nil
}

// planMasterGenres emits one all-time slot per observed genre label. Every
// liked track appears in at least one master slot (Other is the catch-all)
// and may appear in several (multi-membership is allowed).
func (p *planContext) planMasterGenres() error {
	tmpl := p.cfg.Playlists.GenreMaster.Template
	prefix := p.cfg.Playlists.GenreMaster.Prefix

	for _, genre := range p.snap.GenreSet() {
		var tracks []catalog.TrackID
		for _, t := range p.snap.Tracks {
			labels := t.Genres
			if len(labels) == 0 {
				labels = []string{catalog.GenreOther}
			}
			if lo.Contains(labels, genre) {
				tracks = append(tracks, t.ID)
			}
		}

		name, err := naming.Render(tmpl, naming.Context{
			Owner:  p.cfg.Owner,
			Prefix: prefix,
			Genre:  genre,
			Period: "all time",
		})
		if err != nil {
			return err
		}

		p.plan.Slots = append(p.plan.Slots, Slot{
			Kind:        KindFinds,
			Span:        SpanAllTime,
			Genre:       genre,
			Name:        name,
			Description: naming.Description(p.cfg.Playlists.DescriptionTemplate, genre+" tracks", "all time"),
			Tracks:      lo.Uniq(tracks),
		})
	}
	return nil
}

// kindType is the {type} placeholder value used in descriptions.
func kindType(kind Kind) string {
	switch kind {
	case KindTop:
		return "Most played"
	case KindDiscovery:
		return "Discoveries"
	default:
		return "Liked songs"
	}
}
