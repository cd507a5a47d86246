package dashboard

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/barangay/core"
	"github.com/trezcool/barangay/core/auth"
)

// Recorder receives the dashboard metrics.
type Recorder interface {
	ObserveReport(report string, d time.Duration)
	IncBackupExports()
}

type nopRecorder struct{}

func (nopRecorder) ObserveReport(string, time.Duration) {}
func (nopRecorder) IncBackupExports()                   {}

// Service reads the Record Store and feeds the aggregation functions.
type Service struct {
	store   core.Store
	metrics Recorder
	now     func() time.Time
}

func NewService(store core.Store, metrics Recorder) *Service {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &Service{
		store:   store,
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// PersonFromDocument reads the fields the dashboard needs from a resident or family head record.
// Unreadable fields are left empty rather than failing the whole report.
func PersonFromDocument(doc core.Document, kind string) Person {
	idField := "residentId"
	if kind == KindFamilyHead {
		idField = "headId"
	}
	return Person{
		ID:               core.DocumentString(doc, idField),
		FirstName:        core.DocumentString(doc, "firstName"),
		LastName:         core.DocumentString(doc, "lastName"),
		Gender:           core.DocumentString(doc, "gender"),
		BirthDate:        core.DocumentTime(doc, "birthDate"),
		RegistrationDate: core.DocumentTime(doc, "registrationDate"),
		Kind:             kind,
	}
}

// people fetches residents and family heads concurrently.
func (svc *Service) people(ctx context.Context) (residents, heads []Person, err error) {
	var resDocs, headDocs []core.Document

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return svc.store.FindAll(gctx, core.CollResidents, &resDocs, core.Exclude(core.FieldQRCode))
	})
	g.Go(func() error {
		return svc.store.FindAll(gctx, core.CollFamilyHeads, &headDocs, core.Exclude(core.FieldQRCode))
	})
	if err := g.Wait(); err != nil {
		return nil, nil, errors.Wrap(err, "fetching people")
	}

	residents = make([]Person, 0, len(resDocs))
	for _, doc := range resDocs {
		residents = append(residents, PersonFromDocument(doc, KindResident))
	}
	heads = make([]Person, 0, len(headDocs))
	for _, doc := range headDocs {
		heads = append(heads, PersonFromDocument(doc, KindFamilyHead))
	}
	return residents, heads, nil
}

func (svc *Service) everyone(ctx context.Context) ([]Person, error) {
	residents, heads, err := svc.people(ctx)
	if err != nil {
		return nil, err
	}
	return append(residents, heads...), nil
}

func (svc *Service) observe(report string, start time.Time) {
	svc.metrics.ObserveReport(report, time.Since(start))
}

func (svc *Service) Stats(ctx context.Context) (Report, error) {
	defer svc.observe("stats", time.Now())
	residents, heads, err := svc.people(ctx)
	if err != nil {
		return Report{}, err
	}
	return BuildDashboardReport(residents, heads, svc.now()), nil
}

func (svc *Service) Recent(ctx context.Context, limit int) ([]RecentRegistration, error) {
	defer svc.observe("recent", time.Now())
	everyone, err := svc.everyone(ctx)
	if err != nil {
		return nil, err
	}
	return RecentRegistrations(everyone, limit), nil
}

func (svc *Service) Gender(ctx context.Context) ([]GenderBucket, error) {
	defer svc.observe("gender", time.Now())
	everyone, err := svc.everyone(ctx)
	if err != nil {
		return nil, err
	}
	return GenderDistribution(everyone), nil
}

func (svc *Service) Age(ctx context.Context) ([]AgeBucket, error) {
	defer svc.observe("age", time.Now())
	everyone, err := svc.everyone(ctx)
	if err != nil {
		return nil, err
	}
	return AgeDistribution(everyone, svc.now().Year()), nil
}

func (svc *Service) Monthly(ctx context.Context) ([]MonthBucket, error) {
	defer svc.observe("monthly", time.Now())
	everyone, err := svc.everyone(ctx)
	if err != nil {
		return nil, err
	}
	return MonthlyTrend(everyone), nil
}

// Backup exports every collection. Only admins may export, and nothing is read otherwise.
func (svc *Service) Backup(ctx context.Context, id auth.Identity) (Backup, error) {
	if err := auth.RequireRole(id, auth.RoleAdmin); err != nil {
		return Backup{}, err
	}
	defer svc.observe("backup", time.Now())

	var snap Snapshot
	fetches := []struct {
		coll    core.Collection
		out     *[]core.Document
		exclude []string
	}{
		{core.CollResidents, &snap.Residents, []string{core.FieldQRCode}},
		{core.CollFamilyHeads, &snap.FamilyHeads, []string{core.FieldQRCode}},
		{core.CollAnnouncements, &snap.Announcements, []string{core.FieldQRCode}},
		{core.CollEvents, &snap.Events, []string{core.FieldQRCode}},
		{core.CollDocumentRequests, &snap.DocumentRequests, []string{core.FieldQRCode}},
		{core.CollUsers, &snap.Users, []string{core.FieldQRCode, core.FieldPassword}},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, f := range fetches {
		f := f
		g.Go(func() error {
			return svc.store.FindAll(gctx, f.coll, f.out, core.Exclude(f.exclude...))
		})
	}
	if err := g.Wait(); err != nil {
		return Backup{}, errors.Wrap(err, "fetching backup snapshot")
	}

	backup, err := BuildBackupExport(id, snap, svc.now())
	if err != nil {
		return Backup{}, err
	}
	svc.metrics.IncBackupExports()
	return backup, nil
}
