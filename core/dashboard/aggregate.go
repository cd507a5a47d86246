// Package dashboard computes the demographic and registration statistics shown on the dashboard,
// and the full-data backup export.
package dashboard

import (
	"sort"
	"strings"
	"time"

	"github.com/trezcool/barangay/core"
	"github.com/trezcool/barangay/core/auth"
)

const (
	KindResident   = "Resident"
	KindFamilyHead = "Family Head"

	UnknownGender      = "Unknown"
	DefaultRecentLimit = 5

	colorMale    = "#0088FE"
	colorFemale  = "#FF8042"
	colorDefault = "#FFBB28"
)

var (
	ageRanges = []struct {
		name string
		max  int // inclusive; the last range is open-ended
	}{
		{"0-10", 10},
		{"11-20", 20},
		{"21-30", 30},
		{"31-40", 40},
		{"41-50", 50},
		{"51-60", 60},
		{"61+", 0},
	}

	monthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
)

type (
	// Person is the read-only view of a resident or family head.
	// Zero dates mean the record has no such date.
	Person struct {
		ID               string
		FirstName        string
		LastName         string
		Gender           string
		BirthDate        time.Time
		RegistrationDate time.Time
		Kind             string
	}

	GenderBucket struct {
		Name  string `json:"name"`
		Value int    `json:"value"`
		Color string `json:"color"`
	}

	AgeBucket struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	MonthBucket struct {
		Name         string `json:"name"`
		NewResidents int    `json:"newResidents"`
	}

	RecentRegistration struct {
		ID   string    `json:"id"`
		Name string    `json:"name"`
		Date time.Time `json:"date"`
		Type string    `json:"type"`
	}

	Report struct {
		TotalResidents       int                  `json:"totalResidents"`
		TotalFamilyHeads     int                  `json:"totalFamilyHeads"`
		GenderData           []GenderBucket       `json:"genderData"`
		AgeData              []AgeBucket          `json:"ageData"`
		MonthlyRegistrations []MonthBucket        `json:"monthlyRegistrations"`
		RecentRegistrations  []RecentRegistration `json:"recentRegistrations"`
	}

	// Snapshot holds every collection of the Record Store, as schemaless documents.
	Snapshot struct {
		Residents        []core.Document
		FamilyHeads      []core.Document
		Announcements    []core.Document
		Events           []core.Document
		DocumentRequests []core.Document
		Users            []core.Document
	}

	BackupData struct {
		Residents        []core.Document `json:"residents"`
		FamilyHeads      []core.Document `json:"familyHeads"`
		Announcements    []core.Document `json:"announcements"`
		Events           []core.Document `json:"events"`
		DocumentRequests []core.Document `json:"documentRequests"`
		Users            []core.Document `json:"users"`
	}

	Backup struct {
		Timestamp time.Time  `json:"timestamp"`
		Data      BackupData `json:"data"`
	}
)

func (p Person) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

func genderColor(label string) string {
	switch label {
	case "Male":
		return colorMale
	case "Female":
		return colorFemale
	default:
		return colorDefault
	}
}

// GenderDistribution counts people per gender, in first-seen order.
func GenderDistribution(people []Person) []GenderBucket {
	buckets := make([]GenderBucket, 0, 3)
	index := make(map[string]int, 3)
	for _, p := range people {
		label := strings.TrimSpace(p.Gender)
		if label == "" {
			label = UnknownGender
		}
		i, ok := index[label]
		if !ok {
			i = len(buckets)
			index[label] = i
			buckets = append(buckets, GenderBucket{Name: label, Color: genderColor(label)})
		}
		buckets[i].Value++
	}
	return buckets
}

// AgeDistribution counts people per age range, as of asOfYear.
// People without a birth date are left out.
func AgeDistribution(people []Person, asOfYear int) []AgeBucket {
	buckets := make([]AgeBucket, len(ageRanges))
	for i, r := range ageRanges {
		buckets[i].Name = r.name
	}
	last := len(ageRanges) - 1

	for _, p := range people {
		if p.BirthDate.IsZero() {
			continue
		}
		age := asOfYear - p.BirthDate.Year()
		i := 0
		for i < last && age > ageRanges[i].max {
			i++
		}
		buckets[i].Count++
	}
	return buckets
}

// MonthlyTrend counts registrations per calendar month, whatever their year.
func MonthlyTrend(people []Person) []MonthBucket {
	buckets := make([]MonthBucket, len(monthNames))
	for i, name := range monthNames {
		buckets[i].Name = name
	}
	for _, p := range people {
		if p.RegistrationDate.IsZero() {
			continue
		}
		buckets[p.RegistrationDate.Month()-1].NewResidents++
	}
	return buckets
}

// RecentRegistrations returns the latest `limit` registrations, newest first.
// Registrations sharing a date keep their input order.
func RecentRegistrations(people []Person, limit int) []RecentRegistration {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	dated := make([]Person, 0, len(people))
	for _, p := range people {
		if !p.RegistrationDate.IsZero() {
			dated = append(dated, p)
		}
	}
	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].RegistrationDate.After(dated[j].RegistrationDate)
	})
	if len(dated) > limit {
		dated = dated[:limit]
	}

	recent := make([]RecentRegistration, 0, len(dated))
	for _, p := range dated {
		recent = append(recent, RecentRegistration{
			ID:   p.ID,
			Name: p.FullName(),
			Date: p.RegistrationDate,
			Type: p.Kind,
		})
	}
	return recent
}

// BuildDashboardReport computes every dashboard statistic over residents and family heads.
func BuildDashboardReport(residents, familyHeads []Person, asOf time.Time) Report {
	everyone := make([]Person, 0, len(residents)+len(familyHeads))
	everyone = append(everyone, residents...)
	everyone = append(everyone, familyHeads...)

	return Report{
		TotalResidents:       len(residents),
		TotalFamilyHeads:     len(familyHeads),
		GenderData:           GenderDistribution(everyone),
		AgeData:              AgeDistribution(everyone, asOf.Year()),
		MonthlyRegistrations: MonthlyTrend(everyone),
		RecentRegistrations:  RecentRegistrations(everyone, DefaultRecentLimit),
	}
}

// BuildBackupExport returns the timestamped export of every collection.
// QR codes are stripped from all records, and passwords from user records.
func BuildBackupExport(id auth.Identity, snap Snapshot, now time.Time) (Backup, error) {
	if err := auth.RequireRole(id, auth.RoleAdmin); err != nil {
		return Backup{}, err
	}
	return Backup{
		Timestamp: now,
		Data: BackupData{
			Residents:        strip(snap.Residents, core.FieldQRCode),
			FamilyHeads:      strip(snap.FamilyHeads, core.FieldQRCode),
			Announcements:    strip(snap.Announcements, core.FieldQRCode),
			Events:           strip(snap.Events, core.FieldQRCode),
			DocumentRequests: strip(snap.DocumentRequests, core.FieldQRCode),
			Users:            strip(snap.Users, core.FieldQRCode, core.FieldPassword),
		},
	}, nil
}

// strip copies docs without the given fields, leaving the input untouched.
func strip(docs []core.Document, fields ...string) []core.Document {
	out := make([]core.Document, 0, len(docs))
	for _, doc := range docs {
		cp := make(core.Document, len(doc))
		for k, v := range doc {
			cp[k] = v
		}
		for _, f := range fields {
			delete(cp, f)
		}
		out = append(out, cp)
	}
	return out
}
