package contact

import (
	"context"
	"sort"
	"strings"

	domainRoute "rx-logistics/internal/domain/route"
	domainUser "rx-logistics/internal/domain/user"
	appErrors "rx-logistics/pkg/errors"

	"github.com/google/uuid"
)

type Config struct {
	// HiddenEmails never appear in the directory.
	HiddenEmails []string
	// FeaturedEmails are listed with the drivers whatever their role.
	FeaturedEmails []string
	DispatchPhone  string
}

type Person struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Phone    *string   `json:"phone"`
	JobTitle *string   `json:"job_title"`
	Role     string    `json:"role"`
}

type Route struct {
	Code         string             `json:"code"`
	Region       string             `json:"region"`
	ScannerPhone string             `json:"scanner_phone"`
	Duration     string             `json:"duration"`
	Stops        []domainRoute.Stop `json:"stops"`
}

type Directory struct {
	DispatchPhone string    `json:"dispatch_phone"`
	Management    []*Person `json:"management"`
	Drivers       []*Person `json:"drivers"`
	Routes        []*Route  `json:"routes"`
}

// Service builds the contact directory from user profiles and routes.
type Service struct {
	userRepo  domainUser.Repository
	routeRepo domainRoute.Repository
	hidden    map[string]bool
	featured  map[string]bool
	dispatch  string
}

func NewService(userRepo domainUser.Repository, routeRepo domainRoute.Repository, cfg Config) *Service {
	return &Service{
		userRepo:  userRepo,
		routeRepo: routeRepo,
		hidden:    emailSet(cfg.HiddenEmails),
		featured:  emailSet(cfg.FeaturedEmails),
		dispatch:  cfg.DispatchPhone,
	}
}

func (s *Service) Directory(ctx context.Context) (*Directory, error) {
	users, err := s.userRepo.GetAll(ctx)
	if err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeDatabase, "Failed to load contacts", err)
	}

	routes, err := s.Routes(ctx)
	if err != nil {
		return nil, err
	}

	dir := &Directory{
		DispatchPhone: s.dispatch,
		Management:    []*Person{},
		Drivers:       []*Person{},
		Routes:        routes,
	}

	for _, u := range users {
		email := normalizeEmail(u.Email)
		if !u.IsActive || s.hidden[email] {
			continue
		}

		p := toPerson(u)
		if s.featured[email] || isDriver(u) {
			dir.Drivers = append(dir.Drivers, p)
		} else {
			dir.Management = append(dir.Management, p)
		}
	}

	sortPeople(dir.Management)
	sortPeople(dir.Drivers)
	return dir, nil
}

func (s *Service) Routes(ctx context.Context) ([]*Route, error) {
	routes, err := s.routeRepo.List(ctx)
	if err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeDatabase, "Failed to load routes", err)
	}

	out := make([]*Route, len(routes))
	for i, r := range routes {
		stops := r.Stops
		if stops == nil {
			stops = []domainRoute.Stop{}
		}
		out[i] = &Route{
			Code:         r.Code,
			Region:       r.Region,
			ScannerPhone: r.ScannerPhone,
			Duration:     r.Duration,
			Stops:        stops,
		}
	}
	return out, nil
}

// isDriver treats a "Delivery Driver" job title as a driver even on
// accounts holding another role.
func isDriver(u *domainUser.User) bool {
	if u.Role == domainUser.RoleDriver {
		return true
	}
	return u.JobTitle != nil && strings.EqualFold(strings.TrimSpace(*u.JobTitle), domainUser.JobTitleDeliveryDriver)
}

func toPerson(u *domainUser.User) *Person {
	return &Person{
		ID:       u.ID,
		Name:     u.FullName(),
		Email:    u.Email,
		Phone:    u.Phone,
		JobTitle: u.JobTitle,
		Role:     string(u.Role),
	}
}

func sortPeople(people []*Person) {
	sort.SliceStable(people, func(i, j int) bool {
		return strings.ToLower(people[i].Name) < strings.ToLower(people[j].Name)
	})
}

func emailSet(emails []string) map[string]bool {
	set := make(map[string]bool, len(emails))
	for _, e := range emails {
		if e = normalizeEmail(e); e != "" {
			set[e] = true
		}
	}
	return set
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
