package devapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/iudanet/scholardesk/pkg/api"
)

// SeedAdmin создает super admin, под которым можно войти в пустой dev API
func (s *Server) SeedAdmin(email, password string) (api.User, error) {
	username, _, _ := strings.Cut(email, "@")
	user, err := s.store.CreateUser(NewUser{
		Joined: s.now(),
		Account: api.Account{
			Username:  username,
			Email:     email,
			Password:  password,
			FirstName: "Super",
			LastName:  "Admin",
		},
		UserType:     api.UserTypeAdmin,
		IsStaff:      true,
		IsSuperAdmin: true,
	})
	if err != nil {
		return api.User{}, fmt.Errorf("failed to seed admin: %w", err)
	}
	return user, nil
}

// SeedScholarships добавляет несколько стипендий, включая одну с истекшим сроком
func (s *Server) SeedScholarships() []api.Scholarship {
	now := s.now()
	deadline := func(days int) api.Date {
		return api.Date{Time: now.AddDate(0, 0, days).Truncate(24 * time.Hour)}
	}
	inputs := []api.ScholarshipInput{
		{
			Name:        "Chevening Scholarship",
			HostCountry: "United Kingdom",
			DegreeLevel: "Masters",
			Deadline:    deadline(60),
			Description: "Fully funded one-year master's degree.",
			Link:        "https://www.chevening.org",
		},
		{
			Name:        "DAAD Research Grant",
			HostCountry: "Germany",
			DegreeLevel: "PhD",
			Deadline:    deadline(120),
			Benefits:    "Monthly stipend and travel allowance.",
			Link:        "https://www.daad.de",
		},
		{
			Name:        "Fulbright Foreign Student Program",
			HostCountry: "United States",
			DegreeLevel: "Masters",
			Deadline:    deadline(-10),
			Link:        "https://foreign.fulbrightonline.org",
		},
		{
			Name:        "MEXT Undergraduate Scholarship",
			HostCountry: "Japan",
			DegreeLevel: "Bachelors",
			Deadline:    deadline(30),
		},
	}

	out := make([]api.Scholarship, 0, len(inputs))
	for i, in := range inputs {
		in.Author = "Super Admin"
		// Разные created_at, чтобы сортировка по новизне была детерминированной
		out = append(out, s.store.CreateScholarship(in, now.Add(time.Duration(i)*time.Minute)))
	}
	return out
}
