package devserver

import (
	"time"

	"github.com/dmitrijs2005/flockapp/internal/client/models"
)

// Demo account created by Seed.
const (
	DemoEmail    = "demo@flock.dev"
	DemoPassword = "password"
)

// Seed loads demo products, a live program, events and a verified demo user.
func (s *Store) Seed() error {
	for _, p := range []models.Product{
		{ID: "prod-tee", Name: "Flock Tee", Price: 10},
		{ID: "prod-mug", Name: "Flock Mug", Price: 4.5},
		{ID: "prod-hoodie", Name: "Flock Hoodie", Price: 25},
		{ID: "prod-cap", Name: "Flock Cap", Price: 7},
	} {
		s.AddProduct(p)
	}

	now := s.now().UTC().Truncate(time.Minute)
	s.SetProgram(&models.Program{
		ID:          "prog-sunday",
		Title:       "Sunday Service",
		Description: "Weekly gathering, streamed live.",
		VideoURL:    "https://stream.flock.dev/live/sunday.m3u8",
		IsLive:      true,
		StartTime:   now.Add(-30 * time.Minute),
	})

	s.AddEvent(models.Event{
		Title: "Community Breakfast", Location: "Main Hall", Active: true,
		StartsAt: now.Add(48 * time.Hour), EndsAt: now.Add(50 * time.Hour),
	})
	s.AddEvent(models.Event{
		Title: "Youth Retreat", Location: "Lakeside Camp", Active: true,
		StartsAt: now.Add(14 * 24 * time.Hour), EndsAt: now.Add(16 * 24 * time.Hour),
	})
	s.AddEvent(models.Event{
		Title: "Easter Concert", Location: "Main Hall", Active: false,
		StartsAt: now.Add(-30 * 24 * time.Hour), EndsAt: now.Add(-30*24*time.Hour + 3*time.Hour),
	})

	otp, err := s.CreateUser(SignUp{
		FirstName: "Demo", LastName: "User", Email: DemoEmail, Password: DemoPassword, Zone: "Central",
	})
	if err != nil {
		return err
	}
	_, err = s.VerifySignup(DemoEmail, otp)
	return err
}
