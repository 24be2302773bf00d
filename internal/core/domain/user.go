package domain

import (
	"strings"
	"time"
)

// Theme is the UI colour scheme preference.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// NotificationChannels refines the notifications switch per channel.
type NotificationChannels struct {
	Push  *bool `json:"push,omitempty" bson:"push,omitempty"`
	Email *bool `json:"email,omitempty" bson:"email,omitempty"`
}

// UserSettings are the per-user preferences stored on the profile.
type UserSettings struct {
	Theme                Theme                 `json:"theme" bson:"theme"`
	Notifications        bool                  `json:"notifications" bson:"notifications"`
	NotificationChannels *NotificationChannels `json:"notificationChannels,omitempty" bson:"notification_channels,omitempty"`
	ReminderTime         string                `json:"reminderTime" bson:"reminder_time"` // HH:mm
	YearStartDate        *time.Time            `json:"yearStartDate,omitempty" bson:"year_start_date,omitempty"`
	EnabledDomains       []string              `json:"enabledDomains,omitempty" bson:"enabled_domains,omitempty"`
}

// DefaultSettings are applied to every newly created profile.
func DefaultSettings() UserSettings {
	return UserSettings{
		Theme:         ThemeLight,
		Notifications: true,
		ReminderTime:  "09:00",
	}
}

func (s UserSettings) clone() UserSettings {
	if s.NotificationChannels != nil {
		ch := *s.NotificationChannels
		s.NotificationChannels = &ch
	}
	if s.YearStartDate != nil {
		t := *s.YearStartDate
		s.YearStartDate = &t
	}
	s.EnabledDomains = append([]string(nil), s.EnabledDomains...)
	return s
}

// SettingsPatch is a partial settings update; nil fields are left untouched.
type SettingsPatch struct {
	Theme                *Theme                `json:"theme,omitempty"`
	Notifications        *bool                 `json:"notifications,omitempty"`
	NotificationChannels *NotificationChannels `json:"notificationChannels,omitempty"`
	ReminderTime         *string               `json:"reminderTime,omitempty"`
	YearStartDate        *time.Time            `json:"yearStartDate,omitempty"`
	EnabledDomains       []string              `json:"enabledDomains,omitempty"`
}

// Apply merges the patch into s and returns the result.
func (p SettingsPatch) Apply(s UserSettings) UserSettings {
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
	if p.Notifications != nil {
		s.Notifications = *p.Notifications
	}
	if p.NotificationChannels != nil {
		ch := *p.NotificationChannels
		s.NotificationChannels = &ch
	}
	if p.ReminderTime != nil {
		s.ReminderTime = *p.ReminderTime
	}
	if p.YearStartDate != nil {
		t := *p.YearStartDate
		s.YearStartDate = &t
	}
	if p.EnabledDomains != nil {
		s.EnabledDomains = append([]string(nil), p.EnabledDomains...)
	}
	return s
}

// EvolutionPath is the archetype picked during onboarding.
type EvolutionPath string

const (
	PathArchitect EvolutionPath = "architect"
	PathAthlete   EvolutionPath = "athlete"
	PathSage      EvolutionPath = "sage"
	PathCreator   EvolutionPath = "creator"
)

// Valid reports whether p is one of the known paths.
func (p EvolutionPath) Valid() bool {
	switch p {
	case PathArchitect, PathAthlete, PathSage, PathCreator:
		return true
	}
	return false
}

// OnboardingRecord is embedded in the profile once the wizard is saved.
type OnboardingRecord struct {
	MindfulnessLevel int            `json:"mindfulnessLevel" bson:"mindfulness_level"`
	EvolutionPath    *EvolutionPath `json:"evolutionPath" bson:"evolution_path"`
	DisplayName      string         `json:"displayName" bson:"display_name"`
	CompletedAt      *time.Time     `json:"completedAt" bson:"completed_at"`
}

// UserProfile is the durable profile document owned by a principal.
type UserProfile struct {
	ID                     string            `json:"id" bson:"_id"`
	Email                  string            `json:"email" bson:"email"`
	DisplayName            string            `json:"displayName" bson:"display_name"`
	PhotoURL               string            `json:"photoURL,omitempty" bson:"photo_url,omitempty"`
	CreatedAt              time.Time         `json:"createdAt" bson:"created_at"`
	Settings               UserSettings      `json:"settings" bson:"settings"`
	HasCompletedOnboarding bool              `json:"hasCompletedOnboarding" bson:"has_completed_onboarding"`
	Onboarding             *OnboardingRecord `json:"onboarding,omitempty" bson:"onboarding,omitempty"`
}

// Clone returns a deep copy of the profile.
func (u *UserProfile) Clone() *UserProfile {
	if u == nil {
		return nil
	}
	c := *u
	c.Settings = u.Settings.clone()
	if u.Onboarding != nil {
		rec := *u.Onboarding
		c.Onboarding = &rec
	}
	return &c
}

// CompleteOnboarding records the wizard outcome. hasCompletedOnboarding only
// ever moves to true; a blank display name keeps the current one.
func (u *UserProfile) CompleteOnboarding(rec OnboardingRecord, now time.Time) {
	completed := now
	rec.CompletedAt = &completed
	u.Onboarding = &rec
	u.HasCompletedOnboarding = true
	if name := strings.TrimSpace(rec.DisplayName); name != "" {
		u.DisplayName = name
	}
}

// ProfilePatch lists the profile fields that may be merged into the store.
type ProfilePatch struct {
	DisplayName            *string           `bson:"display_name,omitempty"`
	PhotoURL               *string           `bson:"photo_url,omitempty"`
	Settings               *UserSettings     `bson:"settings,omitempty"`
	HasCompletedOnboarding *bool             `bson:"has_completed_onboarding,omitempty"`
	Onboarding             *OnboardingRecord `bson:"onboarding,omitempty"`
}

// Apply merges the set fields of p into u.
func (p ProfilePatch) Apply(u *UserProfile) {
	if p.DisplayName != nil {
		u.DisplayName = *p.DisplayName
	}
	if p.PhotoURL != nil {
		u.PhotoURL = *p.PhotoURL
	}
	if p.Settings != nil {
		u.Settings = p.Settings.clone()
	}
	if p.HasCompletedOnboarding != nil {
		u.HasCompletedOnboarding = *p.HasCompletedOnboarding
	}
	if p.Onboarding != nil {
		rec := *p.Onboarding
		u.Onboarding = &rec
	}
}

// AuthProvider names an OAuth identity provider.
type AuthProvider string

const (
	ProviderGoogle AuthProvider = "google"
	ProviderApple  AuthProvider = "apple"
)

// Valid reports whether p is a supported OAuth provider.
func (p AuthProvider) Valid() bool {
	return p == ProviderGoogle || p == ProviderApple
}

// Identity is the principal reported by the identity provider.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
	PhoneNumber string
	ProviderID  string
}

// NewProfileFromIdentity builds the profile created on first sign-in.
func NewProfileFromIdentity(id *Identity, now time.Time) *UserProfile {
	name := strings.TrimSpace(id.DisplayName)
	if name == "" && id.Email != "" {
		name, _, _ = strings.Cut(id.Email, "@")
	}
	if name == "" {
		name = "User"
	}
	return &UserProfile{
		ID:          id.UID,
		Email:       id.Email,
		DisplayName: name,
		PhotoURL:    id.PhotoURL,
		CreatedAt:   now,
		Settings:    DefaultSettings(),
	}
}
