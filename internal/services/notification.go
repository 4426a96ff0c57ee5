package services

import (
	"errors"
	"fmt"
)

var (
	ErrNoResults  = errors.New("no locations found")
	ErrNoLocation = errors.New("no location selected")
)

const VariantDestructive = "destructive"

// Notification is the user-facing toast attached to a failed action.
type Notification struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Variant     string `json:"variant"`
}

var (
	SearchErrorNotification = Notification{
		Title:       "Search Error",
		Description: "Failed to search for locations. Please try again.",
		Variant:     VariantDestructive,
	}
	NoResultsNotification = Notification{
		Title:       "No Results",
		Description: "No locations found matching your search.",
		Variant:     VariantDestructive,
	}
	WeatherErrorNotification = Notification{
		Title:       "Weather Error",
		Description: "Failed to load weather data. Please try again.",
		Variant:     VariantDestructive,
	}
)

// NotifiedError carries the notification to show for Err.
type NotifiedError struct {
	Notification Notification
	Err          error
}

func (e *NotifiedError) Error() string {
	return fmt.Sprintf("%s: %v", e.Notification.Title, e.Err)
}

func (e *NotifiedError) Unwrap() error {
	return e.Err
}

func notify(n Notification, err error) error {
	return &NotifiedError{Notification: n, Err: err}
}

// NotificationFor extracts the notification attached anywhere in err's chain.
func NotificationFor(err error) (Notification, bool) {
	var ne *NotifiedError
	if errors.As(err, &ne) {
		return ne.Notification, true
	}
	return Notification{}, false
}
